package domain

// ExecutionPoint is a reusable instruction line attached to exercises.
type ExecutionPoint struct {
	Model `bson:",inline"`
	Text  string `bson:"text" json:"text" gorm:"type:text;not null"`
	Index *int   `bson:"index,omitempty" json:"index"`
}

func (ExecutionPoint) TableName() string { return string(EntityExecutionPoints) }
