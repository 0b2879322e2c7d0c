package domain

// MasterGoal is a selectable fitness goal (lose weight, build muscle, ...).
type MasterGoal struct {
	Model       `bson:",inline"`
	Name        string `bson:"name" json:"name" gorm:"not null"`
	DisplayName string `bson:"displayName" json:"display_name" gorm:"not null"`
	Status      bool   `bson:"status" json:"status"`
}

func (MasterGoal) TableName() string { return string(EntityMasterGoals) }
