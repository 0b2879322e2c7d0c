package domain

// Category groups workouts on the home feed.
type Category struct {
	Model       `bson:",inline"`
	Name        string `bson:"name" json:"name" gorm:"not null"`
	DisplayName string `bson:"displayName" json:"display_name" gorm:"not null"`
}

func (Category) TableName() string { return string(EntityCategories) }
