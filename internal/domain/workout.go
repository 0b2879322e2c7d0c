package domain

// Workout is a curated sequence of exercises shown under categories.
type Workout struct {
	Model       `bson:",inline"`
	Name        string  `bson:"name" json:"name" gorm:"not null"`
	DisplayName string  `bson:"displayName" json:"display_name" gorm:"not null"`
	ImageURL    string  `bson:"imageUrl" json:"image_url"`
	IsPopular   bool    `bson:"isPopular" json:"is_popular"`
	KcalBurn    *string `bson:"kcalBurn,omitempty" json:"kcal_burn"`
	TimeInMin   int     `bson:"timeInMin" json:"time_in_min"`
}

func (Workout) TableName() string { return string(EntityWorkouts) }
