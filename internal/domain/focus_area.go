package domain

// FocusArea is a body area (chest, core, ...) exercises and users can target.
type FocusArea struct {
	Model       `bson:",inline"`
	Name        string  `bson:"name" json:"name" gorm:"not null"`
	DisplayName string  `bson:"displayName" json:"display_name" gorm:"not null"`
	ImageURL    *string `bson:"imageUrl,omitempty" json:"image_url"`
}

func (FocusArea) TableName() string { return string(EntityFocusAreas) }
