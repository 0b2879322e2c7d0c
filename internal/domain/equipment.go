package domain

// Equipment is a piece of gear an exercise may require. Name is unique.
type Equipment struct {
	Model       `bson:",inline"`
	Name        string `bson:"name" json:"name" gorm:"not null;uniqueIndex"`
	DisplayName string `bson:"displayName" json:"display_name" gorm:"not null"`
	ImageURL    string `bson:"imageUrl" json:"image_url"`
}

func (Equipment) TableName() string { return string(EntityEquipments) }
