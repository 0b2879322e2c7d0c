// internal/domain/exercise.go
package domain

// Exercise represents a single exercise definition in the library.
type Exercise struct {
	Model           `bson:",inline"`
	Name            string  `bson:"name" json:"name" gorm:"not null"`
	DisplayName     string  `bson:"displayName" json:"display_name" gorm:"not null"`
	ImageURL        *string `bson:"imageUrl,omitempty" json:"image_url"`
	MaleVideoPath   *string `bson:"maleVideoPath,omitempty" json:"male_video_path"`
	FemaleVideoPath *string `bson:"femaleVideoPath,omitempty" json:"female_video_path"`
	PreparationText *string `bson:"preparationText,omitempty" json:"preparation_text"`
	ExecutionPoint  string  `bson:"executionPoint" json:"execution_point" gorm:"type:text"`
	KeyTips         string  `bson:"keyTips" json:"key_tips" gorm:"type:text"`
	Description     *string `bson:"description,omitempty" json:"description" gorm:"type:text"`
}

func (Exercise) TableName() string { return string(EntityExercises) }
