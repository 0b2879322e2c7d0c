package domain

// User is an account of the mobile app. Administrators are users with IsAdmin set.
type User struct {
	Model                `bson:",inline"`
	Name                 string  `bson:"name" json:"name" gorm:"not null"`
	Email                string  `bson:"email" json:"email" gorm:"not null;uniqueIndex"` // Should be unique
	Phone                string  `bson:"phone" json:"phone" gorm:"not null;uniqueIndex"`
	ImageURL             *string `bson:"imageUrl,omitempty" json:"image_url"`
	FCMToken             *string `bson:"fcmToken,omitempty" json:"fcm_token,omitempty"`
	PasswordHash         string  `bson:"passwordHash" json:"-" gorm:"not null"` // Never expose this via JSON
	IsAdmin              bool    `bson:"isAdmin" json:"is_admin"`
	IsNotificationEnable bool    `bson:"isNotificationEnable" json:"is_notification_enable"`
}

func (User) TableName() string { return string(EntityUsers) }

// Gender values accepted for UserDetail.Gender.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// UserDetail holds the body metrics a user enters during onboarding.
// There is at most one detail row per user.
type UserDetail struct {
	Model             `bson:",inline"`
	UserID            int64   `bson:"userId" json:"user_id" gorm:"not null;uniqueIndex"`
	Gender            string  `bson:"gender" json:"gender"`
	UserName          string  `bson:"userName" json:"user_name"`
	Age               int     `bson:"age" json:"age"`
	CurrentWeightType string  `bson:"currentWeightType" json:"current_weight_type"`
	CurrentWeight     float64 `bson:"currentWeight" json:"current_weight"`
	TargetWeightType  string  `bson:"targetWeightType" json:"target_weight_type"`
	TargetWeight      float64 `bson:"targetWeight" json:"target_weight"`
	HeightType        string  `bson:"heightType" json:"height_type"`
	Height            float64 `bson:"height" json:"height"`
}

func (UserDetail) TableName() string { return string(EntityUserDetails) }
