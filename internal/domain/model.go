package domain

import "time"

// Model carries the columns every entity shares. Ids are plain integers
// allocated by the storage backend.
type Model struct {
	ID        int64     `bson:"_id" json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

func (m *Model) GetID() int64   { return m.ID }
func (m *Model) SetID(id int64) { m.ID = id }

func (m *Model) GetCreatedAt() time.Time { return m.CreatedAt }

// Touch sets UpdatedAt, and CreatedAt when the row has not been stored yet.
func (m *Model) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Entity is implemented by pointers to every stored entity struct.
type Entity interface {
	TableName() string
	GetID() int64
	SetID(id int64)
	GetCreatedAt() time.Time
	Touch(now time.Time)
}
