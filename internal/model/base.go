package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel is embedded by every persisted entity. Deletes are soft, the
// marker column never leaves the API.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
