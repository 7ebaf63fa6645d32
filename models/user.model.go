package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name      string     `gorm:"default:''"`
	Email     string     `gorm:"unique;not null"`
	Mobile    string     `gorm:"default:''"`
	Role      string     `gorm:"default:'USER'"` // USER, ADMIN
	Password  string     `gorm:"not null"`
	LastLogin *time.Time `json:"last_login"`
	IsDeleted bool       `gorm:"default:false"`
}
