package types

import (
	"gorm.io/gorm"
)

type PushSubscription struct {
	gorm.Model
	UserID   string `gorm:"type:varchar(36);index"`
	Endpoint string
	P256DH   string
	Auth     string
	Keys     string
}
