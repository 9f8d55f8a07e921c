package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	// RoleRelay hanya untuk token antar instance ke /realtime/ws.
	RoleRelay = "relay"
)

type Staff struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ref       string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"ref"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}
