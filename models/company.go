package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the supplier issuing invoices. StateCode decides intra- vs inter-state GST.
type Company struct {
	Id          string    `json:"id" gorm:"primaryKey"`
	CompanyName string    `json:"company_name" gorm:"not null;unique"`
	Address     string    `json:"address" gorm:"not null"`
	City        string    `json:"city" gorm:"not null"`
	State       string    `json:"state" gorm:"not null"`
	StateCode   string    `json:"state_code" gorm:"size:2;not null"`
	Zip         string    `json:"zip" gorm:"not null"`
	GSTIN       string    `json:"gstin" gorm:"size:15"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	UserId      string    `json:"-"`
	User        User      `json:"user" gorm:"foreignKey:UserId;references:Id"`
	SchemaName  string    `json:"-" gorm:"unique;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (company *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if company.Id == "" {
		company.Id = uuid.NewString()
	}
	return
}
