package models

import "time"

// Customer is the recipient of an invoice. StateCode is compared with the company's state code
// verbatim; GSTIN is stored as given.
type Customer struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email" gorm:"index"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	StateCode   string    `json:"state_code" gorm:"size:2;not null"`
	Zip         string    `json:"zip"`
	GSTIN       string    `json:"gstin" gorm:"size:15"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
