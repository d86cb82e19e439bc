package models

import (
	"time"

	"gst-invoicing-backend/numbering"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceSeries owns a monotonically increasing counter. NextNumber is only ever advanced by
// number allocation; it is never decremented.
type InvoiceSeries struct {
	Id         string    `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null;unique"`
	Prefix     string    `json:"prefix"`
	Suffix     string    `json:"suffix"`
	StartWith  int64     `json:"start_with" gorm:"not null"`
	NextNumber int64     `json:"next_number" gorm:"not null"`
	Padding    int       `json:"padding" gorm:"not null"`
	IsDefault  bool      `json:"is_default" gorm:"not null;default:false"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (InvoiceSeries) TableName() string { return "invoice_series" }

func (s *InvoiceSeries) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Id == "" {
		s.Id = uuid.NewString()
	}
	return
}

func (s InvoiceSeries) Sequence() numbering.Series {
	return numbering.Series{
		Prefix:     s.Prefix,
		Suffix:     s.Suffix,
		StartWith:  s.StartWith,
		NextNumber: s.NextNumber,
		Padding:    s.Padding,
	}
}
