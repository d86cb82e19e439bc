package models

import (
	"time"

	"gst-invoicing-backend/calc"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxTemplate is a reusable tax rate. AMOUNT rate types are only meaningful for CUSTOM taxes.
type TaxTemplate struct {
	Id        string        `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"not null"`
	Rate      float64       `json:"rate" gorm:"type:numeric(9,3);not null"`
	RateType  calc.RateType `json:"rate_type" gorm:"type:varchar(10);not null;default:'PERCENT'"`
	TaxType   calc.TaxType  `json:"tax_type" gorm:"type:varchar(10);not null;index"`
	IsDefault bool          `json:"is_default" gorm:"not null;default:false"`
	IsActive  bool          `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (t *TaxTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Id == "" {
		t.Id = uuid.NewString()
	}
	return
}

// Snapshot copies the template into a calculation input. The result holds no reference back to t.
func (t TaxTemplate) Snapshot() calc.TaxRate {
	id := t.Id
	return calc.TaxRate{
		TemplateID: &id,
		Name:       t.Name,
		TaxType:    t.TaxType,
		RateType:   t.RateType,
		Rate:       t.Rate,
	}
}

// DiscountTemplate is a reusable discount. PERCENT values are 0-100.
type DiscountTemplate struct {
	Id        string        `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"not null"`
	Type      calc.RateType `json:"type" gorm:"type:varchar(10);not null"`
	Value     float64       `json:"value" gorm:"type:numeric(12,3);not null"`
	IsDefault bool          `json:"is_default" gorm:"not null;default:false"`
	IsActive  bool          `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (d *DiscountTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if d.Id == "" {
		d.Id = uuid.NewString()
	}
	return
}

func (d DiscountTemplate) Snapshot() calc.Discount {
	id := d.Id
	return calc.Discount{
		TemplateID: &id,
		Name:       d.Name,
		Type:       d.Type,
		Value:      d.Value,
	}
}
