package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a billable service or product in the catalog. Its default templates pre-fill new
// invoice lines; the invoice itself only keeps the resolved snapshot.
type Article struct {
	Id                        string    `json:"id" gorm:"primaryKey"`
	Name                      string    `json:"name" gorm:"not null"`
	Description               string    `json:"description"`
	SacCode                   string    `json:"sac_code" gorm:"size:8"`
	Unit                      string    `json:"unit"`
	Rate                      float64   `json:"rate" gorm:"type:numeric(12,2)"`
	DefaultTaxTemplateID      *string   `json:"default_tax_template_id"`
	DefaultCessTemplateID     *string   `json:"default_cess_template_id"`
	DefaultDiscountTemplateID *string   `json:"default_discount_template_id"`
	Active                    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

func (article *Article) BeforeCreate(tx *gorm.DB) (err error) {
	if article.Id == "" {
		article.Id = uuid.NewString()
	}
	return
}
