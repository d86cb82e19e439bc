package controllers

import (
	"errors"
	"fmt"

	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ArticleInput struct {
	Name                      string  `json:"name" validate:"required,max=200"`
	Description               string  `json:"description" validate:"max=1000"`
	SacCode                   string  `json:"sac_code" validate:"omitempty,max=8,numeric"`
	Unit                      string  `json:"unit" validate:"max=16"`
	Rate                      float64 `json:"rate" validate:"gte=0"`
	DefaultTaxTemplateID      *string `json:"default_tax_template_id"`
	DefaultCessTemplateID     *string `json:"default_cess_template_id"`
	DefaultDiscountTemplateID *string `json:"default_discount_template_id"`
}

type ArticlePatch struct {
	Name                      *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description               *string  `json:"description" validate:"omitempty,max=1000"`
	SacCode                   *string  `json:"sac_code" validate:"omitempty,max=8,numeric"`
	Unit                      *string  `json:"unit" validate:"omitempty,max=16"`
	Rate                      *float64 `json:"rate" validate:"omitempty,gte=0"`
	DefaultTaxTemplateID      *string  `json:"default_tax_template_id"`
	DefaultCessTemplateID     *string  `json:"default_cess_template_id"`
	DefaultDiscountTemplateID *string  `json:"default_discount_template_id"`
	Active                    *bool    `json:"active"`
}

// CreateArticles creates a batch of articles in one transaction.
func CreateArticles(c *fiber.Ctx) error {
	var inputs []ArticleInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no articles given")
	}

	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	created := make([]models.Article, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if err := middlewares.ValidateStruct(in); err != nil {
			return err
		}
		utils.NormalizeDTO(in)

		article := models.Article{
			Name:                      in.Name,
			Description:               in.Description,
			SacCode:                   in.SacCode,
			Unit:                      in.Unit,
			Rate:                      in.Rate,
			DefaultTaxTemplateID:      in.DefaultTaxTemplateID,
			DefaultCessTemplateID:     in.DefaultCessTemplateID,
			DefaultDiscountTemplateID: in.DefaultDiscountTemplateID,
			Active:                    true,
		}
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("create article at index %d: %w", i, err)
		}
		created = append(created, article)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func GetArticles(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	var articles []models.Article
	q := tx.Model(&models.Article{})
	if c.Query("all") != "true" {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("name").Find(&articles).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"articles": articles,
		"message":  "success",
	})
}

func UpdateArticle(c *fiber.Ctx) error {
	id := c.Params("id")
	var in ArticlePatch
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	var article models.Article
	if err := tx.Where("id = ?", id).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "article not found")
		}
		return err
	}
	if updates := utils.UpdatesFromPtrDTO(&in, nil); len(updates) > 0 {
		if err := tx.Model(&article).Updates(updates).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("id = ?", id).First(&article).Error; err != nil {
		return err
	}
	return c.JSON(article)
}
