package controllers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gst-invoicing-backend/database"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=72" normalize:"-"`
	PasswordConfirm string `json:"password_confirm" validate:"required" normalize:"-"`
	CompanyName     string `json:"company_name" validate:"required,max=63"`
	Address         string `json:"address" validate:"required,max=255"`
	City            string `json:"city" validate:"required,max=100"`
	State           string `json:"state" validate:"required,max=100"`
	StateCode       string `json:"state_code" validate:"required,len=2,numeric"`
	Zip             string `json:"zip" validate:"required,max=10"`
	GSTIN           string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Phone           string `json:"phone" validate:"omitempty,max=30"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password" normalize:"-"`
}

// Register creates the user, its company and the company's tenant schema. The schema gets a
// default invoice series so the first invoice can be numbered right away.
func Register(c *fiber.Ctx) error {
	var data RegisterInput
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)
	data.Email = strings.ToLower(data.Email)
	data.GSTIN = strings.ToUpper(data.GSTIN)

	if data.Password != data.PasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "passwords do not match",
		})
	}

	var count int64
	database.DB.Model(&models.User{}).Where("email = ?", data.Email).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "email already exists",
		})
	}
	database.DB.Model(&models.Company{}).Where("company_name = ?", data.CompanyName).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "company already exists",
		})
	}

	schemaName, err := database.SchemaName(data.CompanyName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "company name cannot be used as a schema name",
			"error":   err.Error(),
		})
	}
	if err := database.MigrateTenantSchema(schemaName); err != nil {
		logger.Named("auth").Error("tenant migration failed", zap.String("schema", schemaName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not migrate tenant schema",
		})
	}

	user := models.User{
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		Email:      data.Email,
		SchemaName: schemaName,
	}
	if err := user.SetPassword(data.Password); err != nil {
		return err
	}
	company := models.Company{
		CompanyName: data.CompanyName,
		Address:     data.Address,
		City:        data.City,
		State:       data.State,
		StateCode:   data.StateCode,
		Zip:         data.Zip,
		GSTIN:       data.GSTIN,
		Phone:       data.Phone,
		Email:       data.Email,
		SchemaName:  schemaName,
	}

	err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		company.UserId = user.Id
		if err := tx.Omit("User").Create(&company).Error; err != nil {
			return err
		}
		if err := database.SetSearchPath(tx, schemaName); err != nil {
			return err
		}
		return seriesService.EnsureDefault(c.UserContext(), tx)
	})
	if err != nil {
		logger.Named("auth").Error("registration failed", zap.String("schema", schemaName), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Registration failed",
		})
	}

	company.User = user
	return c.Status(fiber.StatusCreated).JSON(company)
}

func Login(c *fiber.Ctx) error {
	var data LoginInput
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	email := strings.ToLower(strings.TrimSpace(data.Email))

	if _, err := mail.ParseAddress(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid email format",
		})
	}

	var user models.User
	err := database.DB.WithContext(c.UserContext()).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(user.Id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}
	if err := user.ComparePassword(data.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	token, err := middlewares.GenerateJWT(user.Id, user.SchemaName)
	if err != nil {
		return err
	}

	// Picks up columns added since the tenant last logged in.
	if err := database.MigrateTenantSchema(user.SchemaName); err != nil {
		logger.Named("auth").Error("tenant migration failed", zap.String("schema", user.SchemaName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not migrate tenant schema",
		})
	}

	return c.JSON(fiber.Map{
		"token":  token,
		"schema": user.SchemaName,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
		},
	})
}

func Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
