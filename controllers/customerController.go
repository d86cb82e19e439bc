package controllers

import (
	"errors"

	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CustomerInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	CompanyName string `json:"company_name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=32"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	StateCode   string `json:"state_code" validate:"required,len=2,numeric"`
	Zip         string `json:"zip"`
	GSTIN       string `json:"gstin" validate:"omitempty,len=15,alphanum"`
}

type CustomerPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	StateCode   *string `json:"state_code" validate:"omitempty,len=2,numeric"`
	Zip         *string `json:"zip"`
	GSTIN       *string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Active      *bool   `json:"active"`
}

func CreateCustomer(c *fiber.Ctx) error {
	var in CustomerInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	customer := models.Customer{
		Name:        in.Name,
		CompanyName: in.CompanyName,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		StateCode:   in.StateCode,
		Zip:         in.Zip,
		GSTIN:       in.GSTIN,
		Active:      true,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// UpdateCustomer patches a customer. Invoices already issued keep their state code snapshot.
func UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	var in CustomerPatch
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	var customer models.Customer
	if err := tx.Where("id = ?", id).First(&customer).Error; err != nil {
		return customerNotFound(err)
	}
	if updates := utils.UpdatesFromPtrDTO(&in, nil); len(updates) > 0 {
		if err := tx.Model(&customer).Updates(updates).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("id = ?", id).First(&customer).Error; err != nil {
		return err
	}
	return c.JSON(customer)
}

func GetCustomers(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	var customers []models.Customer
	q := tx.Model(&models.Customer{})
	if c.Query("all") != "true" {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("name").Find(&customers).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"customers": customers,
		"message":   "success",
	})
}

func GetCustomer(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	var customer models.Customer
	if err := tx.Where("id = ?", id).First(&customer).Error; err != nil {
		return customerNotFound(err)
	}
	return c.JSON(customer)
}

func customerNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	return err
}
