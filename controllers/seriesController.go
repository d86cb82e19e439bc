package controllers

import (
	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/services"

	"github.com/gofiber/fiber/v2"
)

func CreateSeries(c *fiber.Ctx) error {
	var in services.SeriesRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	s, err := seriesService.Create(c.UserContext(), tx, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

func GetSeries(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	list, err := seriesService.List(c.UserContext(), tx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"series": list, "message": "success"})
}

func SetDefaultSeries(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	s, err := seriesService.SetDefault(c.UserContext(), tx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(s)
}

// PreviewSeriesNumber shows the next number without consuming it.
func PreviewSeriesNumber(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	number, err := seriesService.Preview(c.UserContext(), tx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"next_number": number})
}
