package services

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Categories is the suggestion list shown on listing forms. It is advice,
// not an enum: the column stays free text and other values are accepted.
var Categories = []string{
	"Home & Garden",
	"Tutoring",
	"Design",
	"Writing",
	"Technology",
	"Photography",
	"Music",
	"Fitness",
	"Cleaning",
	"Moving",
	"Other",
}

// GET /services/categories
func GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": Categories})
}
