package handlers

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// priceScale is the number of decimal places the price and total columns store.
const priceScale = 2

// pricedRequest is a request body that carries an optional price.
type pricedRequest interface {
	price() *decimal.Decimal
}

// newValidator returns a validator that checks decimal.Decimal fields as numbers and
// rejects prices the database would round.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(validatePriceScale, ProductRequest{})
	v.RegisterStructValidation(validateCartProduct, CartProductRequest{})
	return v
}

func validatePriceScale(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(pricedRequest)
	if !ok {
		return
	}
	if p := req.price(); p != nil && !p.Equal(p.Round(priceScale)) {
		sl.ReportError(*p, "Price", "price", "max_scale", fmt.Sprint(priceScale))
	}
}

// validateCartProduct requires a price for cart items that describe a new product.
func validateCartProduct(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(CartProductRequest)
	if !ok {
		return
	}
	validatePriceScale(sl)
	if req.ID == "" && req.Price == nil {
		sl.ReportError(req.Price, "Price", "price", "required_without", "ID")
	}
}

// parseAndValidate binds the JSON body into req and validates it. On failure the 400
// response is already written and ok is false.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}
