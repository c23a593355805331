package listing

import (
	"strings"

	"shopdash/internal/domain"
	apperrors "shopdash/internal/errors"
	"shopdash/internal/gatewayclient"
	"shopdash/internal/validation"
)

const (
	defaultFormTitle = "Product Name"
	defaultFormPrice = "1"
)

// ProductForm is the create/edit form. Price stays text until submission.
type ProductForm struct {
	Title  string `json:"title" validate:"required"`
	Price  string `json:"price" validate:"required,price,price_positive"`
	ImgSrc string `json:"imgSrc"`
}

func DefaultForm() ProductForm {
	return ProductForm{
		Title:  defaultFormTitle,
		Price:  defaultFormPrice,
		ImgSrc: domain.PlaceholderImageURL,
	}
}

// FormFromProduct prefills the form for editing p.
func FormFromProduct(p domain.Product) ProductForm {
	return ProductForm{
		Title:  p.Title,
		Price:  p.Price().String(),
		ImgSrc: p.ImageURL(),
	}
}

// Validate reports every invalid field at once.
func (f ProductForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Price = strings.TrimSpace(f.Price)
	if details := validation.Struct(f); details != nil {
		return apperrors.NewValidationError("product form is invalid", details...)
	}
	return nil
}

func (f ProductForm) input() gatewayclient.ProductInput {
	return gatewayclient.ProductInput{
		Title:  strings.TrimSpace(f.Title),
		Price:  strings.TrimSpace(f.Price),
		ImgSrc: f.ImgSrc,
	}
}
