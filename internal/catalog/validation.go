package catalog

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/inventario/inventario/internal/shared"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Code     string       `form:"codigo" validate:"required,min=3,max=50"`
	Name     string       `form:"nombre" validate:"required,min=5,max=120"`
	Category string       `form:"categoria" validate:"max=50"`
	Price    shared.Money `form:"precio" validate:"gt=0"`
	Stock    int          `form:"stock" validate:"gte=0"`
	Active   bool         `form:"activo"`
}

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name        string `form:"nombre" validate:"required,min=3,max=50"`
	Description string `form:"descripcion" validate:"max=255"`
}

// ValidationError carries per-field messages keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return shared.ErrValidation }

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

func validate(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio"
	case "min":
		return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("No puede exceder %s caracteres", fe.Param())
	case "gt":
		return "Debe ser mayor que cero"
	case "gte":
		return "No puede ser negativo"
	default:
		return "Valor inválido"
	}
}

func (in *ProductInput) normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}
