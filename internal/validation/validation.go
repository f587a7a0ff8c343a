package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"catalog-analytics-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ()-]{5,20}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// SanitizeString strips control characters and trims surrounding whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// ValidateSlug checks catalog identifiers like "peak-black".
func ValidateSlug(id, fieldName string) error {
	if id == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	if len(id) > 100 {
		return &ValidationError{Field: fieldName, Message: "cannot exceed 100 characters"}
	}
	if !slugRegex.MatchString(id) {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be a lowercase slug (letters, digits, hyphens)",
		}
	}
	return nil
}

// ValidateOfferRequest checks a product offer submission.
func ValidateOfferRequest(req models.SubmitOfferRequest) error {
	if err := ValidateSlug(req.ProductID, "product_id"); err != nil {
		return err
	}
	if req.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "is required"}
	}
	if req.LastName == "" {
		return &ValidationError{Field: "last_name", Message: "is required"}
	}
	if req.Phone == "" {
		return &ValidationError{Field: "phone_number", Message: "is required"}
	}
	if !phoneRegex.MatchString(req.Phone) {
		return &ValidationError{Field: "phone_number", Message: "must be a valid phone number"}
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if req.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if req.Quantity > 100_000 {
		return &ValidationError{Field: "quantity", Message: "exceeds maximum allowed quantity"}
	}
	if len(req.OfferText) > 4000 {
		return &ValidationError{Field: "offer_text", Message: "cannot exceed 4000 characters"}
	}
	return nil
}

// ValidateContactRequest checks a contact form submission.
func ValidateContactRequest(req models.SubmitContactRequest) error {
	if req.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "is required"}
	}
	if req.LastName == "" {
		return &ValidationError{Field: "last_name", Message: "is required"}
	}
	if req.Email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if !emailRegex.MatchString(req.Email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if req.Phone != "" && !phoneRegex.MatchString(req.Phone) {
		return &ValidationError{Field: "phone", Message: "must be a valid phone number"}
	}
	if req.Message == "" {
		return &ValidationError{Field: "message", Message: "is required"}
	}
	if len(req.Message) > 8000 {
		return &ValidationError{Field: "message", Message: "cannot exceed 8000 characters"}
	}
	return nil
}

// ValidateProductRequest checks an admin product creation request.
func ValidateProductRequest(req models.CreateProductRequest) error {
	if req.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(req.Name) > 200 {
		return &ValidationError{Field: "name", Message: "cannot exceed 200 characters"}
	}
	if err := ValidateSlug(req.CategoryKey, "category"); err != nil {
		return err
	}
	if req.ID != "" {
		if err := ValidateSlug(req.ID, "id"); err != nil {
			return err
		}
	}
	if req.Price != nil && *req.Price < 0 {
		return &ValidationError{Field: "price", Message: "must be non-negative"}
	}
	return nil
}
