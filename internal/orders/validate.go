package orders

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/order"
)

var phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]{10,}$`)

// ShippingForm is what the shopper fills in at checkout.
type ShippingForm struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	City         string `json:"city"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
	AgreeToTerms bool   `json:"agree_to_terms"`
}

// ValidationError maps form fields to a human-readable problem.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid checkout form: " + strings.Join(keys, ", ")
}

// Validate checks every field and reports all problems at once. It returns nil
// (an untyped nil error) when the form is acceptable.
func (f ShippingForm) Validate() error {
	fields := map[string]string{}

	name := strings.TrimSpace(f.FullName)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		fields["full_name"] = "must be between 2 and 100 characters"
	}
	if !phonePattern.MatchString(strings.TrimSpace(f.Phone)) {
		fields["phone"] = "must be a valid phone number"
	}
	if strings.TrimSpace(f.City) == "" {
		fields["city"] = "is required"
	}
	if strings.TrimSpace(f.Address) == "" {
		fields["address"] = "is required"
	}
	if !f.AgreeToTerms {
		fields["agree_to_terms"] = "you must accept the terms and conditions"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Customer splits the full name on the first space: the first word is the
// first name, everything after it the last name.
func (f ShippingForm) Customer() order.Customer {
	first, last, _ := strings.Cut(strings.Join(strings.Fields(f.FullName), " "), " ")
	return order.Customer{
		FirstName: first,
		LastName:  last,
		Email:     strings.TrimSpace(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
	}
}

func (f ShippingForm) ShippingAddress(country string) order.Address {
	return order.Address{
		Address: strings.TrimSpace(f.Address),
		City:    strings.TrimSpace(f.City),
		Country: country,
	}
}
