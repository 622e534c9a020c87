package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress holds the free-form delivery contact captured at checkout.
type ShippingAddress struct {
	FullName   string  `json:"fullName" validate:"required,max=120"`
	Phone      string  `json:"phone" validate:"required,max=40"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country,omitempty" validate:"omitempty,max=60"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Normalize trims every field and defaults the country.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "US"
	}
	a.Email = trimNullable(a.Email)
	a.Line2 = trimNullable(a.Line2)
	a.State = trimNullable(a.State)
	a.Notes = trimNullable(a.Notes)
	return a
}

// Lines renders the address for receipts and emails.
func (a ShippingAddress) Lines() []string {
	lines := []string{a.FullName, a.Line1}
	if a.Line2 != nil {
		lines = append(lines, *a.Line2)
	}
	cityLine := a.City
	if a.State != nil {
		cityLine += ", " + *a.State
	}
	cityLine += " " + a.PostalCode
	lines = append(lines, strings.TrimSpace(cityLine))
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	if a.Phone != "" {
		lines = append(lines, "Tel: "+a.Phone)
	}
	return lines
}

// Value stores the address as a JSON document.
func (a ShippingAddress) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("shipping address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("shipping address: missing city")
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON document written by Value.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, a)
}

func trimNullable(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
