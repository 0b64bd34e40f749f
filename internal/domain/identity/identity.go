// Package identity defines the landlord and tenant records printed on an invoice.
package identity

import (
	"fmt"
	"strings"

	"github.com/Strob0t/RentFlow/internal/domain"
)

// Kind names an identity record and doubles as its storage key suffix.
type Kind string

const (
	KindLandlord Kind = "landlord"
	KindTenant   Kind = "tenant"
)

// ParseKind validates a record kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindLandlord:
		return KindLandlord, nil
	case KindTenant:
		return KindTenant, nil
	default:
		return "", fmt.Errorf("unknown identity kind %q: %w", s, domain.ErrValidation)
	}
}

// Record is a flat set of named text fields.
type Record interface {
	Kind() Kind
	IsEmpty() bool
	Field(name string) (string, bool)
}

// Landlord identifies the party issuing the invoice.
type Landlord struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Kind implements Record.
func (Landlord) Kind() Kind { return KindLandlord }

// IsEmpty reports whether every field is blank.
func (l Landlord) IsEmpty() bool {
	return blank(l.Name, l.Phone)
}

// Field returns the named field.
func (l Landlord) Field(name string) (string, bool) {
	switch name {
	case "name":
		return l.Name, true
	case "phone":
		return l.Phone, true
	}
	return "", false
}

// SetField replaces the named field.
func (l *Landlord) SetField(name, value string) error {
	switch name {
	case "name":
		l.Name = value
	case "phone":
		l.Phone = value
	default:
		return unknownField(KindLandlord, name)
	}
	return nil
}

// Tenant identifies the party being billed.
type Tenant struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// Kind implements Record.
func (Tenant) Kind() Kind { return KindTenant }

// IsEmpty reports whether every field is blank.
func (t Tenant) IsEmpty() bool {
	return blank(t.Name, t.Address, t.Contact)
}

// Field returns the named field.
func (t Tenant) Field(name string) (string, bool) {
	switch name {
	case "name":
		return t.Name, true
	case "address":
		return t.Address, true
	case "contact":
		return t.Contact, true
	}
	return "", false
}

// SetField replaces the named field.
func (t *Tenant) SetField(name, value string) error {
	switch name {
	case "name":
		t.Name = value
	case "address":
		t.Address = value
	case "contact":
		t.Contact = value
	default:
		return unknownField(KindTenant, name)
	}
	return nil
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

func unknownField(kind Kind, name string) error {
	return fmt.Errorf("unknown %s field %q: %w", kind, name, domain.ErrValidation)
}
