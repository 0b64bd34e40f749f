package lineitem

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Strob0t/RentFlow/internal/domain"
)

// Store holds the ordered line items of one invoice session.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	items []LineItem
	newID func() string
}

// NewStore creates an empty Store that assigns uuid identifiers.
func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

// Add appends a new item of the given kind with an empty title and a zero
// amount, and returns the updated collection.
func (s *Store) Add(kind Kind) []LineItem {
	if kind != KindDiscount {
		kind = KindCharge
	}
	s.items = append(s.items, LineItem{
		ID:     s.newID(),
		Amount: decimal.Zero,
		Kind:   kind,
	})
	return s.Items()
}

// Remove deletes the item with the given id. An unknown id is a no-op.
func (s *Store) Remove(id string) []LineItem {
	s.items = slices.DeleteFunc(s.items, func(li LineItem) bool { return li.ID == id })
	return s.Items()
}

// Update replaces one field of the item with the given id. Amount input is
// coerced with ParseAmount and an unknown kind leaves the kind unchanged.
// An unknown id is a no-op; only an unknown field name is an error.
func (s *Store) Update(id, field, value string) ([]LineItem, error) {
	switch field {
	case FieldTitle, FieldAmount, FieldKind:
	default:
		return s.Items(), fmt.Errorf("unknown line item field %q: %w", field, domain.ErrValidation)
	}

	i := s.index(id)
	if i < 0 {
		return s.Items(), nil
	}

	switch field {
	case FieldTitle:
		s.items[i].Title = value
	case FieldAmount:
		s.items[i].Amount = ParseAmount(value)
	case FieldKind:
		if k, ok := ParseKind(value); ok {
			s.items[i].Kind = k
		}
	}
	return s.Items(), nil
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (LineItem, bool) {
	i := s.index(id)
	if i < 0 {
		return LineItem{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the items in insertion order.
func (s *Store) Items() []LineItem {
	return slices.Clone(s.items)
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(li LineItem) bool { return li.ID == id })
}
