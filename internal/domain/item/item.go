package item

import (
	"fmt"
	"time"

	"item-service/internal/domain/shared"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxNameLength is the longest accepted name, counted in characters.
const MaxNameLength = 255

var validate = validator.New(validator.WithRequiredStructEnabled())

// Item is the persisted entity
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Create is the input shape for creating an item
type Create struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

// Update is a partial update. Only fields present in the request are applied;
// an explicit null is a present value.
type Update struct {
	Name        shared.Optional[string] `json:"name"`
	Description shared.Optional[string] `json:"description"`
}

// ListResult is a page of items plus the count of all items
type ListResult struct {
	Items []*Item `json:"items"`
	Total int     `json:"total"`
}

// New builds an item from a create request. Timestamps are truncated to
// microseconds, the resolution relational stores keep.
func New(in Create, now time.Time) *Item {
	now = now.UTC().Truncate(time.Microsecond)
	return &Item{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the create constraints
func (c Create) Validate() error {
	if err := validate.Struct(c); err != nil {
		return nameError(err)
	}
	return nil
}

// Validate checks the constraints of every present field
func (u Update) Validate() error {
	if !u.Name.Set {
		return nil
	}
	if u.Name.Null {
		return shared.ErrNameNull
	}
	if err := validate.Var(u.Name.Value, "required,max=255"); err != nil {
		return nameError(err)
	}
	return nil
}

// IsEmpty reports whether the update carries no fields
func (u Update) IsEmpty() bool {
	return !u.Name.Set && !u.Description.Set
}

// Apply overwrites the present fields and refreshes UpdatedAt. UpdatedAt never
// moves backwards, so CreatedAt <= UpdatedAt holds even under clock skew.
func (u Update) Apply(it *Item, now time.Time) {
	if u.Name.Set {
		it.Name = u.Name.Value
	}
	if u.Description.Set {
		it.Description = u.Description.Ptr()
	}

	now = now.UTC().Truncate(time.Microsecond)
	if now.Before(it.UpdatedAt) {
		now = it.UpdatedAt
	}
	it.UpdatedAt = now
}

func nameError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	switch verrs[0].Tag() {
	case "required":
		return shared.ErrNameRequired
	case "max":
		return shared.ErrNameTooLong
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidRequest, verrs[0].Error())
}
