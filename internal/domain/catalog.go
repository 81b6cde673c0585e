// Package domain contains core business types shared by the API client,
// the list view pipeline and the handlers.
//
// The backend owns every record. These types mirror its JSON shape; timestamps
// stay as the ISO-8601 strings the backend sends and nullable references are
// pointers.
package domain

// Item is a record that can live in a list view collection.
type Item interface {
	ItemID() string
}

// ListResult is a normalized list response.
type ListResult[T any] struct {
	Items []T
	Total int
}

// =============================================================================
// Category
// =============================================================================

// Category is a top-level grouping of products.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	ImageID     *string `json:"imageId"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (c Category) ItemID() string { return c.ID }

// CategoryInput is the create/update payload for a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Slug        string  `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description string  `json:"description" validate:"max=1000"`
	ImageID     *string `json:"imageId,omitempty"`
	IsActive    bool    `json:"isActive"`
}

// AttachImage sets the image uploaded as part of the same submission.
func (in *CategoryInput) AttachImage(id string) { in.ImageID = &id }

// =============================================================================
// Subcategory
// =============================================================================

// Subcategory belongs to a category.
type Subcategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	CategoryID  *string `json:"categoryId"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (s Subcategory) ItemID() string { return s.ID }

// SubcategoryInput is the create/update payload for a subcategory.
type SubcategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"max=1000"`
	CategoryID  string `json:"categoryId" validate:"required"`
	IsActive    bool   `json:"isActive"`
}

// Deref returns the value of a nullable string, or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
