package domain

// Product is a sellable item filed under a subcategory.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description"`
	SubcategoryID *string `json:"subcategoryId"`
	ImageID       *string `json:"imageId"`
	Price         float64 `json:"price"`
	InStock       *bool   `json:"inStock"` // nil when the backend has no stock data
	IsFeatured    bool    `json:"isFeatured"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func (p Product) ItemID() string { return p.ID }

// ProductInput is the create/update payload for a product.
type ProductInput struct {
	Name          string  `json:"name" validate:"required,min=2,max=150"`
	Slug          string  `json:"slug,omitempty" validate:"omitempty,max=160"`
	Description   string  `json:"description" validate:"max=5000"`
	SubcategoryID string  `json:"subcategoryId" validate:"required"`
	ImageID       *string `json:"imageId,omitempty"`
	Price         float64 `json:"price" validate:"gte=0"`
	InStock       *bool   `json:"inStock,omitempty"`
	IsFeatured    bool    `json:"isFeatured"`
}

// AttachImage sets the image uploaded as part of the same submission.
func (in *ProductInput) AttachImage(id string) { in.ImageID = &id }

// Variant is a purchasable option of a product (size, color, ...).
type Variant struct {
	ID        string  `json:"id"`
	ProductID *string `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func (v Variant) ItemID() string { return v.ID }

// VariantInput is the create/update payload for a variant.
type VariantInput struct {
	ProductID string  `json:"productId" validate:"required"`
	SKU       string  `json:"sku" validate:"required,max=64"`
	Name      string  `json:"name" validate:"required,min=1,max=100"`
	Price     float64 `json:"price" validate:"gte=0"`
	Stock     int     `json:"stock" validate:"gte=0"`
	IsActive  bool    `json:"isActive"`
}
