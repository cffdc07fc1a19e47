package dto

// CreateProductRequest creates a catalog entry (operator only)
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=1"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	StockCount  int     `json:"stock_count" binding:"gte=0"`
	ImageURL    string  `json:"image_url"`
}

// UpdateProductRequest mutates price, stock or display fields.
// Pointer fields distinguish "absent" from zero values.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	StockCount  *int     `json:"stock_count,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}
