package domain

// Product is a catalog entry proxied from the backend.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	CategoryID string `json:"categoryId"`
	// Price in the smallest currency unit; wholesale and retail listings
	// carry different values for the same product.
	Price     int64 `json:"price"`
	Available bool  `json:"available"`
}

// Category is a node in the backend's category tree.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}
