package domain

import "strings"

// PlaceholderImage is shown when a product has no images.
const PlaceholderImage = "/placeholder-shoe.jpg"

// Category is a catalog category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Brand is a catalog brand.
type Brand struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Logo        *string `json:"logo"`
	Description string  `json:"description"`
}

// ProductImage is one image of a product.
type ProductImage struct {
	ID        int64  `json:"id"`
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

// Review is a shopper review embedded in product detail responses.
type Review struct {
	ID        int64  `json:"id"`
	Product   int64  `json:"product"`
	UserName  string `json:"user_name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// Product is a catalog product as served by the catalog API. Price is the
// API's decimal string and is kept verbatim.
type Product struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         string         `json:"price"`
	Category      Category       `json:"category"`
	Brand         Brand          `json:"brand"`
	Stock         int            `json:"stock"`
	Available     bool           `json:"available"`
	Images        []ProductImage `json:"images"`
	Sizes         []Size         `json:"sizes"`
	Colors        []string       `json:"colors"`
	AverageRating float64        `json:"average_rating"`
	ReviewCount   int            `json:"review_count"`
	Reviews       []Review       `json:"reviews,omitempty"`
}

// PrimaryImage returns the image flagged primary, else the first image,
// else the placeholder.
func (p Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.Image
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].Image
	}
	return PlaceholderImage
}

// DefaultSize is the first listed size, or the zero Size.
func (p Product) DefaultSize() Size {
	if len(p.Sizes) == 0 {
		return Size{}
	}
	return p.Sizes[0]
}

// DefaultColor is the first listed color, or "".
func (p Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}

// WithMediaBase returns a copy whose /media/ paths are absolute URLs under
// base. Absolute URLs and other paths are left alone.
func (p Product) WithMediaBase(base string) Product {
	if base == "" {
		return p
	}
	if len(p.Images) > 0 {
		images := make([]ProductImage, len(p.Images))
		for i, img := range p.Images {
			img.Image = MediaURL(base, img.Image)
			images[i] = img
		}
		p.Images = images
	}
	if p.Brand.Logo != nil {
		logo := MediaURL(base, *p.Brand.Logo)
		p.Brand.Logo = &logo
	}
	return p
}

// MediaURL resolves src against base when it is a /media/ path.
func MediaURL(base, src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if strings.HasPrefix(src, "/media/") {
		return strings.TrimRight(base, "/") + src
	}
	return src
}
