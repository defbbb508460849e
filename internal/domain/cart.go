package domain

// LineItem is one entry of a shopper's cart. The JSON names match the
// payloads browser surfaces already persist.
type LineItem struct {
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity"`
	SelectedSize  Size    `json:"selectedSize"`
	SelectedColor string  `json:"selectedColor"`
}

// VariantKey identifies a line item: the same product in a different size
// or color is a separate line.
type VariantKey struct {
	ProductID int64  `json:"product_id"`
	Size      Size   `json:"size"`
	Color     string `json:"color"`
}

// Key returns the variant key of the item.
func (i LineItem) Key() VariantKey {
	return VariantKey{ProductID: i.Product.ID, Size: i.SelectedSize, Color: i.SelectedColor}
}

// Matches reports whether item is the variant identified by k. Size
// comparison is kind-sensitive.
func (k VariantKey) Matches(item LineItem) bool {
	return item.Product.ID == k.ProductID &&
		item.SelectedSize.Equal(k.Size) &&
		item.SelectedColor == k.Color
}

// IndexOf returns the position of the line matching k, or -1.
func IndexOf(items []LineItem, k VariantKey) int {
	for i := range items {
		if k.Matches(items[i]) {
			return i
		}
	}
	return -1
}
