package domain

// Customer is the shipping contact captured by the checkout form. Every
// field is required; formats are left to the order API.
type Customer struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// OrderLine is one item of an order request. Size is always sent as text.
type OrderLine struct {
	Product  int64  `json:"product"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

// OrderRequest is the body posted to the order API.
type OrderRequest struct {
	Customer
	Items []OrderLine `json:"items"`
}

// OrderConfirmation is the subset of the order API's response the storefront
// keeps.
type OrderConfirmation struct {
	ID int64 `json:"id"`
}

// BuildOrderRequest maps a cart snapshot and the shopper's contact into an
// order payload. Prices are passed through verbatim.
func BuildOrderRequest(c Customer, items []LineItem) OrderRequest {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			Product:  item.Product.ID,
			Price:    item.Product.Price,
			Quantity: item.Quantity,
			Size:     item.SelectedSize.String(),
			Color:    item.SelectedColor,
		})
	}
	return OrderRequest{Customer: c, Items: lines}
}
