package domain

// ProductRef is what the catalogue hands to the cart when an item is added.
type ProductRef struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Price    int64  `json:"price" bson:"price"`
	Image    string `json:"image" bson:"image"`
	Category string `json:"category" bson:"category"`
}

// LineItem is one distinct product in the cart. Display fields are copied
// from the catalogue at add time and never refreshed.
type LineItem struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Price    int64  `json:"price" bson:"price"`
	Quantity int    `json:"quantity" bson:"quantity"`
	Image    string `json:"image" bson:"image"`
	Category string `json:"category" bson:"category"`
}

// Subtotal is price times quantity for the line.
func (i LineItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

func NewLineItem(p ProductRef) LineItem {
	return LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
		Image:    p.Image,
		Category: p.Category,
	}
}
