package cart

import (
	cartstore "github.com/corelia-app/corelia-cart/internal/cart"
)

// CartView is the full cart as the UI renders it: flat lines, the same
// lines grouped per vendor, and the running totals.
type CartView struct {
	Items      []LineView  `json:"items"`
	Groups     []GroupView `json:"groups"`
	TotalItems int         `json:"total_items"`
	TotalPrice string      `json:"total_price"`
}

// LineView is one cart line.
type LineView struct {
	ProductID   string `json:"product_id"`
	VendorID    string `json:"vendor_id,omitempty"`
	VendorName  string `json:"vendor_name,omitempty"`
	VendorLabel string `json:"vendor_label"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Unit        string `json:"unit,omitempty"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

// GroupView is one vendor's slice of the cart.
type GroupView struct {
	Label string     `json:"label"`
	Items []LineView `json:"items"`
}

func newCartView(snapshot cartstore.Snapshot) CartView {
	items := make([]LineView, 0, len(snapshot))
	for _, line := range snapshot {
		items = append(items, newLineView(line))
	}

	groups := make([]GroupView, 0, 4)
	for _, group := range cartstore.GroupByVendor(snapshot) {
		view := GroupView{Label: group.Label, Items: make([]LineView, 0, len(group.Lines))}
		for _, line := range group.Lines {
			view.Items = append(view.Items, newLineView(line))
		}
		groups = append(groups, view)
	}

	return CartView{
		Items:      items,
		Groups:     groups,
		TotalItems: snapshot.TotalItems(),
		TotalPrice: snapshot.TotalPrice().StringFixed(2),
	}
}

func newLineView(line cartstore.Line) LineView {
	return LineView{
		ProductID:   line.ProductID,
		VendorID:    line.Vendor.ID,
		VendorName:  line.Vendor.Name,
		VendorLabel: line.Vendor.Label(),
		Name:        line.Name,
		Category:    line.Category,
		UnitPrice:   line.UnitPrice.StringFixed(2),
		Unit:        line.Unit,
		Quantity:    line.Quantity,
		LineTotal:   line.LineTotal().StringFixed(2),
	}
}
