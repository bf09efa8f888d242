package cart

import (
	"github.com/shopspring/decimal"

	cartstore "github.com/corelia-app/corelia-cart/internal/cart"
)

// AddItemRequest is the payload for putting a product in the cart. A
// vendor_id marks the line as coming from a live marketplace vendor;
// lines without one are catalog items that skip stock deduction.
type AddItemRequest struct {
	ProductID  string          `json:"product_id" validate:"required"`
	VendorID   string          `json:"vendor_id,omitempty"`
	VendorName string          `json:"vendor_name,omitempty"`
	Name       string          `json:"name" validate:"required"`
	Category   string          `json:"category,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Unit       string          `json:"unit,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
}

// UpdateQuantityRequest sets the absolute quantity of one line.
// Quantities below one are clamped rather than rejected, matching the
// add path.
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VendorID  string `json:"vendor_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (r AddItemRequest) vendor() cartstore.VendorRef {
	if r.VendorID != "" {
		return cartstore.TrackedVendor(r.VendorID, r.VendorName)
	}
	return cartstore.UntrackedVendor(r.VendorName)
}

func (r AddItemRequest) toCandidate() cartstore.Candidate {
	return cartstore.Candidate{
		ProductID: r.ProductID,
		Vendor:    r.vendor(),
		Name:      r.Name,
		Category:  r.Category,
		UnitPrice: r.UnitPrice,
		Unit:      r.Unit,
		Quantity:  r.Quantity,
	}
}

// vendorRefFor reconstructs the vendor identity used as half of a line
// key. Only the id matters for lookups; names never take part.
func vendorRefFor(vendorID string) cartstore.VendorRef {
	if vendorID != "" {
		return cartstore.TrackedVendor(vendorID, "")
	}
	return cartstore.UntrackedVendor("")
}
