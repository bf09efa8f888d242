package cart

import (
	"github.com/shopspring/decimal"
)

// UnknownShopLabel is the display label for lines sold by untracked catalog
// vendors with no recorded shop name.
const UnknownShopLabel = "Unknown Shop"

// VendorRef identifies the seller of a cart line. Tracked vendors are real
// shops with backend-managed stock; untracked refs are static catalog
// entries that have no live inventory to decrement.
type VendorRef struct {
	ID      string
	Name    string
	Tracked bool
}

// TrackedVendor builds a reference to a real shop.
func TrackedVendor(id, name string) VendorRef {
	return VendorRef{ID: id, Name: name, Tracked: true}
}

// UntrackedVendor builds a reference to a catalog-only seller.
func UntrackedVendor(name string) VendorRef {
	return VendorRef{Name: name}
}

// Label returns the display name used for grouping.
func (v VendorRef) Label() string {
	if v.Name != "" {
		return v.Name
	}
	return UnknownShopLabel
}

// Line is one product offered by one vendor at a chosen quantity.
type Line struct {
	ProductID string
	Vendor    VendorRef
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Unit      string
	Quantity  int
}

// LineKey is the composite identity of a cart line. All untracked vendors
// share the empty vendor id, so the same catalog product added twice merges
// into one line regardless of the recorded shop name.
type LineKey struct {
	ProductID string
	VendorID  string
}

// Key resolves the composite key for this line.
func (l Line) Key() LineKey {
	return ResolveKey(l.ProductID, l.Vendor)
}

// ResolveKey derives the composite key for a (product, vendor) pair.
func ResolveKey(productID string, vendor VendorRef) LineKey {
	key := LineKey{ProductID: productID}
	if vendor.Tracked {
		key.VendorID = vendor.ID
	}
	return key
}

// LineTotal returns unit price times quantity, exact.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the ordered list of cart lines at a point in time. Order is
// insertion order and only matters for rendering.
type Snapshot []Line

// TotalItems sums quantities across all lines.
func (s Snapshot) TotalItems() int {
	total := 0
	for _, line := range s {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums line totals without intermediate rounding.
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Clone returns a copy the caller may hold without observing later mutations.
func (s Snapshot) Clone() Snapshot {
	if len(s) == 0 {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
