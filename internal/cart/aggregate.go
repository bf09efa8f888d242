package cart

// MultipleShopsLabel marks receipts for purchases spanning more than one
// vendor.
const MultipleShopsLabel = "Multiple Shops"

// VendorGroup is one vendor's slice of the cart, in insertion order.
type VendorGroup struct {
	Label string
	Lines []Line
}

// GroupByVendor splits a snapshot into per-vendor groups. Groups appear in
// the order their vendor first occurs in the snapshot; lines keep their
// relative order inside each group.
func GroupByVendor(snapshot Snapshot) []VendorGroup {
	index := map[string]int{}
	groups := make([]VendorGroup, 0, 4)
	for _, line := range snapshot {
		label := line.Vendor.Label()
		at, ok := index[label]
		if !ok {
			at = len(groups)
			index[label] = at
			groups = append(groups, VendorGroup{Label: label})
		}
		groups[at].Lines = append(groups[at].Lines, line)
	}
	return groups
}

// StockBatch is the per-vendor payload for the stock-deduction step.
type StockBatch struct {
	VendorID string
	Items    []StockItem
}

// StockItem is one (product, quantity) pair inside a batch.
type StockItem struct {
	ProductID string
	Name      string
	Quantity  int
}

// TrackedBatches collects one deduction batch per distinct tracked vendor,
// in first-appearance order. Untracked lines carry no live stock and are
// skipped entirely.
func TrackedBatches(snapshot Snapshot) []StockBatch {
	index := map[string]int{}
	batches := make([]StockBatch, 0, 4)
	for _, line := range snapshot {
		if !line.Vendor.Tracked {
			continue
		}
		at, ok := index[line.Vendor.ID]
		if !ok {
			at = len(batches)
			index[line.Vendor.ID] = at
			batches = append(batches, StockBatch{VendorID: line.Vendor.ID})
		}
		batches[at].Items = append(batches[at].Items, StockItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
		})
	}
	return batches
}

// ReceiptVendor decides the vendor attribution recorded on the receipt:
// the single vendor label when every line shares one, otherwise the
// multiple-shops marker; and the vendor id only when exactly one distinct
// tracked vendor appears anywhere in the cart.
func ReceiptVendor(snapshot Snapshot) (label string, vendorID string) {
	labels := map[string]struct{}{}
	trackedIDs := map[string]struct{}{}
	var firstLabel, firstTrackedID string

	for _, line := range snapshot {
		l := line.Vendor.Label()
		if _, ok := labels[l]; !ok {
			labels[l] = struct{}{}
			if len(labels) == 1 {
				firstLabel = l
			}
		}
		if line.Vendor.Tracked {
			if _, ok := trackedIDs[line.Vendor.ID]; !ok {
				trackedIDs[line.Vendor.ID] = struct{}{}
				if len(trackedIDs) == 1 {
					firstTrackedID = line.Vendor.ID
				}
			}
		}
	}

	switch len(labels) {
	case 0:
		label = UnknownShopLabel
	case 1:
		label = firstLabel
	default:
		label = MultipleShopsLabel
	}

	if len(trackedIDs) == 1 {
		vendorID = firstTrackedID
	}
	return label, vendorID
}
