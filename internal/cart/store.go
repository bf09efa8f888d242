package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
	"github.com/corelia-app/corelia-cart/pkg/logger"
	"github.com/shopspring/decimal"
)

// Candidate is the payload for adding a product to the cart. Quantity is
// optional; zero or negative values are corrected to one rather than
// rejected.
type Candidate struct {
	ProductID string
	Vendor    VendorRef
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Unit      string
	Quantity  int
}

// Store is the authoritative mutable cart. Every mutation is written
// through to the snapshot repository before it becomes visible in memory,
// so a restart always restores the last completed mutation.
type Store struct {
	mu    sync.Mutex
	repo  SnapshotRepository
	logg  *logger.Logger
	lines Snapshot
}

// NewStore restores the persisted snapshot and wraps it in a live store.
func NewStore(ctx context.Context, repo SnapshotRepository, logg *logger.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	snapshot, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring cart: %w", err)
	}
	if logg != nil && len(snapshot) > 0 {
		logg.Info(logg.WithField(ctx, "lines", len(snapshot)), "cart restored from disk")
	}
	return &Store{repo: repo, logg: logg, lines: snapshot}, nil
}

// AddItem merges the candidate into the cart. Re-adding the same
// (product, vendor) pair raises the existing line's quantity instead of
// duplicating it.
func (s *Store) AddItem(ctx context.Context, candidate Candidate) error {
	qty := candidate.Quantity
	if qty < 1 {
		qty = 1
	}
	price := candidate.UnitPrice
	if price.IsNegative() {
		price = decimal.Zero
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ResolveKey(candidate.ProductID, candidate.Vendor)
	next := s.lines.Clone()
	merged := false
	for i := range next {
		if next[i].Key() == key {
			next[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, Line{
			ProductID: candidate.ProductID,
			Vendor:    candidate.Vendor,
			Name:      candidate.Name,
			Category:  candidate.Category,
			UnitPrice: price,
			Unit:      candidate.Unit,
			Quantity:  qty,
		})
	}
	return s.commit(ctx, next)
}

// RemoveItem deletes the line for the composite key. Absent lines are a
// no-op, not an error.
func (s *Store) RemoveItem(ctx context.Context, productID string, vendor VendorRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ResolveKey(productID, vendor)
	next := make(Snapshot, 0, len(s.lines))
	for _, line := range s.lines {
		if line.Key() == key {
			continue
		}
		next = append(next, line)
	}
	if len(next) == len(s.lines) {
		return nil
	}
	return s.commit(ctx, next)
}

// UpdateQuantity sets the line's quantity, clamped at one. Removal is a
// separate explicit operation; absent lines are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, vendor VendorRef, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ResolveKey(productID, vendor)
	next := s.lines.Clone()
	for i := range next {
		if next[i].Key() != key {
			continue
		}
		if next[i].Quantity == quantity {
			return nil
		}
		next[i].Quantity = quantity
		return s.commit(ctx, next)
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return nil
	}
	return s.commit(ctx, Snapshot{})
}

// Snapshot returns a copy of the current lines in insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Clone()
}

// TotalItems sums quantities across the cart.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalItems()
}

// TotalPrice sums line totals exactly; callers round only for display.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalPrice()
}

// commit persists the next snapshot and only then makes it visible. A
// failed write leaves memory and disk on the previous snapshot together.
func (s *Store) commit(ctx context.Context, next Snapshot) error {
	if err := s.repo.Replace(ctx, next); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "cart snapshot write failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	s.lines = next
	return nil
}
