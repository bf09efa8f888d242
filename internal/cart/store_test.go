package cart

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestAddItemMergesByCompositeKey(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	vendor := TrackedVendor("shop-1", "Green Basket")

	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: vendor, Name: "Milk", UnitPrice: dec("3.99"), Quantity: 2})
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: vendor, Name: "Milk", UnitPrice: dec("3.99"), Quantity: 3})

	snap := store.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected one merged line, got %d", len(snap))
	}
	if snap[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", snap[0].Quantity)
	}
}

func TestAddItemKeepsDistinctVendorsApart(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: TrackedVendor("shop-1", "A"), Name: "Milk", Quantity: 1})
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: TrackedVendor("shop-2", "B"), Name: "Milk", Quantity: 1})

	if got := len(store.Snapshot()); got != 2 {
		t.Fatalf("same product from two shops must stay two lines, got %d", got)
	}
}

func TestAddItemUntrackedVendorsShareALine(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: UntrackedVendor("Catalog A"), Quantity: 1})
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: UntrackedVendor("Catalog B"), Quantity: 2})

	snap := store.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("untracked vendors share identity, expected one line got %d", len(snap))
	}
	if snap[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", snap[0].Quantity)
	}
}

func TestAddItemCorrectsBadQuantity(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: UntrackedVendor(""), Quantity: 0})
	mustAdd(t, store, Candidate{ProductID: "p-2", Vendor: UntrackedVendor(""), Quantity: -4})

	snap := store.Snapshot()
	for _, line := range snap {
		if line.Quantity != 1 {
			t.Fatalf("expected corrected quantity 1 for %s, got %d", line.ProductID, line.Quantity)
		}
	}
}

func TestUpdateQuantityClampsAtOne(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	vendor := TrackedVendor("shop-1", "A")
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: vendor, Quantity: 4})

	for _, bad := range []int{0, -5} {
		if err := store.UpdateQuantity(context.Background(), "p-1", vendor, bad); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.Snapshot()[0].Quantity; got != 1 {
			t.Fatalf("quantity %d should clamp to 1, got %d", bad, got)
		}
	}
}

func TestRemoveAndUpdateMissingLineAreNoOps(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	store := newTestStore(t, repo)
	vendor := TrackedVendor("shop-1", "A")
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: vendor, Quantity: 1})
	writes := repo.replaceCalls

	if err := store.RemoveItem(context.Background(), "nope", vendor); err != nil {
		t.Fatalf("remove of missing line errored: %v", err)
	}
	if err := store.UpdateQuantity(context.Background(), "nope", vendor, 3); err != nil {
		t.Fatalf("update of missing line errored: %v", err)
	}
	if repo.replaceCalls != writes {
		t.Fatalf("no-ops must not rewrite the snapshot")
	}
	if len(store.Snapshot()) != 1 {
		t.Fatalf("cart changed by no-op")
	}
}

func TestTotals(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: UntrackedVendor(""), UnitPrice: dec("10"), Quantity: 2})
	mustAdd(t, store, Candidate{ProductID: "p-2", Vendor: UntrackedVendor(""), UnitPrice: dec("5"), Quantity: 1})
	mustAdd(t, store, Candidate{ProductID: "p-3", Vendor: UntrackedVendor(""), UnitPrice: dec("0.10"), Quantity: 3})

	if got := store.TotalItems(); got != 6 {
		t.Fatalf("expected 6 items, got %d", got)
	}
	if got := store.TotalPrice(); !got.Equal(dec("25.30")) {
		t.Fatalf("expected total 25.30, got %s", got)
	}
}

func TestTotalPriceAvoidsFloatDrift(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	for i := 0; i < 100; i++ {
		mustAdd(t, store, Candidate{ProductID: productID(i), Vendor: UntrackedVendor(""), UnitPrice: dec("0.10"), Quantity: 1})
	}
	if got := store.TotalPrice(); !got.Equal(dec("10")) {
		t.Fatalf("expected exactly 10, got %s", got)
	}
}

func TestMutationsWriteThrough(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	store := newTestStore(t, repo)
	vendor := TrackedVendor("shop-1", "A")

	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: vendor, Quantity: 2})
	if len(repo.saved) != 1 || repo.saved[0].Quantity != 2 {
		t.Fatalf("persisted snapshot out of sync after add: %+v", repo.saved)
	}

	if err := store.UpdateQuantity(context.Background(), "p-1", vendor, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saved[0].Quantity != 7 {
		t.Fatalf("persisted snapshot out of sync after update: %+v", repo.saved)
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("persisted snapshot out of sync after clear: %+v", repo.saved)
	}
}

func TestFailedPersistLeavesMemoryUnchanged(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	store := newTestStore(t, repo)
	mustAdd(t, store, Candidate{ProductID: "p-1", Vendor: UntrackedVendor(""), Quantity: 1})

	repo.replaceErr = errors.New("disk full")
	err := store.AddItem(context.Background(), Candidate{ProductID: "p-2", Vendor: UntrackedVendor(""), Quantity: 1})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected error code: %v", err)
	}
	if got := len(store.Snapshot()); got != 1 {
		t.Fatalf("memory must not run ahead of disk; got %d lines", got)
	}
}

func TestNewStoreRestoresSnapshot(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{saved: Snapshot{
		{ProductID: "p-1", Vendor: TrackedVendor("shop-1", "A"), Name: "Milk", UnitPrice: dec("3.99"), Quantity: 2},
		{ProductID: "p-2", Vendor: UntrackedVendor("Catalog"), Name: "Rice", UnitPrice: dec("12"), Quantity: 1},
	}}
	store, err := NewStore(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()
	if len(snap) != 2 || snap[0].ProductID != "p-1" || snap[1].ProductID != "p-2" {
		t.Fatalf("restore lost lines or order: %+v", snap)
	}
	if store.TotalItems() != 3 {
		t.Fatalf("restore lost quantities")
	}
}

func newTestStore(t *testing.T, repo *stubRepo) *Store {
	t.Helper()
	if repo == nil {
		repo = &stubRepo{}
	}
	store, err := NewStore(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	return store
}

func mustAdd(t *testing.T, store *Store, candidate Candidate) {
	t.Helper()
	if err := store.AddItem(context.Background(), candidate); err != nil {
		t.Fatalf("AddItem(%s): %v", candidate.ProductID, err)
	}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func productID(i int) string {
	return "p-" + string(rune('a'+i%26)) + "-" + string(rune('0'+i/26))
}

type stubRepo struct {
	saved        Snapshot
	replaceCalls int
	replaceErr   error
}

func (s *stubRepo) Load(ctx context.Context) (Snapshot, error) {
	return s.saved.Clone(), nil
}

func (s *stubRepo) Replace(ctx context.Context, snapshot Snapshot) error {
	s.replaceCalls++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.saved = snapshot.Clone()
	return nil
}
