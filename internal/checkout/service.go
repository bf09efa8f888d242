// Package checkout settles the local cart against the Corelia backend:
// stock is deducted per vendor, purchases land in the customer's
// inventory, and a receipt is filed. The cart is only cleared once every
// remote step has succeeded.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corelia-app/corelia-cart/internal/cart"
	"github.com/corelia-app/corelia-cart/pkg/corelia"
	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
	"github.com/corelia-app/corelia-cart/pkg/logger"
	"github.com/corelia-app/corelia-cart/pkg/metrics"
)

// Step names as reported in logs and failure metrics.
const (
	StepDeductStock   = "deduct_stock"
	StepAddInventory  = "add_inventory"
	StepCreateReceipt = "create_receipt"
	StepClearCart     = "clear_cart"
)

type backend interface {
	DeductStock(ctx context.Context, deduction corelia.StockDeduction) error
	AddToInventory(ctx context.Context, purchase corelia.Purchase) error
	CreateReceipt(ctx context.Context, receipt corelia.Receipt) (string, error)
}

type cartAccess interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) error
}

// Result summarizes a completed settlement.
type Result struct {
	ReceiptID string
	Lines     int
	Items     int
	Total     decimal.Decimal
}

// Service executes checkout orchestration.
type Service interface {
	Purchase(ctx context.Context) (*Result, error)
}

type service struct {
	store   cartAccess
	backend backend
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewService builds the checkout service. Metrics and logger are optional.
func NewService(store cartAccess, client backend, logg *logger.Logger, checkoutMetrics *metrics.CheckoutMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &service{
		store:   store,
		backend: client,
		logg:    logg,
		metrics: checkoutMetrics,
		now:     time.Now,
	}, nil
}

// Purchase runs the settlement steps in order and stops at the first
// failure. A failed settlement leaves the cart untouched so the customer
// can retry; nothing already sent upstream is rolled back.
func (s *service) Purchase(ctx context.Context) (*Result, error) {
	started := s.now()

	snapshot := s.store.Snapshot()
	if len(snapshot) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "add items to cart before checkout")
	}

	if err := s.deductStock(ctx, snapshot); err != nil {
		s.metrics.IncFailure(StepDeductStock)
		return nil, err
	}
	if err := s.addPurchases(ctx, snapshot); err != nil {
		s.metrics.IncFailure(StepAddInventory)
		return nil, err
	}
	receiptID, err := s.fileReceipt(ctx, snapshot)
	if err != nil {
		s.metrics.IncFailure(StepCreateReceipt)
		return nil, err
	}

	result := &Result{
		ReceiptID: receiptID,
		Lines:     len(snapshot),
		Items:     snapshot.TotalItems(),
		Total:     snapshot.TotalPrice(),
	}

	// The purchase exists upstream at this point. A failed local clear
	// must not hide the receipt, so it rides along in the error details.
	if err := s.store.Clear(ctx); err != nil {
		s.metrics.IncFailure(StepClearCart)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purchase recorded but cart not cleared").
			WithDetails(map[string]any{"receipt_id": receiptID})
	}

	s.metrics.ObserveDuration(s.now().Sub(started))
	s.metrics.IncSuccess()
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"receipt_id": receiptID,
			"lines":      result.Lines,
			"items":      result.Items,
			"total":      result.Total.StringFixed(2),
		}), "checkout settled")
	}
	return result, nil
}

func (s *service) deductStock(ctx context.Context, snapshot cart.Snapshot) error {
	for _, batch := range cart.TrackedBatches(snapshot) {
		items := make([]corelia.DeductionItem, 0, len(batch.Items))
		for _, item := range batch.Items {
			items = append(items, corelia.DeductionItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
			})
		}
		err := s.backend.DeductStock(ctx, corelia.StockDeduction{
			VendorID: batch.VendorID,
			Items:    items,
		})
		if err != nil {
			s.logStepFailure(ctx, StepDeductStock, batch.VendorID, err)
			return pkgerrors.Wrap(pkgerrors.CodeStockDeduction, err, "deduct stock for vendor "+batch.VendorID).
				WithDetails(map[string]any{"vendor_id": batch.VendorID})
		}
	}
	return nil
}

func (s *service) addPurchases(ctx context.Context, snapshot cart.Snapshot) error {
	for _, line := range snapshot {
		err := s.backend.AddToInventory(ctx, corelia.Purchase{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Category:   line.Category,
			UnitPrice:  line.UnitPrice,
			Unit:       line.Unit,
			Quantity:   line.Quantity,
			VendorID:   line.Vendor.ID,
			VendorName: line.Vendor.Name,
		})
		if err != nil {
			s.logStepFailure(ctx, StepAddInventory, line.Vendor.ID, err)
			return pkgerrors.Wrap(pkgerrors.CodeInventoryAdd, err, "record purchase of "+line.Name).
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
	}
	return nil
}

func (s *service) fileReceipt(ctx context.Context, snapshot cart.Snapshot) (string, error) {
	label, vendorID := cart.ReceiptVendor(snapshot)

	items := make([]corelia.ReceiptItem, 0, len(snapshot))
	for _, line := range snapshot {
		items = append(items, corelia.ReceiptItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Category:   line.Category,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Total:      line.LineTotal(),
			VendorID:   line.Vendor.ID,
			VendorName: line.Vendor.Name,
		})
	}

	receiptID, err := s.backend.CreateReceipt(ctx, corelia.Receipt{
		Items:      items,
		Total:      snapshot.TotalPrice(),
		VendorName: label,
		VendorID:   vendorID,
	})
	if err != nil {
		s.logStepFailure(ctx, StepCreateReceipt, vendorID, err)
		return "", pkgerrors.Wrap(pkgerrors.CodeReceiptCreation, err, "file receipt")
	}
	return receiptID, nil
}

func (s *service) logStepFailure(ctx context.Context, step, vendorID string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithCheckoutStep(ctx, step)
	if vendorID != "" {
		ctx = s.logg.WithVendorID(ctx, vendorID)
	}
	s.logg.Error(ctx, "checkout step failed", err)
}
