package cart

import (
	"net/http"
	"strings"

	"github.com/corelia-app/corelia-cart/api/responses"
	"github.com/corelia-app/corelia-cart/api/validators"
	cartstore "github.com/corelia-app/corelia-cart/internal/cart"
	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
	"github.com/corelia-app/corelia-cart/pkg/logger"
)

// Fetch returns the full cart view.
func Fetch(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartView(store.Snapshot()))
	}
}

// AddItem merges a product into the cart and returns the updated view.
func AddItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.UnitPrice.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must not be negative"))
			return
		}

		if err := store.AddItem(r.Context(), payload.toCandidate()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(store.Snapshot()))
	}
}

// UpdateQuantity sets an absolute quantity on one line.
func UpdateQuantity(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := store.UpdateQuantity(r.Context(), payload.ProductID, vendorRefFor(payload.VendorID), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store.Snapshot()))
	}
}

// RemoveItem deletes one line, addressed by product_id and vendor_id
// query parameters.
func RemoveItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		productID := strings.TrimSpace(r.URL.Query().Get("product_id"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id query parameter required"))
			return
		}
		vendorID := strings.TrimSpace(r.URL.Query().Get("vendor_id"))

		if err := store.RemoveItem(r.Context(), productID, vendorRefFor(vendorID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store.Snapshot()))
	}
}

// Clear empties the cart.
func Clear(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store.Snapshot()))
	}
}
