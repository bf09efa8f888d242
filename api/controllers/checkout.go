package controllers

import (
	"net/http"

	"github.com/corelia-app/corelia-cart/api/responses"
	"github.com/corelia-app/corelia-cart/internal/checkout"
	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
	"github.com/corelia-app/corelia-cart/pkg/logger"
)

// CheckoutResult is the public shape of a settled purchase.
type CheckoutResult struct {
	ReceiptID string `json:"receipt_id"`
	Lines     int    `json:"lines"`
	Items     int    `json:"items"`
	Total     string `json:"total"`
}

// Checkout settles the cart against the marketplace.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := svc.Purchase(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, CheckoutResult{
			ReceiptID: result.ReceiptID,
			Lines:     result.Lines,
			Items:     result.Items,
			Total:     result.Total.StringFixed(2),
		})
	}
}
