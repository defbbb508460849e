package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Pratikmahatara/Shoe/internal/checkout"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
	"github.com/Pratikmahatara/Shoe/pkg/httpclient"
	"github.com/Pratikmahatara/Shoe/pkg/httputil"
	"github.com/Pratikmahatara/Shoe/pkg/validator"
)

// CheckoutHandler serves the checkout surface.
type CheckoutHandler struct {
	manager *checkout.Manager
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(m *checkout.Manager, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{manager: m, logger: logger}
}

// orderFailure is attached to ORDER_FAILED errors so the surface can keep
// the form and show the order API's own messages.
type orderFailure struct {
	Form     checkout.Form   `json:"form"`
	Upstream json.RawMessage `json:"upstream,omitempty"`
}

// GetCheckout handles GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.Session(cartIDFromRequest(r)).View(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if view.Redirect != "" {
		httputil.WriteErrorDetails(w, r, checkout.EmptyCart(), view, h.logger)
		return
	}
	httputil.WriteData(w, view)
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := validator.DecodeAndValidate(r, &form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.manager.Session(cartIDFromRequest(r)).Submit(r.Context(), form)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	switch res.Outcome {
	case checkout.OutcomeSuccess:
		httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
	case checkout.OutcomeFailed:
		details := orderFailure{Form: res.Form}
		var respErr *httpclient.ResponseError
		if errors.As(res.Err, &respErr) {
			details.Upstream = respErr.Body
		}
		httputil.WriteErrorDetails(w, r, checkout.OrderFailed(res.Err), details, h.logger)
	default:
		httputil.WriteError(w, r, apperrors.Conflict("checkout was cancelled"), h.logger)
	}
}

// CloseCheckout handles DELETE /api/v1/checkout
func (h *CheckoutHandler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	h.manager.Close(cartIDFromRequest(r))
	w.WriteHeader(http.StatusNoContent)
}
