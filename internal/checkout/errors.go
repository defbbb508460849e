package checkout

import (
	"errors"
	"net/http"

	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
)

var (
	// ErrOrderRejected means the order API answered with a non-2xx status.
	ErrOrderRejected = errors.New("order rejected")
	// ErrOrderUnavailable means no response was received from the order API.
	ErrOrderUnavailable = errors.New("order service unavailable")
	// ErrSessionClosed is returned by a session that has been torn down.
	ErrSessionClosed = errors.New("checkout session closed")
)

// EmptyCart is returned when checkout is attempted with nothing in the cart.
func EmptyCart() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "EMPTY_CART",
		Message: "the cart is empty",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

// OrderFailed reports a failed submission to the shopper.
func OrderFailed(err error) *apperrors.AppError {
	msg := "the order could not be placed, please try again"
	if errors.Is(err, ErrOrderUnavailable) {
		msg = "the order service could not be reached, please try again"
	}
	return &apperrors.AppError{
		Code:    "ORDER_FAILED",
		Message: msg,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}
