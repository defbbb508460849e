package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Pratikmahatara/Shoe/internal/cart"
	"github.com/Pratikmahatara/Shoe/internal/domain"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
	"github.com/Pratikmahatara/Shoe/pkg/tracing"
	"github.com/Pratikmahatara/Shoe/pkg/validator"
)

var tracer = tracing.Tracer("github.com/Pratikmahatara/Shoe/internal/checkout")

// CartRedirect is where a surface sends a shopper whose cart is empty.
const CartRedirect = "/cart"

// Form is the shipping form of a checkout.
type Form = domain.Customer

// State is a checkout session state.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Outcome is how a submission ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Result reports a submission that reached the order API.
type Result struct {
	Outcome Outcome `json:"outcome"`
	OrderID int64   `json:"order_id,omitempty"`
	Form    Form    `json:"form"`
	Err     error   `json:"-"`
}

// View is what a checkout surface renders.
type View struct {
	State    State              `json:"state"`
	Form     Form               `json:"form"`
	OrderID  int64              `json:"order_id,omitempty"`
	Error    string             `json:"error,omitempty"`
	Summary  domain.CartSummary `json:"summary"`
	Redirect string             `json:"redirect,omitempty"`
}

// CompletionNotifier is told about every successful order.
type CompletionNotifier interface {
	CheckoutCompleted(ctx context.Context, cartID string, order domain.OrderRequest, conf domain.OrderConfirmation) error
}

// Session is one shopper's checkout. Editing moves to Submitting on submit,
// then to Success or Failed. Failed goes back to Editing on the next
// attempt with the form kept. Success is terminal.
type Session struct {
	store    *cart.Store
	orders   OrderPlacer
	notifier CompletionNotifier
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	form    Form
	orderID int64
	lastErr error
	closed  bool
}

// NewSession starts a session in Editing.
func NewSession(store *cart.Store, orders OrderPlacer, notifier CompletionNotifier, logger *slog.Logger) *Session {
	return &Session{
		store:    store,
		orders:   orders,
		notifier: notifier,
		logger:   logger.With(slog.String("cart_id", store.ID())),
		state:    StateEditing,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View snapshots the session together with a fresh cart summary. An empty
// cart outside Success carries a redirect to the cart page.
func (s *Session) View(ctx context.Context) (View, error) {
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:   s.state,
		Form:    s.form,
		OrderID: s.orderID,
		Summary: summary,
	}
	if s.lastErr != nil && s.state == StateFailed {
		v.Error = OrderFailed(s.lastErr).Message
	}
	if len(summary.Items) == 0 && s.state != StateSuccess {
		v.Redirect = CartRedirect
	}
	return v, nil
}

// Submit places the order for the current cart with form. Errors are
// returned for rejected preconditions (invalid form, empty cart, a
// submission already running, a finished or closed session). Once the
// order API has been called the outcome is reported in the Result.
//
// The result is dropped when ctx is cancelled or the session is closed
// while the request is in flight. An order the API accepted still clears
// the cart and is announced; a closed session keeps its state.
func (s *Session) Submit(ctx context.Context, form Form) (res Result, err error) {
	res.Form = form
	if err := validator.Validate(form); err != nil {
		return res, err
	}

	prev, err := s.begin(form)
	if err != nil {
		return res, err
	}

	items, err := s.store.Read(ctx)
	if err != nil {
		s.abort(prev)
		return res, err
	}
	if len(items) == 0 {
		s.abort(prev)
		return res, EmptyCart()
	}

	order := domain.BuildOrderRequest(form, items)

	ctx, span := tracer.Start(ctx, "checkout.submit")
	span.SetAttributes(attribute.Int("checkout.items", len(order.Items)))
	start := time.Now()
	conf, placeErr := s.orders.PlaceOrder(ctx, order)
	submitDuration.Observe(time.Since(start).Seconds())
	defer func() {
		submissionsTotal.WithLabelValues(string(res.Outcome)).Inc()
		tracing.End(span, res.Err)
	}()

	if placeErr == nil {
		// The order exists upstream whatever happened to the caller, so
		// the cart is cleared even when the result itself is dropped.
		s.complete(context.WithoutCancel(ctx), order, conf)
	}

	s.mu.Lock()
	closed := s.closed
	switch {
	case placeErr == nil && !closed:
		s.state = StateSuccess
		s.orderID = conf.ID
		s.lastErr = nil
	case placeErr != nil && !closed && ctx.Err() != nil:
		s.state = prev
	case placeErr != nil && !closed:
		s.state = StateFailed
		s.lastErr = placeErr
	}
	s.mu.Unlock()

	if closed || ctx.Err() != nil {
		s.logger.InfoContext(ctx, "checkout result dropped",
			slog.Bool("order_placed", placeErr == nil),
		)
		res.Outcome = OutcomeCancelled
		return res, nil
	}

	if placeErr != nil {
		s.logger.WarnContext(ctx, "checkout failed", slog.String("error", placeErr.Error()))
		res.Outcome = OutcomeFailed
		res.Err = placeErr
		return res, nil
	}

	res.Outcome = OutcomeSuccess
	res.OrderID = conf.ID
	return res, nil
}

// complete clears the cart and announces an accepted order.
func (s *Session) complete(ctx context.Context, order domain.OrderRequest, conf domain.OrderConfirmation) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.Int64("order_id", conf.ID),
			slog.String("error", err.Error()),
		)
	}
	if s.notifier != nil {
		if err := s.notifier.CheckoutCompleted(ctx, s.store.ID(), order, conf); err != nil {
			s.logger.WarnContext(ctx, "checkout completion notification failed", slog.String("error", err.Error()))
		}
	}
}

// begin moves the session into Submitting and returns the state to restore
// if the attempt is abandoned before the order API is called.
func (s *Session) begin(form Form) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return "", fmt.Errorf("submit: %w: %w", ErrSessionClosed, apperrors.ErrConflict)
	case s.state == StateSubmitting:
		return "", apperrors.Conflict("an order is already being submitted")
	case s.state == StateSuccess:
		return "", apperrors.Conflict("the order has already been placed")
	}

	if s.state == StateFailed {
		s.state = StateEditing
	}
	prev := s.state
	s.state = StateSubmitting
	s.form = form
	return prev, nil
}

func (s *Session) abort(prev State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.state = prev
	}
}

// Close tears the session down. A submission still in flight has its
// result dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IsOrderFailure reports whether err came from the order API rather than a
// rejected precondition.
func IsOrderFailure(err error) bool {
	return errors.Is(err, ErrOrderRejected) || errors.Is(err, ErrOrderUnavailable)
}
