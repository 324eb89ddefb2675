package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estore-labs/go-estore-orders/internal/auth"
	"github.com/estore-labs/go-estore-orders/internal/events"
	"github.com/estore-labs/go-estore-orders/internal/idempotency"
)

// RecordStore is the persistence contract the service drives. The DynamoDB
// Store implements it; tests substitute an in-memory fake with the same
// conditional-write semantics.
type RecordStore interface {
	Create(ctx context.Context, order *Order, idem *idempotency.Record) error
	Get(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, next OrderStatus, expectedVersion int64) (*Order, error)
	UpdateReturnStatus(ctx context.Context, orderID string, itemIndex int, expected, next ReturnStatus, reason, details string, expectedVersion int64) (*Order, error)
}

// EventSink receives order events for notification fan-out. Publishing is
// best-effort; the store remains the source of truth.
type EventSink interface {
	Publish(ctx context.Context, ev events.Envelope) error
}

// Counter counts operational metrics.
type Counter interface {
	Count(ctx context.Context, metric string)
}

// Metric names the service emits.
const (
	MetricOrdersCreated     = "OrdersCreated"
	MetricStatusTransitions = "StatusTransitions"
	MetricReturnsRequested  = "ReturnsRequested"
	MetricReturnsResolved   = "ReturnsResolved"
)

// NewItemInput is one purchased line in a create request.
type NewItemInput struct {
	ProductID       string
	Name            string
	Quantity        int
	Price           float64
	DiscountedPrice float64
	Image           string
}

// CreateOrderInput carries everything needed to place an order. Order status
// and item return state are not inputs: every order starts Processing with
// all items NotReturned.
type CreateOrderInput struct {
	BillingData      BillingData
	Items            []NewItemInput
	ShippingFee      float64
	GrandTotal       float64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// Service orchestrates order creation, status transitions and the return
// workflow. It is the only writer of order and item state.
type Service struct {
	store   RecordStore
	events  EventSink
	metrics Counter
	log     *zap.Logger
	idemTTL time.Duration
	nowFunc func() time.Time
}

// ServiceConfig groups Service dependencies. Events, Metrics and Logger are
// optional.
type ServiceConfig struct {
	Store          RecordStore
	Events         EventSink
	Metrics        Counter
	Logger         *zap.Logger
	IdempotencyTTL time.Duration
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.IdempotencyTTL
	if ttl == 0 {
		ttl = 48 * time.Hour
	}
	return &Service{
		store:   cfg.Store,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		log:     log,
		idemTTL: ttl,
		nowFunc: time.Now,
	}
}

// Create validates and persists a new order in one atomic write. When
// idemKey is set, the idempotency record is created in the same transaction;
// a replayed key fails with ErrDuplicateRequest and the handler replays the
// stored response instead.
func (s *Service) Create(ctx context.Context, principal auth.Principal, in CreateOrderInput, idemKey string) (*Order, error) {
	if in.BillingData.Email == "" {
		return nil, fmt.Errorf("%w: billing data with an email is required", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if in.GrandTotal <= 0 {
		return nil, fmt.Errorf("%w: grand total is required", ErrValidation)
	}
	if !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	if !in.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, in.PaymentStatus)
	}

	now := s.nowFunc()
	order := &Order{
		OrderID:          uuid.NewString(),
		BillingData:      in.BillingData,
		BillingEmail:     strings.ToLower(in.BillingData.Email),
		Items:            make([]OrderItem, 0, len(in.Items)),
		ShippingFee:      in.ShippingFee,
		GrandTotal:       in.GrandTotal,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    in.PaymentStatus,
		OrderStatus:      OrderProcessing,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		GatewaySignature: in.GatewaySignature,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, OrderItem{
			ItemID:          uuid.NewString(),
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			Price:           it.Price,
			DiscountedPrice: it.DiscountedPrice,
			Image:           it.Image,
			ReturnStatus:    ReturnNone,
		})
	}

	var idem *idempotency.Record
	if idemKey != "" {
		idem = idempotency.NewRecord(idemKey, order.OrderID, now, s.idemTTL)
	}

	if err := s.store.Create(ctx, order, idem); err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.count(ctx, MetricOrdersCreated)
	s.publish(ctx, events.Envelope{
		Type:    events.TypeOrderCreated,
		OrderID: order.OrderID,
		Email:   order.BillingEmail,
	})
	return order, nil
}

// TransitionOrderStatus sets the order status. The contract is deliberately
// permissive: any declared status may be assigned directly, with no ordering
// rule between states, so Delivered followed by Cancelled succeeds. Requires
// the administrative role.
func (s *Service) TransitionOrderStatus(ctx context.Context, principal auth.Principal, orderID string, target OrderStatus) (*Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: invalid or missing order status %q", ErrValidation, target)
	}
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: order status updates require the admin role", ErrForbidden)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, orderID, target, order.Version)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.count(ctx, MetricStatusTransitions)
	s.publish(ctx, events.Envelope{
		Type:        events.TypeOrderStatusChanged,
		OrderID:     updated.OrderID,
		Email:       updated.BillingEmail,
		OrderStatus: string(updated.OrderStatus),
	})
	return updated, nil
}

// RequestReturn starts the return lifecycle for one item. Only the customer
// the order is billed to (or an admin) may request it, and only from
// NotReturned; the transition is persisted as a compare-and-swap on the
// item's current status.
func (s *Service) RequestReturn(ctx context.Context, principal auth.Principal, orderID, itemID, reason, details string) (*Order, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: return reason is required", ErrValidation)
	}
	if err := validateID(itemID); err != nil {
		return nil, err
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && !strings.EqualFold(principal.Email, order.BillingEmail) {
		return nil, fmt.Errorf("%w: order belongs to a different customer", ErrForbidden)
	}

	idx := order.Item(itemID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	if cur := order.Items[idx].ReturnStatus; cur != ReturnNone {
		return nil, &InvalidTransitionError{Current: cur}
	}

	updated, err := s.store.UpdateReturnStatus(ctx, orderID, idx, ReturnNone, ReturnRequested, reason, details, order.Version)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, s.refineConflict(ctx, orderID, itemID, ReturnNone)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.count(ctx, MetricReturnsRequested)
	s.publish(ctx, events.Envelope{
		Type:         events.TypeReturnRequested,
		OrderID:      updated.OrderID,
		Email:        updated.BillingEmail,
		ItemID:       itemID,
		ReturnStatus: string(ReturnRequested),
	})
	return updated, nil
}

// ResolveReturn is the admin decision on a requested return: Returned or
// ReturnRejected, both terminal. Only items currently in ReturnRequested can
// be resolved, enforced by the same compare-and-swap discipline.
func (s *Service) ResolveReturn(ctx context.Context, principal auth.Principal, orderID, itemID string, decision ReturnStatus) (*Order, error) {
	if !decision.ValidDecision() {
		return nil, fmt.Errorf("%w: decision must be %q or %q", ErrValidation, Returned, ReturnRejected)
	}
	if err := validateID(itemID); err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: return resolution requires the admin role", ErrForbidden)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	idx := order.Item(itemID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	item := order.Items[idx]
	if item.ReturnStatus != ReturnRequested {
		return nil, &InvalidTransitionError{Current: item.ReturnStatus}
	}

	updated, err := s.store.UpdateReturnStatus(ctx, orderID, idx, ReturnRequested, decision, item.ReturnReason, item.ReturnDetails, order.Version)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, s.refineConflict(ctx, orderID, itemID, ReturnRequested)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.count(ctx, MetricReturnsResolved)
	s.publish(ctx, events.Envelope{
		Type:         events.TypeReturnResolved,
		OrderID:      updated.OrderID,
		Email:        updated.BillingEmail,
		ItemID:       itemID,
		ReturnStatus: string(decision),
	})
	return updated, nil
}

// Get fetches one order. Customers can only see their own orders.
func (s *Service) Get(ctx context.Context, principal auth.Principal, orderID string) (*Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && !strings.EqualFold(principal.Email, order.BillingEmail) {
		return nil, fmt.Errorf("%w: order belongs to a different customer", ErrForbidden)
	}
	return order, nil
}

// List returns every order, newest first. Admin only.
func (s *Service) List(ctx context.Context, principal auth.Principal) ([]Order, error) {
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: listing all orders requires the admin role", ErrForbidden)
	}
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

// ListMine returns the orders billed to the principal's email, newest first.
func (s *Service) ListMine(ctx context.Context, principal auth.Principal) ([]Order, error) {
	out, err := s.store.ListByEmail(ctx, strings.ToLower(principal.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

// load validates the id and fetches the order, mapping absence to
// ErrNotFound.
func (s *Service) load(ctx context.Context, orderID string) (*Order, error) {
	if err := validateID(orderID); err != nil {
		return nil, err
	}
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// refineConflict re-reads after a lost conditional write. If the item's
// return status moved, the caller gets an InvalidTransitionError naming the
// state that beat them; otherwise plain ErrConflict (safe to retry).
func (s *Service) refineConflict(ctx context.Context, orderID, itemID string, expected ReturnStatus) error {
	order, err := s.store.Get(ctx, orderID)
	if err != nil || order == nil {
		return ErrConflict
	}
	idx := order.Item(itemID)
	if idx < 0 {
		return ErrConflict
	}
	if cur := order.Items[idx].ReturnStatus; cur != expected {
		return &InvalidTransitionError{Current: cur}
	}
	return ErrConflict
}

func (s *Service) publish(ctx context.Context, ev events.Envelope) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.nowFunc()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed",
			zap.String("event_type", string(ev.Type)),
			zap.String("order_id", ev.OrderID),
			zap.Error(err))
	}
}

func (s *Service) count(ctx context.Context, metric string) {
	if s.metrics != nil {
		s.metrics.Count(ctx, metric)
	}
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", ErrValidation, id)
	}
	return nil
}
