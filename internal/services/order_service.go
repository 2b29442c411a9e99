// Package services – OrderService
//
// OrderService turns a validated cart into an order. The header, every line
// and the optional idempotency record are written in one transaction; any
// failure rolls all of them back. Totals are computed here in decimal
// arithmetic and never accepted from the client.
//
// After commit the order is re-read with game titles and an order.created
// event is published. Publishing is best effort: a broker failure is logged
// and does not fail the request (the stores are eventually consistent).
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/events"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

// errReplay aborts a transaction whose idempotency key was claimed concurrently.
var errReplay = errors.New("idempotent replay")

// OrderService coordinates order persistence and events.
type OrderService struct {
	DB             *gorm.DB
	Events         events.Publisher // nil disables publishing
	IdempotencyTTL time.Duration
}

// Create places an order for the caller, or for in.UserID when the caller is
// an admin. When idemKey is set and a live record exists for (caller, key),
// the original order is returned with replayed=true and nothing is written.
func (s *OrderService) Create(ctx context.Context, actor auth.Principal, in CreateOrderInput, idemKey string) (order *domain.Order, replayed bool, err error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("user.id", actor.ID),
			attribute.Int("order.lines", len(in.Items)),
		),
	)
	defer span.End()

	if err := validateStruct(in); err != nil {
		return nil, false, err
	}

	owner := actor.ID
	if in.UserID != nil && *in.UserID != actor.ID {
		if !actor.IsAdmin() {
			return nil, false, ErrForbidden
		}
		owner = *in.UserID
	}

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" {
		if o, ok, err := s.replay(ctx, actor.ID, idemKey); err != nil || ok {
			return o, ok, err
		}
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, l := range in.Items {
		items = append(items, domain.OrderItem{
			GameID:    l.GameID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Round(2),
		})
	}
	total := domain.OrderTotal(items)

	var created *domain.Order
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := repo.CreateOrder(ctx, tx, owner, total, items)
		if err != nil {
			return err
		}
		if idemKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, actor.ID, repo.IdempotencyScopeOrders, idemKey, o.ID, 201, s.ttl()); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errReplay
				}
				return err
			}
		}
		created = o
		return nil
	})
	switch {
	case errors.Is(err, errReplay):
		o, ok, rerr := s.replay(ctx, actor.ID, idemKey)
		if rerr == nil && !ok {
			rerr = ErrDuplicate
		}
		return o, ok, rerr
	case err != nil && repo.IsForeignKeyViolation(err):
		return nil, false, ErrInvalidReference
	case err != nil:
		return nil, false, err
	}

	span.SetAttributes(attribute.Int64("order.id", created.ID))
	ordersCreated.Inc()
	f, _ := total.Float64()
	orderValue.Add(f)

	full, err := repo.GetOrder(ctx, s.DB, created.ID)
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, full)
	return full, false, nil
}

func (s *OrderService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

// replay loads the order recorded under (userID, key) if the record is live.
func (s *OrderService) replay(ctx context.Context, userID int64, key string) (*domain.Order, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, repo.IdempotencyScopeOrders, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	o, err := repo.GetOrder(ctx, s.DB, rec.ResourceID)
	if err != nil {
		return nil, false, err
	}
	orderReplays.Inc()
	return o, true, nil
}

func (s *OrderService) publish(ctx context.Context, o *domain.Order) {
	if s.Events == nil {
		return
	}
	evt := events.OrderCreated{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     make([]events.OrderCreatedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		evt.Items = append(evt.Items, events.OrderCreatedItem{GameID: it.GameID, Quantity: it.Quantity})
	}
	if err := s.Events.PublishOrderCreated(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("order_id", o.ID).Msg("order.created not published")
	}
}

// Get returns one order with its lines. Only the owner or an admin may read it.
func (s *OrderService) Get(ctx context.Context, actor auth.Principal, id int64) (*domain.Order, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("order.id", id)),
	)
	defer span.End()

	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	o, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListAll returns every order, newest first, with the owner's email.
func (s *OrderService) ListAll(ctx context.Context, actor auth.Principal) ([]domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	out, err := repo.ListOrders(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

// ListByUser returns one user's orders, newest first. Users may only list
// their own orders.
func (s *OrderService) ListByUser(ctx context.Context, actor auth.Principal, userID int64) ([]domain.Order, error) {
	if userID <= 0 {
		return nil, invalid("userId", "must be a positive integer")
	}
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	out, err := repo.ListOrdersByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

// Replayed reports whether a live idempotency record exists for (userID, key).
// The HTTP layer uses it to let retries bypass rate limiting.
func (s *OrderService) Replayed(ctx context.Context, userID int64, key string) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, repo.IdempotencyScopeOrders, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PurgeExpiredKeys deletes idempotency records past their TTL.
func (s *OrderService) PurgeExpiredKeys(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, time.Now().UTC())
}
