// Package booking turns reservation requests into confirmed, capacity-checked
// and priced bookings, and cancels them with the refund rules.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/clock"
	"ms-booking/internal/inventory"
	"ms-booking/internal/lock"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/pricing"
	"ms-booking/internal/reference"
)

const (
	defaultPersistenceTimeout = 5 * time.Second
	defaultLockWait           = 3 * time.Second

	// insertAttempts bounds retries after the unique reference index rejects
	// an insert.
	insertAttempts = 3
)

type Service struct {
	Store      Store
	Routes     RouteFinder
	Identities IdentityResolver
	Locker     Locker
	Events     EventPublisher
	Clock      clock.Clock
	References *reference.Generator
	Logger     *logger.Logger

	persistenceTimeout time.Duration
	lockWait           time.Duration
}

type Option func(*Service)

func WithLocker(l Locker) Option         { return func(s *Service) { s.Locker = l } }
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.Events = p } }
func WithClock(c clock.Clock) Option     { return func(s *Service) { s.Clock = c } }
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.Logger = l } }
func WithReferences(g *reference.Generator) Option {
	return func(s *Service) { s.References = g }
}

// WithPersistenceTimeout bounds every database round trip, including the
// whole create transaction.
func WithPersistenceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.persistenceTimeout = d
		}
	}
}

// WithLockWait bounds how long a create waits for the route/date lock.
func WithLockWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

func NewService(store Store, routes RouteFinder, identities IdentityResolver, opts ...Option) *Service {
	s := &Service{
		Store:              store,
		Routes:             routes,
		Identities:         identities,
		Locker:             lock.NewKeyed(),
		Events:             nopPublisher{},
		Clock:              clock.Real{},
		References:         reference.NewGenerator(),
		Logger:             logger.Nop(),
		persistenceTimeout: defaultPersistenceTimeout,
		lockWait:           defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return pricing.Date(s.Clock.Now())
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.persistenceTimeout)
}

func (s *Service) findRoute(ctx context.Context, sel Selector) (*models.Route, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	route, err := s.Routes.FindRoute(ctx, sel.From, sel.To, sel.Mode)
	if err != nil {
		return nil, classify(err)
	}
	return route, nil
}

func (s *Service) resolve(ctx context.Context, userID int64) (Identity, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	id, err := s.Identities.Resolve(ctx, userID)
	if err != nil {
		return Identity{}, classify(err)
	}
	return id, nil
}

// Quote prices a request without reserving anything. Past journey dates are
// quoted without discount.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (pricing.Breakdown, error) {
	if err := req.Selector.validate(); err != nil {
		return pricing.Breakdown{}, err
	}
	route, err := s.findRoute(ctx, req.Selector)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	journey, err := req.validate()
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.Quote(pricing.FaresOf(*route), req.ClassType, req.Passengers, journey, s.today()), nil
}

// CreateBooking confirms a booking for userID. The capacity check and the
// insert run in one transaction while holding the route/date lock.
func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateRequest) (*models.Booking, error) {
	if err := req.Selector.validate(); err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, userID); err != nil {
		return nil, err
	}
	route, err := s.findRoute(ctx, req.Selector)
	if err != nil {
		return nil, err
	}
	journey, err := req.validate()
	if err != nil {
		return nil, err
	}
	today := s.today()
	if journey.Before(today) {
		return nil, fmt.Errorf("%w: journey date %s is in the past", ErrInvalidRequest, req.JourneyDate)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.Locker.Lock(lockCtx, lock.Key(route.ID, req.JourneyDate))
	cancel()
	if err != nil {
		return nil, classify(err)
	}
	defer unlock()

	b, err := s.persist(ctx, userID, route, req, journey, today)
	if err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Create for user %d on route %d (%s) failed: %v", userID, route.ID, req.JourneyDate, err))
		return nil, classify(err)
	}

	s.Logger.LogBooking("CREATE", b.Reference, fmt.Sprintf("user %d, %s %s, %d x %s, total %s",
		userID, route.Key(), b.JourneyDate, b.Passengers, b.ClassType, b.TotalPrice.StringFixed(2)))
	s.publish(ctx, models.EventBookingCreated, *b)
	return b, nil
}

func (s *Service) persist(ctx context.Context, userID int64, route *models.Route, req CreateRequest, journey, today time.Time) (*models.Booking, error) {
	var (
		b   *models.Booking
		err error
	)
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		b, err = s.persistOnce(ctx, userID, route, req, journey, today)
		if !errors.Is(err, ErrDuplicateReference) {
			return b, err
		}
		s.Logger.Warn("BOOKING", fmt.Sprintf("Reference collided on insert (attempt %d/%d)", attempt, insertAttempts))
	}
	return nil, fmt.Errorf("%w: %w", ErrReferenceExhausted, err)
}

// persistOnce runs one create transaction. It is detached from the caller's
// cancellation so it either commits or rolls back as a whole. Capacity and
// fares come from the route row read under the lock, not from the lookup that
// chose the route.
func (s *Service) persistOnce(ctx context.Context, userID int64, route *models.Route, req CreateRequest, journey, today time.Time) (*models.Booking, error) {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistenceTimeout)
	defer cancel()

	var created *models.Booking
	err := s.Store.RunInTx(txCtx, func(ctx context.Context, tx Store) error {
		current, err := tx.LockRoute(ctx, route.ID)
		if err != nil {
			return err
		}
		if current.FromCityID != route.FromCityID || current.ToCityID != route.ToCityID || current.Mode != route.Mode {
			return fmt.Errorf("%w: route %d changed while booking", ErrRouteNotFound, route.ID)
		}
		current.FromCity, current.ToCity = route.FromCity, route.ToCity

		ok, err := inventory.NewLedger(tx).HasCapacity(ctx, *current, req.JourneyDate, req.Passengers)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d seats requested on %s for %s", ErrCapacityExceeded, req.Passengers, route.Key(), req.JourneyDate)
		}

		quote := pricing.Quote(pricing.FaresOf(*current), req.ClassType, req.Passengers, journey, today)

		ref, err := s.References.Generate(ctx, tx.ReferenceExists)
		if errors.Is(err, reference.ErrExhausted) {
			return fmt.Errorf("%w: %w", ErrReferenceExhausted, err)
		}
		if err != nil {
			return err
		}

		b := &models.Booking{
			UserID:      userID,
			RouteID:     route.ID,
			Reference:   ref,
			JourneyDate: req.JourneyDate,
			Passengers:  req.Passengers,
			ClassType:   req.ClassType,
			BasePrice:   quote.BasePrice,
			Discount:    quote.Discount,
			TotalPrice:  quote.TotalPrice,
			Status:      models.StatusConfirmed,
			CreatedAt:   s.Clock.Now().UTC(),
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		b.Route = current
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CancelBooking cancels a confirmed booking on behalf of its owner or an
// administrator and records the refund.
func (s *Service) CancelBooking(ctx context.Context, bookingID, actingUserID int64) (*Cancellation, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor, err := s.resolve(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.IsAdmin {
		s.Logger.LogSecurity("CANCEL", fmt.Sprintf("user %d tried to cancel booking %d owned by %d", actor.UserID, b.ID, b.UserID))
		return nil, fmt.Errorf("%w: booking %d belongs to another user", ErrUnauthorized, b.ID)
	}
	if b.Status == models.StatusCancelled {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCancelled, b.Reference)
	}
	if !b.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidRequest, b.Reference, b.Status)
	}

	journey, err := b.Journey()
	if err != nil {
		return nil, fmt.Errorf("booking %d has a malformed journey date: %w", b.ID, err)
	}
	refund := pricing.CancellationRefund(b.TotalPrice, journey, s.today())
	now := s.Clock.Now().UTC()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistenceTimeout)
	changed, err := s.Store.MarkCancelled(sctx, b.ID, refund.Amount, now)
	cancel()
	if err != nil {
		return nil, classify(err)
	}
	if !changed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCancelled, b.Reference)
	}

	b.Status = models.StatusCancelled
	b.RefundAmount.Decimal = refund.Amount
	b.RefundAmount.Valid = true
	b.CancelledAt = &now

	s.Logger.LogBooking("CANCEL", b.Reference, fmt.Sprintf("by user %d, %d days ahead, refund %s (%d%%)",
		actor.UserID, refund.DaysToJourney, refund.Amount.StringFixed(2), refund.Percent))
	s.publish(ctx, models.EventBookingCancelled, *b)

	return &Cancellation{
		BookingID:       b.ID,
		Reference:       b.Reference,
		RefundAmount:    refund.Amount,
		CancellationFee: refund.Fee,
		RefundPercent:   refund.Percent,
	}, nil
}

func (s *Service) getBooking(ctx context.Context, id int64) (*models.Booking, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	b, err := s.Store.GetBooking(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return b, nil
}

// GetBooking returns one booking to its owner or an administrator.
func (s *Service) GetBooking(ctx context.Context, id, actingUserID int64) (*models.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := s.resolve(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", ErrUnauthorized, b.ID)
	}
	return b, nil
}

// ListBookingsForUser returns the user's bookings, latest journey first.
func (s *Service) ListBookingsForUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	bookings, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return bookings, nil
}

// ListAllBookings is the administrator's view of recent bookings.
func (s *Service) ListAllBookings(ctx context.Context, actingUserID int64, limit int) ([]models.Booking, error) {
	actor, err := s.resolve(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: administrator access required", ErrUnauthorized)
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	bookings, err := s.Store.ListAll(ctx, limit)
	if err != nil {
		return nil, classify(err)
	}
	return bookings, nil
}

// SeatsRemaining reports unsold seats for a route on a journey date.
func (s *Service) SeatsRemaining(ctx context.Context, sel Selector, journeyDate string) (int, error) {
	if err := sel.validate(); err != nil {
		return 0, err
	}
	if _, err := parseJourneyDate(journeyDate); err != nil {
		return 0, err
	}
	route, err := s.findRoute(ctx, sel)
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	left, err := inventory.NewLedger(s.Store).Remaining(ctx, *route, journeyDate)
	if err != nil {
		return 0, classify(err)
	}
	return left, nil
}

func (s *Service) publish(ctx context.Context, t models.BookingEventType, b models.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistenceTimeout)
	defer cancel()
	if err := s.Events.PublishBookingEvent(ctx, models.NewBookingEvent(t, b, s.Clock.Now())); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", t, b.Reference, err))
	}
}

// SplitUpcoming separates bookings still to be travelled from past or
// cancelled ones, keeping their order.
func SplitUpcoming(bookings []models.Booking, today time.Time) (upcoming, past []models.Booking) {
	today = pricing.Date(today)
	for _, b := range bookings {
		journey, err := b.Journey()
		if b.Status != models.StatusCancelled && err == nil && !journey.Before(today) {
			upcoming = append(upcoming, b)
		} else {
			past = append(past, b)
		}
	}
	return upcoming, past
}
