// Package users manages customer and administrator records. Credentials are
// handled elsewhere; this package only knows who a user id belongs to.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrUserHasBookings = errors.New("cannot delete user with existing bookings")
	ErrInvalidUser     = errors.New("invalid user")
	ErrForbidden       = errors.New("administrator access required")
)

type DBLayer interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, u *models.User) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	DeleteUser(ctx context.Context, id int64) error
	HasBookings(ctx context.Context, id int64) (bool, error)
	AnyAdmin(ctx context.Context) (bool, error)
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{DB: db, Logger: log}
}

// Resolve implements booking.IdentityResolver.
func (s *Service) Resolve(ctx context.Context, userID int64) (booking.Identity, error) {
	u, err := s.DB.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return booking.Identity{}, fmt.Errorf("%w: unknown user %d", booking.ErrUnauthorized, userID)
	}
	if err != nil {
		return booking.Identity{}, err
	}
	return booking.Identity{UserID: u.ID, IsAdmin: u.IsAdmin}, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.DB.GetUser(ctx, id)
}

// Profile is the self-editable part of a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (p Profile) normalise() (Profile, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	if p.FirstName == "" || p.LastName == "" {
		return p, fmt.Errorf("%w: first and last name are required", ErrInvalidUser)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return p, fmt.Errorf("%w: email %q", ErrInvalidUser, p.Email)
	}
	return p, nil
}

// CreateUser stores a new customer record.
func (s *Service) CreateUser(ctx context.Context, p Profile, isAdmin bool) (*models.User, error) {
	p, err := p.normalise()
	if err != nil {
		return nil, err
	}
	u := &models.User{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Phone: p.Phone, IsAdmin: isAdmin}
	if err := s.DB.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "users", fmt.Sprintf("user %d <%s>", u.ID, u.Email))
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, p Profile) (*models.User, error) {
	p, err := p.normalise()
	if err != nil {
		return nil, err
	}
	u, err := s.DB.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FirstName, u.LastName, u.Email, u.Phone = p.FirstName, p.LastName, p.Email, p.Phone
	if err := s.DB.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) requireAdmin(ctx context.Context, actorID int64) error {
	actor, err := s.DB.GetUser(ctx, actorID)
	if errors.Is(err, ErrUserNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		s.Logger.LogSecurity("ADMIN", fmt.Sprintf("user %d denied administrator action", actorID))
		return ErrForbidden
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, actorID int64) ([]models.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.DB.ListUsers(ctx)
}

// ToggleAdmin flips the administrator flag of targetID.
func (s *Service) ToggleAdmin(ctx context.Context, actorID, targetID int64) (*models.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	u, err := s.DB.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = !u.IsAdmin
	if err := s.DB.SetAdmin(ctx, u.ID, u.IsAdmin); err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("ADMIN", fmt.Sprintf("admin status for %s set to %t by user %d", u.Email, u.IsAdmin, actorID))
	return u, nil
}

// DeleteUser removes a user that has never booked. Booking history is kept,
// so users with bookings stay.
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.DB.GetUser(ctx, targetID); err != nil {
		return err
	}
	has, err := s.DB.HasBookings(ctx, targetID)
	if err != nil {
		return err
	}
	if has {
		return ErrUserHasBookings
	}
	if err := s.DB.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	s.Logger.LogDatabase("DELETE", "users", fmt.Sprintf("user %d deleted by %d", targetID, actorID))
	return nil
}

// SeedAdmin creates the default administrator when there is none.
func (s *Service) SeedAdmin(ctx context.Context) error {
	exists, err := s.DB.AnyAdmin(ctx)
	if err != nil || exists {
		return err
	}
	_, err = s.CreateUser(ctx, Profile{
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@horizontravels.com",
		Phone:     "+441234567890",
	}, true)
	return err
}
