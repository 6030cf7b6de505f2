package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().Model(&u).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().Model(&users).Order("id ASC").Scan(ctx)
	return users, err
}

func (d *DB) InsertUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
	}
	return err
}

func (d *DB) UpdateProfile(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(u).
		Column("first_name", "last_name", "email", "phone").
		WherePK().
		Exec(ctx)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
	}
	return err
}

func (d *DB) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("is_admin = ?", isAdmin).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) HasBookings(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("user_id = ?", id).
		Exists(ctx)
}

func (d *DB) AnyAdmin(ctx context.Context) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("is_admin = ?", true).
		Exists(ctx)
}
