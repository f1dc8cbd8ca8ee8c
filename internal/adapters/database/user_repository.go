package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdmccork/auctionhouse/internal/domain/users"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	pkgdb "github.com/jdmccork/auctionhouse/pkg/database"
)

// PostgresUserRepository implements users.Repository using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *users.User) (int64, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash).Scan(&id)
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return 0, users.ErrEmailInUse
		}
		return 0, apperrors.Storage("insert user", err)
	}
	return id, nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id int64) (*users.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *PostgresUserRepository) getUser(ctx context.Context, where string, arg any) (*users.User, error) {
	query := `SELECT id, first_name, last_name, email, password_hash, image_filename FROM users ` + where

	var u users.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.ImageFilename)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Storage("get user", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, u *users.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, password_hash = $4
		WHERE id = $5
	`
	tag, err := r.pool.Exec(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.ID)
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return users.ErrEmailInUse
		}
		return apperrors.Storage("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SetImageFilename(ctx context.Context, id int64, filename string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET image_filename = $1 WHERE id = $2`, filename, id)
	if err != nil {
		return apperrors.Storage("set user image", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}
