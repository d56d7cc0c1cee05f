package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	var err error
	ctx, span := otel.Tracer("user-repository").Start(ctx, "CreateUser")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreateUser", start, err) }()

	if user == nil {
		err = pkgerrors.ErrNilUser
		slog.Error("failed to create user", "method", "Create", "error", err)
		return err
	}
	if user.ID == "" || user.Username == "" || user.PasswordHash == "" {
		err = fmt.Errorf("%w: id, username and password are required", pkgerrors.ErrInvalidInput)
		slog.Error("failed to create user", "method", "Create", "error", err)
		return err
	}
	span.SetAttributes(attribute.String("username", user.Username))

	query := `INSERT INTO users (id, username, display_name, password_hash, payouts_enabled) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.DisplayName, user.PasswordHash, user.PayoutsEnabled).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = pkgerrors.ErrUserAlreadyExists
			slog.Warn("user already exists", "method", "Create", "username", user.Username)
			return err
		}
		slog.Error("failed to create user", "method", "Create", "username", user.Username, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID, "username", user.Username)
	return nil
}

const userColumns = `id, username, display_name, password_hash, payouts_enabled, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.PayoutsEnabled, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var err error
	ctx, span := otel.Tracer("user-repository").Start(ctx, "GetUserByID")
	span.SetAttributes(attribute.String("user_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetUserByID", start, err) }()

	var user *models.User
	user, err = scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrUserNotFound
		slog.Warn("user not found", "method", "GetByID", "user_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get user by id", "method", "GetByID", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var err error
	ctx, span := otel.Tracer("user-repository").Start(ctx, "GetUserByUsername")
	span.SetAttributes(attribute.String("username", username))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetUserByUsername", start, err) }()

	if username == "" {
		err = fmt.Errorf("%w: username cannot be empty", pkgerrors.ErrInvalidInput)
		return nil, err
	}

	var user *models.User
	user, err = scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrUserNotFound
		return nil, err
	case err != nil:
		slog.Error("failed to get user by username", "method", "GetByUsername", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) SetPayoutsEnabled(ctx context.Context, id string, enabled bool) error {
	var err error
	ctx, span := otel.Tracer("user-repository").Start(ctx, "SetPayoutsEnabled")
	span.SetAttributes(attribute.String("user_id", id), attribute.Bool("enabled", enabled))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "SetPayoutsEnabled", start, err) }()

	var res sql.Result
	res, err = r.db.ExecContext(ctx, `UPDATE users SET payouts_enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		slog.Error("failed to update payouts flag", "method", "SetPayoutsEnabled", "user_id", id, "error", err)
		return fmt.Errorf("failed to update payouts flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrUserNotFound
		return err
	}
	slog.Info("payouts flag updated", "method", "SetPayoutsEnabled", "user_id", id, "enabled", enabled)
	return nil
}
