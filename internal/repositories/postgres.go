package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipforge/backend/internal/db"
	"github.com/clipforge/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, updated_at = $4
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresOAuthStateRepository provides PostgreSQL-backed persistence for
// pending authorization handshakes.
type PostgresOAuthStateRepository struct {
	pool db.Pool
}

// NewPostgresOAuthStateRepository constructs an oauth state repository backed by PostgreSQL.
func NewPostgresOAuthStateRepository(pool db.Pool) *PostgresOAuthStateRepository {
	return &PostgresOAuthStateRepository{pool: pool}
}

// Upsert stores a handshake, replacing any pending one for the same user and provider.
func (r *PostgresOAuthStateRepository) Upsert(ctx context.Context, state models.OAuthState) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO oauth_states (user_id, provider, state, code_verifier, code_challenge, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, provider)
        DO UPDATE SET state = EXCLUDED.state,
                      code_verifier = EXCLUDED.code_verifier,
                      code_challenge = EXCLUDED.code_challenge,
                      created_at = EXCLUDED.created_at
    `, state.UserID, state.Provider, state.State, state.CodeVerifier, state.CodeChallenge, state.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert oauth state: %w", err)
	}

	return nil
}

// Claim removes a handshake by its state token and returns it. A second claim
// of the same token reports ErrNotFound, which makes replayed callbacks fail.
func (r *PostgresOAuthStateRepository) Claim(ctx context.Context, stateToken string) (models.OAuthState, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.OAuthState{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        DELETE FROM oauth_states
        WHERE state = $1
        RETURNING user_id, provider, state, code_verifier, code_challenge, created_at
    `, stateToken)

	var state models.OAuthState
	var createdAt time.Time
	if err := row.Scan(&state.UserID, &state.Provider, &state.State, &state.CodeVerifier, &state.CodeChallenge, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OAuthState{}, ErrNotFound
		}
		return models.OAuthState{}, fmt.Errorf("claim oauth state: %w", err)
	}

	state.CreatedAt = createdAt.UTC()
	return state, nil
}

// DeleteExpired removes handshakes started before the provided cutoff.
func (r *PostgresOAuthStateRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM oauth_states
        WHERE created_at < $1
    `, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired oauth states: %w", err)
	}

	return tag.RowsAffected(), nil
}

// PostgresConnectionRepository provides PostgreSQL-backed persistence for linked social accounts.
type PostgresConnectionRepository struct {
	pool db.Pool
}

// NewPostgresConnectionRepository constructs a connection repository backed by PostgreSQL.
func NewPostgresConnectionRepository(pool db.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

// Upsert stores a linked account, refreshing provider details on reconnect.
func (r *PostgresConnectionRepository) Upsert(ctx context.Context, connection models.SocialConnection) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO social_connections (user_id, provider, provider_user_id, username, connected_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, provider)
        DO UPDATE SET provider_user_id = EXCLUDED.provider_user_id,
                      username = EXCLUDED.username,
                      connected_at = EXCLUDED.connected_at
    `, connection.UserID, connection.Provider, connection.ProviderUserID, connection.Username, connection.ConnectedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert social connection: %w", err)
	}

	return nil
}

// Find fetches the linked account for a user and provider.
func (r *PostgresConnectionRepository) Find(ctx context.Context, userID, provider string) (models.SocialConnection, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.SocialConnection{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, provider, provider_user_id, username, connected_at
        FROM social_connections
        WHERE user_id = $1 AND provider = $2
    `, userID, provider)

	var connection models.SocialConnection
	var connectedAt time.Time
	if err := row.Scan(&connection.UserID, &connection.Provider, &connection.ProviderUserID, &connection.Username, &connectedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SocialConnection{}, ErrNotFound
		}
		return models.SocialConnection{}, fmt.Errorf("select social connection: %w", err)
	}

	connection.ConnectedAt = connectedAt.UTC()
	return connection, nil
}

// Delete removes the linked account for a user and provider.
func (r *PostgresConnectionRepository) Delete(ctx context.Context, userID, provider string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM social_connections
        WHERE user_id = $1 AND provider = $2
    `, userID, provider)
	if err != nil {
		return fmt.Errorf("delete social connection: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ OAuthStateRepository = (*PostgresOAuthStateRepository)(nil)
var _ ConnectionRepository = (*PostgresConnectionRepository)(nil)
