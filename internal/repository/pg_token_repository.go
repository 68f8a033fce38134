package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const refreshTokensTable = "refresh_tokens"

type PostgresTokenRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPostgresTokenRepo(db *pgxpool.Pool) *PostgresTokenRepo {
	return &PostgresTokenRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresTokenRepo) SaveRefreshToken(ctx context.Context, token models.RefreshToken) error {
	const op = "repository.pg_token_repository.SaveRefreshToken"

	query, args, err := r.sb.Insert(refreshTokensTable).
		Columns("token", "email", "expires_at", "created_at").
		Values(token.Token, token.Email, token.ExpiresAt, token.CreatedAt).
		Suffix("ON CONFLICT (token) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenExists)
	}

	return nil
}

func (r *PostgresTokenRepo) RefreshToken(ctx context.Context, token string) (models.RefreshToken, error) {
	const op = "repository.pg_token_repository.RefreshToken"

	query, args, err := r.sb.Select("token", "email", "expires_at", "created_at").
		From(refreshTokensTable).
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var rt models.RefreshToken
	err = r.db.QueryRow(ctx, query, args...).Scan(&rt.Token, &rt.Email, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return rt, nil
}

func (r *PostgresTokenRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	const op = "repository.pg_token_repository.DeleteRefreshToken"

	query, args, err := r.sb.Delete(refreshTokensTable).Where(sq.Eq{"token": token}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresTokenRepo) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	const op = "repository.pg_token_repository.DeleteExpiredRefreshTokens"

	query, args, err := r.sb.Delete(refreshTokensTable).Where(sq.LtOrEq{"expires_at": before}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
