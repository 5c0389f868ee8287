package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.CartRefStore = (*CartRefRepository)(nil)

// CartRefRepository persists the anonymous cart id of every session,
// so the cart survives process restarts the way a browser's local
// storage survives page reloads.
type CartRefRepository struct {
	sqldb sqldb
}

func NewCartRefRepository(sqldb sqldb) CartRefRepository {
	return CartRefRepository{sqldb}
}

func (r CartRefRepository) Get(
	ctx context.Context, sessionID string,
) (string, error) {
	const op = "CartRefRepository.Get"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT cart_id FROM anonymous_cart_refs
		WHERE session_id = $1;`

	var cartID string
	err := r.sqldb.QueryRowContext(ctx, query, sessionID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cartID, nil
}

func (r CartRefRepository) Set(
	ctx context.Context, sessionID, cartID string,
) error {
	const op = "CartRefRepository.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO anonymous_cart_refs (session_id, cart_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET
			cart_id = EXCLUDED.cart_id,
			updated_at = EXCLUDED.updated_at;`

	if _, err := r.sqldb.ExecContext(ctx, query, sessionID, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r CartRefRepository) Clear(ctx context.Context, sessionID string) error {
	const op = "CartRefRepository.Clear"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM anonymous_cart_refs WHERE session_id = $1;`

	if _, err := r.sqldb.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
