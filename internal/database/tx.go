package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type txContextKey struct{}

// txFrom extracts an open transaction from the context, if any.
func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// maxSerializationRetries bounds retries of serializable scopes that hit
// a serialization failure (SQLSTATE 40001).
const maxSerializationRetries = 5

// Transactor runs an operation body inside a transactional scope: on a
// nil return the scope commits, on error it rolls back, and the session
// is always released. Scopes do not nest; event hooks must open fresh
// ones.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx runs fn inside a read-committed transaction.
func (c *Connection) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.runTx(ctx, pgx.TxOptions{}, fn)
}

// WithSerializableTx runs fn at serializable isolation, retrying with
// backoff when the store reports a serialization conflict. The graph
// wiring routines depend on this: their read-then-write sequences must
// observe a consistent candidate set.
func (c *Connection) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(10*time.Millisecond),
			backoff.WithMaxInterval(250*time.Millisecond),
		),
		maxSerializationRetries,
	), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.runTx(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if IsSerializationFailure(err) {
			log.Debug().Int("attempt", attempt).Msg("Serialization conflict, retrying transaction")
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func (c *Connection) runTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fmt.Errorf("nested transaction scopes are not supported")
	}

	tx, err := c.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		// Rollback is a no-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ensure Connection implements Transactor
var _ Transactor = (*Connection)(nil)
