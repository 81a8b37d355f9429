// Package postgres implements the catalog store and the purchase ledger on
// PostgreSQL. The purchase uniqueness invariant lives in the database as a
// unique index over (item_id, lower(btrim(buyer_address))), mirroring
// ledger.FoldAddress, so concurrent duplicate inserts collapse to a single
// row regardless of application-level races.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	description            TEXT NOT NULL DEFAULT '',
	price                  TEXT NOT NULL,
	token_chain_id         TEXT NOT NULL DEFAULT '',
	token_contract_address TEXT NOT NULL DEFAULT '',
	token_symbol           TEXT NOT NULL DEFAULT '',
	token_decimals         INT  NOT NULL DEFAULT 0,
	uploader_address       TEXT NOT NULL,
	filename               TEXT NOT NULL,
	original_name          TEXT NOT NULL,
	size_bytes             BIGINT NOT NULL DEFAULT 0,
	download_count         BIGINT NOT NULL DEFAULT 0,
	uploaded_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS purchases (
	id               UUID PRIMARY KEY,
	item_id          TEXT NOT NULL REFERENCES items (id),
	buyer_address    TEXT NOT NULL,
	transaction_hash TEXT NOT NULL DEFAULT '',
	amount           TEXT NOT NULL DEFAULT '',
	purchased_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS purchases_item_buyer_key
	ON purchases (item_id, lower(btrim(buyer_address)));
`

// Store is a PostgreSQL-backed catalog store and purchase ledger.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ catalog.Store = (*Store)(nil)
	_ ledger.Ledger = (*Store)(nil)
)

// Open connects to the database, verifies connectivity, and ensures the
// schema exists. The returned Store must be closed at shutdown.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// FindByID implements catalog.Store.
func (s *Store) FindByID(ctx context.Context, id string) (*catalog.Item, error) {
	const query = `
		SELECT id, name, description, price,
		       token_chain_id, token_contract_address, token_symbol, token_decimals,
		       uploader_address, filename, original_name, size_bytes, download_count, uploaded_at
		FROM items WHERE id = $1`

	var item catalog.Item
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Token.ChainID, &item.Token.ContractAddress, &item.Token.Symbol, &item.Token.Decimals,
		&item.UploaderAddress, &item.Filename, &item.OriginalName, &item.Size,
		&item.DownloadCount, &item.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find item %q: %w", id, err)
	}
	return &item, nil
}

// IncrementDownloadCount implements catalog.Store.
func (s *Store) IncrementDownloadCount(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET download_count = download_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: increment download count for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// RecordIfAbsent implements ledger.Ledger. The insert relies on the unique
// index for idempotency: ON CONFLICT DO NOTHING reports a losing racer as
// zero rows affected, and a unique violation surfaced by any other path is
// absorbed the same way.
func (s *Store) RecordIfAbsent(ctx context.Context, purchase ledger.Purchase) (bool, error) {
	id := purchase.ID
	if id == "" {
		id = uuid.NewString()
	}
	purchasedAt := purchase.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now().UTC()
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO purchases (id, item_id, buyer_address, transaction_hash, amount, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id, lower(btrim(buyer_address))) DO NOTHING`,
		id, purchase.ItemID, strings.TrimSpace(purchase.BuyerAddress), purchase.TransactionHash,
		purchase.Amount, purchasedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("postgres: record purchase: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// HasPurchase implements ledger.Ledger. The lookup hits the same unique
// index the insert conflicts on, so a committed write is visible to the
// next check.
func (s *Store) HasPurchase(ctx context.Context, itemID, buyerAddress string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE item_id = $1 AND lower(btrim(buyer_address)) = $2
		)`, itemID, ledger.FoldAddress(buyerAddress)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check purchase: %w", err)
	}
	return exists, nil
}

// ListByBuyer implements ledger.Ledger.
func (s *Store) ListByBuyer(ctx context.Context, buyerAddress string) ([]ledger.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, item_id, buyer_address, transaction_hash, amount, purchased_at
		FROM purchases
		WHERE lower(btrim(buyer_address)) = $1
		ORDER BY purchased_at DESC`, ledger.FoldAddress(buyerAddress))
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []ledger.Purchase
	for rows.Next() {
		var p ledger.Purchase
		if err := rows.Scan(&p.ID, &p.ItemID, &p.BuyerAddress, &p.TransactionHash, &p.Amount, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate purchases: %w", err)
	}
	return purchases, nil
}
