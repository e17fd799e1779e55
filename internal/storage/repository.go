package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/boardinghub/internal/catalog"
)

// Querier abstracts the subset of pgxpool.Pool used by ListingRepository.
// This allows injection of a mock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ListingRepository reads and writes the listings table. It doubles as a
// catalog.Source so the catalog can be served from Postgres.
type ListingRepository struct {
	q Querier
}

// NewListingRepository constructs a ListingRepository backed by the given pool.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{q: pool}
}

// NewListingRepositoryWithQuerier constructs a ListingRepository with a custom Querier (for tests).
func NewListingRepositoryWithQuerier(q Querier) *ListingRepository {
	return &ListingRepository{q: q}
}

var _ catalog.Source = (*ListingRepository)(nil)

// Records returns every listing in insertion order.
func (r *ListingRepository) Records(ctx context.Context) ([]catalog.Record, error) {
	const q = `
		SELECT listing_id, location, price, amenities
		FROM listings
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		var rec catalog.Record
		if err := rows.Scan(&rec.ID, &rec.Location, &rec.Price, &rec.Amenities); err != nil {
			return nil, fmt.Errorf("scanning listing row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listing rows: %w", err)
	}

	return records, nil
}

// ImportListings upserts every record in a single transaction. Either all
// records are written or, on the first failure, none are.
func (r *ListingRepository) ImportListings(ctx context.Context, records []catalog.Record) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}

	for i, rec := range records {
		if err := upsertListing(ctx, tx, rec); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("import rolled back at record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

// upsertListing inserts a listing or, on conflict (listing_id), updates its
// location, price and amenities. An existing row keeps its insertion position.
func upsertListing(ctx context.Context, db execer, rec catalog.Record) error {
	const q = `
		INSERT INTO listings (listing_id, location, price, amenities, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (listing_id) DO UPDATE
		SET location   = EXCLUDED.location,
		    price      = EXCLUDED.price,
		    amenities  = EXCLUDED.amenities,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := db.Exec(ctx, q, rec.ID, rec.Location, rec.Price, rec.Amenities); err != nil {
		return fmt.Errorf("upserting listing %s: %w", rec.ID, err)
	}

	return nil
}
