package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"reservelife/pkg/models"
)

// CompanyRepo mirrors company records into Postgres as JSONB snapshots,
// upserted by ticker. The JSON document on disk remains the primary store;
// this is an optional durability sink.
//
// Schema assumption (managed outside this repo):
//
//	CREATE TABLE IF NOT EXISTS reserve_life_companies (
//	  ticker TEXT PRIMARY KEY,
//	  cik TEXT,
//	  company_json JSONB,
//	  updated_at TIMESTAMPTZ
//	);
type CompanyRepo struct{}

// NewCompanyRepo creates a new repository instance.
func NewCompanyRepo() *CompanyRepo {
	return &CompanyRepo{}
}

// Save upserts one company snapshot.
func (r *CompanyRepo) Save(ctx context.Context, ticker string, rec models.CompanyRecord) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal company %s: %w", ticker, err)
	}

	query := `
		INSERT INTO reserve_life_companies (ticker, cik, company_json, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker)
		DO UPDATE SET
			cik = EXCLUDED.cik,
			company_json = EXCLUDED.company_json,
			updated_at = EXCLUDED.updated_at;
	`

	if _, err := pool.Exec(ctx, query, ticker, rec.Info.CIK, jsonData, time.Now()); err != nil {
		return fmt.Errorf("failed to save company %s: %w", ticker, err)
	}
	return nil
}

// Load retrieves one company snapshot by ticker.
func (r *CompanyRepo) Load(ctx context.Context, ticker string) (*models.CompanyRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := pool.QueryRow(ctx,
		`SELECT company_json FROM reserve_life_companies WHERE ticker = $1`, ticker).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no snapshot found for ticker %s", ticker)
		}
		return nil, fmt.Errorf("failed to load company %s: %w", ticker, err)
	}

	var rec models.CompanyRecord
	if err := json.Unmarshal(jsonData, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal company %s: %w", ticker, err)
	}
	return &rec, nil
}
