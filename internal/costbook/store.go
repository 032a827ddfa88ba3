// Package costbook maintains the per-diameter cost catalog used by the
// sizing engine as a tie-break. Rows are refreshed from the supplier feed
// and served from Postgres.
package costbook

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/sizing"
)

// Row is one supplier price line for a nominal diameter.
type Row struct {
	DNmm           float64   `json:"dn_mm"`
	MaterialPerM   float64   `json:"material_per_m"`
	InstallPerM    float64   `json:"install_per_m"`
	InsulationPerM float64   `json:"insulation_per_m"`
	Currency       string    `json:"currency,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Upsert writes supplier rows keyed by DN.
func (s *Store) Upsert(ctx context.Context, rows []Row) error {
	for _, r := range rows {
		if r.DNmm <= 0 {
			return fmt.Errorf("costbook: invalid DN %g", r.DNmm)
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO pipe_costs (dn_mm, material_per_m, install_per_m, insulation_per_m, currency, updated_at)
			VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), 'EUR'), NOW())
			ON CONFLICT (dn_mm) DO UPDATE SET
				material_per_m = EXCLUDED.material_per_m,
				install_per_m = EXCLUDED.install_per_m,
				insulation_per_m = EXCLUDED.insulation_per_m,
				currency = EXCLUDED.currency,
				updated_at = NOW()`,
			r.DNmm, r.MaterialPerM, r.InstallPerM, r.InsulationPerM, r.Currency)
		if err != nil {
			return fmt.Errorf("costbook: upsert DN %g: %w", r.DNmm, err)
		}
	}
	return nil
}

// LoadTable materializes the catalog as the sizing engine's cost table.
func (s *Store) LoadTable(ctx context.Context) (sizing.CostTable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT dn_mm, material_per_m, install_per_m, insulation_per_m FROM pipe_costs`)
	if err != nil {
		return nil, fmt.Errorf("costbook: query: %w", err)
	}
	defer rows.Close()

	table := sizing.CostTable{}
	for rows.Next() {
		var dn float64
		var rate sizing.CostRate
		if err := rows.Scan(&dn, &rate.MaterialPerM, &rate.InstallPerM, &rate.InsulationPerM); err != nil {
			return nil, fmt.Errorf("costbook: scan: %w", err)
		}
		table[dn] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("costbook: rows: %w", err)
	}
	return table, nil
}
