package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/commute-matching/internal/models"
)

// Postgres reads driver profiles from the drivers table.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) ListAvailable(ctx context.Context) ([]models.DriverCandidate, error) {
	const op = "directory.Postgres.ListAvailable"
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, phone_number, service_area, is_available
		FROM drivers
		WHERE is_available AND COALESCE(TRIM(service_area), '') <> ''
		ORDER BY updated_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.DriverCandidate
	for rows.Next() {
		d, err := scanCandidate(rows)
		if errors.Is(err, models.ErrInvalid) {
			p.logger.WarnContext(ctx, "skipping invalid driver row", "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (p *Postgres) Lookup(ctx context.Context, id string) (models.DriverCandidate, bool, error) {
	const op = "directory.Postgres.Lookup"
	row := p.db.QueryRowContext(ctx, `SELECT id, name, phone_number, service_area, is_available
		FROM drivers WHERE id = $1`, id)
	d, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DriverCandidate{}, false, nil
	}
	if err != nil {
		return models.DriverCandidate{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return d, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(s scanner) (models.DriverCandidate, error) {
	var (
		id, name    string
		phone, area sql.NullString
		available   bool
	)
	if err := s.Scan(&id, &name, &phone, &area, &available); err != nil {
		return models.DriverCandidate{}, fmt.Errorf("scan: %w", err)
	}
	return models.NewDriverCandidate(id, name, phone.String, area.String, available)
}

func (p *Postgres) ApplyStatus(ctx context.Context, st models.DriverStatus) error {
	const op = "directory.Postgres.ApplyStatus"
	_, err := p.db.ExecContext(ctx, `INSERT INTO drivers(id, name, phone_number, service_area, is_available, updated_at)
		VALUES($1, COALESCE(NULLIF($2, ''), $1), $3, NULLIF($4, ''), $5, now())
		ON CONFLICT (id) DO UPDATE SET
			is_available = EXCLUDED.is_available,
			name = COALESCE(NULLIF($2, ''), drivers.name),
			phone_number = COALESCE(NULLIF($3, ''), drivers.phone_number),
			service_area = COALESCE(NULLIF($4, ''), drivers.service_area),
			updated_at = now()`,
		st.DriverID, st.Name, st.Phone, st.ServiceArea, st.Available)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
