package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"

	"github.com/example/commute-matching/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) SaveAssignment(ctx context.Context, a *models.Assignment) error {
	const op = "PostgresStore.SaveAssignment"
	eta, err := json.Marshal(a.ETA)
	if err != nil {
		return fmt.Errorf("%s: marshal eta: %w", op, err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO assignments(id, employee_id, employee_location, driver_id, driver_name,
		service_area, trip_type, reason, match_score, eta, drop_time, status, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		a.ID, a.EmployeeID, a.EmployeeLocation, a.DriverID, a.DriverName, a.ServiceArea, string(a.TripType),
		string(a.Reason), a.MatchScore, string(eta), a.DropTime, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *PostgresStore) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	const op = "PostgresStore.UpdateAssignment"
	res, err := p.db.ExecContext(ctx, `UPDATE assignments SET driver_id=$1, status=$2, updated_at=$3 WHERE id=$4`,
		a.DriverID, a.Status, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	const op = "PostgresStore.GetAssignment"
	var (
		a        models.Assignment
		tripType string
		reason   string
		eta      []byte
	)
	err := p.db.QueryRowContext(ctx, `SELECT id, employee_id, employee_location, driver_id, driver_name, service_area,
		trip_type, reason, match_score, eta, drop_time, status, created_at, updated_at
		FROM assignments WHERE id = $1`, id).Scan(
		&a.ID, &a.EmployeeID, &a.EmployeeLocation, &a.DriverID, &a.DriverName, &a.ServiceArea,
		&tripType, &reason, &a.MatchScore, &eta, &a.DropTime, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.TripType = models.TripType(tripType)
	a.Reason = models.AssignmentReason(reason)
	if err := json.Unmarshal(eta, &a.ETA); err != nil {
		return nil, fmt.Errorf("%s: unmarshal eta: %w", op, err)
	}
	return &a, nil
}
