// Package postgres stores trips in PostgreSQL through sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
)

const tripColumns = `id, distance_km, duration_min, estimated_price, origin_zone, destination_zone,
	vehicle_type, status, start_time, end_time, created_at`

// tripRow mirrors the trips table
type tripRow struct {
	ID              uuid.UUID       `db:"id"`
	DistanceKM      float64         `db:"distance_km"`
	DurationMin     float64         `db:"duration_min"`
	EstimatedPrice  decimal.Decimal `db:"estimated_price"`
	OriginZone      sql.NullString  `db:"origin_zone"`
	DestinationZone sql.NullString  `db:"destination_zone"`
	VehicleType     string          `db:"vehicle_type"`
	Status          string          `db:"status"`
	StartTime       time.Time       `db:"start_time"`
	EndTime         sql.NullTime    `db:"end_time"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r tripRow) toDomain() (*trip.Trip, error) {
	price, err := trip.NewPrice(decimal.NewNullDecimal(r.EstimatedPrice))
	if err != nil {
		return nil, fmt.Errorf("trip %s has a corrupt price: %w", r.ID, err)
	}
	t := &trip.Trip{
		ID:              r.ID,
		DistanceKM:      r.DistanceKM,
		DurationMin:     r.DurationMin,
		EstimatedPrice:  price,
		OriginZone:      r.OriginZone.String,
		DestinationZone: r.DestinationZone.String,
		VehicleType:     trip.VehicleType(r.VehicleType),
		Status:          trip.Status(r.Status),
		StartTime:       r.StartTime.UTC(),
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.EndTime.Valid {
		end := r.EndTime.Time.UTC()
		t.EndTime = &end
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// TripRepository implements trip.Repository
type TripRepository struct {
	db *sqlx.DB
}

var _ trip.Repository = (*TripRepository)(nil)

// NewTripRepository creates a new Postgres trip repository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Save inserts a trip without ID or updates an existing one. The database
// assigns id and created_at; created_at is never updated.
func (r *TripRepository) Save(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	if t == nil {
		return nil, errors.New("cannot save nil trip")
	}
	if t.IsPersisted() {
		return r.update(ctx, t)
	}
	return r.insert(ctx, t)
}

func (r *TripRepository) insert(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	query := `
		INSERT INTO trips (distance_km, duration_min, estimated_price, origin_zone, destination_zone,
			vehicle_type, status, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, now()))
		RETURNING ` + tripColumns

	createdAt := sql.NullTime{Time: t.CreatedAt, Valid: !t.CreatedAt.IsZero()}

	var row tripRow
	err := r.db.QueryRowxContext(ctx, query,
		t.DistanceKM,
		t.DurationMin,
		t.EstimatedPrice.Decimal(),
		nullString(t.OriginZone),
		nullString(t.DestinationZone),
		string(t.VehicleType),
		string(t.Status),
		t.StartTime,
		nullTime(t.EndTime),
		createdAt,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trip: %w", err)
	}
	return row.toDomain()
}

func (r *TripRepository) update(ctx context.Context, t *trip.Trip) (*trip.Trip, error) {
	query := `
		UPDATE trips
		SET distance_km = $2, duration_min = $3, estimated_price = $4, origin_zone = $5,
			destination_zone = $6, vehicle_type = $7, status = $8, start_time = $9, end_time = $10
		WHERE id = $1
		RETURNING ` + tripColumns

	var row tripRow
	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.DistanceKM,
		t.DurationMin,
		t.EstimatedPrice.Decimal(),
		nullString(t.OriginZone),
		nullString(t.DestinationZone),
		string(t.VehicleType),
		string(t.Status),
		t.StartTime,
		nullTime(t.EndTime),
	).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", trip.ErrTripNotFound, t.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update trip %s: %w", t.ID, err)
	}
	return row.toDomain()
}

// FindByID returns trip.ErrTripNotFound when no row matches
func (r *TripRepository) FindByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	var row tripRow
	err := r.db.GetContext(ctx, &row, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", trip.ErrTripNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip %s: %w", id, err)
	}
	return row.toDomain()
}

// FindAll returns one page of trips, most recent first
func (r *TripRepository) FindAll(ctx context.Context, req trip.PageRequest) (trip.Page, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM trips`); err != nil {
		return trip.Page{}, fmt.Errorf("failed to count trips: %w", err)
	}

	rows := []tripRow{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+tripColumns+` FROM trips ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		req.Size, req.Offset(),
	)
	if err != nil {
		return trip.Page{}, fmt.Errorf("failed to list trips: %w", err)
	}

	items := make([]*trip.Trip, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return trip.Page{}, err
		}
		items = append(items, t)
	}
	return trip.NewPage(items, req, total), nil
}
