package accessibility

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/manzanit0/mobacesso/pkg/location"
)

//go:embed schema.sql
var schema string

type pgRepo struct {
	db *sqlx.DB
}

var _ Repository = (*pgRepo)(nil)

func NewPgRepository(db *sql.DB) *pgRepo {
	return &pgRepo{db: sqlx.NewDb(db, "postgres")}
}

// Migrate creates the tables if they don't exist yet.
func (r *pgRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply accessibility schema: %w", err)
	}

	return nil
}

func (r *pgRepo) CreatePoint(ctx context.Context, np NewPoint) (*Point, error) {
	if err := np.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		err = tx.Rollback()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "rollback create point transaction", "error", err.Error())
		}
	}()

	var p Point
	query := `
	INSERT INTO accessibility_points (name, latitude, longitude, status)
	VALUES ($1, $2, $3, $4)
	RETURNING id, name, latitude, longitude, status, created_at;`
	err = tx.GetContext(ctx, &p, query, strings.TrimSpace(np.Name), *np.Latitude, *np.Longitude, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("insert point: %w", err)
	}

	p.Features = make([]Feature, 0, len(np.Features))

	query = `
	INSERT INTO accessibility_features (point_id, feature_type, description)
	VALUES ($1, $2, $3)
	RETURNING id, point_id, feature_type, description;`
	for _, nf := range np.Features {
		var f Feature
		err = tx.GetContext(ctx, &f, query, p.ID, strings.TrimSpace(nf.Type), nf.Description)
		if err != nil {
			return nil, fmt.Errorf("insert feature %q: %w", nf.Type, err)
		}

		p.Features = append(p.Features, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &p, nil
}

func (r *pgRepo) QueryPoints(ctx context.Context, box location.BoundingBox) ([]Point, error) {
	var points []Point

	query := `
	SELECT id, name, latitude, longitude, status, created_at
	FROM accessibility_points
	WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
	ORDER BY id;`
	err := r.db.SelectContext(ctx, &points, query, box.MinLatitude, box.MaxLatitude, box.MinLongitude, box.MaxLongitude)
	if err != nil {
		return nil, fmt.Errorf("select points: %w", err)
	}

	if len(points) == 0 {
		return []Point{}, nil
	}

	ids := make([]int64, len(points))
	for i := range points {
		ids[i] = points[i].ID
	}

	query, args, err := sqlx.In(`SELECT id, point_id, feature_type, description FROM accessibility_features WHERE point_id IN (?) ORDER BY id;`, ids)
	if err != nil {
		return nil, fmt.Errorf("build features query: %w", err)
	}

	var features []Feature
	err = r.db.SelectContext(ctx, &features, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select features: %w", err)
	}

	return attachFeatures(points, features), nil
}
