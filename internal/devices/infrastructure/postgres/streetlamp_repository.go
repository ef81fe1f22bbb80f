package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	devices "github.com/IsmaelPl01/netolight/internal/devices/domain"
)

const defaultStreetlampTable = "streetlamps"

// StreetlampRepository is a Postgres implementation of the registry.
type StreetlampRepository struct {
	db    *sql.DB
	table string
}

// NewStreetlampRepository constructs a streetlamp repository.
func NewStreetlampRepository(db *sql.DB, opts ...StreetlampOption) *StreetlampRepository {
	repo := &StreetlampRepository{db: db, table: defaultStreetlampTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StreetlampOption configures the streetlamp repository.
type StreetlampOption func(*StreetlampRepository)

// WithStreetlampTable overrides the table name.
func WithStreetlampTable(table string) StreetlampOption {
	return func(repo *StreetlampRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// FindAll returns every registered lamp ordered by name.
func (r *StreetlampRepository) FindAll(ctx context.Context) ([]devices.Streetlamp, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("streetlamp repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, eui, name, lon, lat
FROM %s
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []devices.Streetlamp
	for rows.Next() {
		var lamp devices.Streetlamp
		if err := rows.Scan(&lamp.ID, &lamp.EUI, &lamp.Name, &lamp.Lon, &lamp.Lat); err != nil {
			return nil, err
		}
		result = append(result, lamp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByEUI returns the lamp with the given EUI, or nil.
func (r *StreetlampRepository) FindByEUI(ctx context.Context, eui string) (*devices.Streetlamp, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("streetlamp repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, eui, name, lon, lat
FROM %s
WHERE eui = $1`, r.table)

	var lamp devices.Streetlamp
	err := r.db.QueryRowContext(ctx, query, eui).Scan(&lamp.ID, &lamp.EUI, &lamp.Name, &lamp.Lon, &lamp.Lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lamp, nil
}

// Insert registers a lamp and returns its row id.
func (r *StreetlampRepository) Insert(ctx context.Context, lamp devices.Streetlamp) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("streetlamp repository: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (eui, name, lon, lat)
VALUES ($1, $2, $3, $4)
RETURNING id`, r.table)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, lamp.EUI, lamp.Name, lamp.Lon, lamp.Lat).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteByID removes a lamp.
func (r *StreetlampRepository) DeleteByID(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("streetlamp repository: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Count returns the number of registered lamps.
func (r *StreetlampRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("streetlamp repository: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
