package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChoiceRepository persists the allowed-choice registry: for each field
// name an ordered list of accepted values. The table is the durable
// source the in-memory registry snapshot is published from.
type ChoiceRepository struct {
	pool *pgxpool.Pool
}

// NewChoiceRepository returns a ChoiceRepository using the given pool.
func NewChoiceRepository(pool *pgxpool.Pool) *ChoiceRepository {
	return &ChoiceRepository{pool: pool}
}

// Load reads the whole registry, values in their declared order.
func (r *ChoiceRepository) Load(ctx context.Context) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT field, value
		FROM registry_choices
		ORDER BY field, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	choices := make(map[string][]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		choices[field] = append(choices[field], value)
	}
	return choices, rows.Err()
}

// GetField returns the ordered values for one field, or nil if the
// field is not in the registry.
func (r *ChoiceRepository) GetField(ctx context.Context, field string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT value
		FROM registry_choices
		WHERE field = $1
		ORDER BY position`, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// ReplaceField swaps one field's value list in a single transaction, so
// concurrent loads see either the old list or the new one, never a mix.
func (r *ChoiceRepository) ReplaceField(ctx context.Context, field string, values []string) error {
	if field == "" {
		return errors.New("repository: empty registry field name")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM registry_choices WHERE field = $1`, field); err != nil {
			return err
		}
		for i, value := range values {
			if _, err := tx.Exec(ctx, `
				INSERT INTO registry_choices (field, position, value)
				VALUES ($1, $2, $3)`, field, i, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteField removes a field from the registry entirely.
func (r *ChoiceRepository) DeleteField(ctx context.Context, field string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM registry_choices WHERE field = $1`, field)
	return err
}
