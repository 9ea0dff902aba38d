package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

const customersQuery = `
	SELECT id, name, email, phone, total_spent, satisfaction_score,
	       churn_probability, segment, last_interaction
	FROM customers
	ORDER BY id
`

// PostgresSource reads the customer population from a CRM database. It
// never writes.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at url and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load reads every customer. Rows that fail validation abort the load.
func (s *PostgresSource) Load(ctx context.Context) (Dataset, error) {
	rows, err := s.pool.Query(ctx, customersQuery)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to query customers: %w", err)
	}

	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to scan customers: %w", err)
	}
	for _, c := range customers {
		if err := c.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("customer %q: %w", c.ID, err)
		}
	}
	return Dataset{Customers: customers}, nil
}

func scanCustomer(row pgx.CollectableRow) (model.Customer, error) {
	var (
		c       model.Customer
		phone   *string
		segment string
		last    *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &phone, &c.TotalSpent, &c.SatisfactionScore,
		&c.ChurnProbability, &segment, &last,
	)
	if err != nil {
		return model.Customer{}, err
	}
	if phone != nil {
		c.Phone = *phone
	}
	c.Segment = model.Segment(segment)
	if last != nil {
		c.LastInteraction = model.NewDate(*last)
	}
	return c, nil
}
