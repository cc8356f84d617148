package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darzee/imagehub-backend/internal/logger"
)

// TailorRow is one row read straight from the upstream marketplace database.
// JSONFields holds the raw jsonb payloads keyed by column name.
type TailorRow struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	Status      string
	JSONFields  map[string]json.RawMessage
}

// JSONFieldColumns is the fixed set of upstream jsonb columns, in scan order.
var JSONFieldColumns = []string{"boutique_items", "profile", "alterations", "tailorings", "rents"}

type Client interface {
	FetchTailors(ctx context.Context, limit int) ([]TailorRow, error)
	Close()
}

type client struct {
	log  *logger.Logger
	pool *pgxpool.Pool
}

// NewClient connects to the upstream postgres (UPSTREAM_DATABASE_URL). The
// upstream is read-only from this service's point of view.
func NewClient(ctx context.Context, log *logger.Logger) (Client, error) {
	clientLog := log.With("client", "UpstreamClient")

	connString := strings.TrimSpace(os.Getenv("UPSTREAM_DATABASE_URL"))
	if connString == "" {
		return nil, fmt.Errorf("missing env var UPSTREAM_DATABASE_URL")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("Failed to create upstream pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Failed to ping upstream database: %w", err)
	}

	clientLog.Info("Connected to upstream database")
	return &client{log: clientLog, pool: pool}, nil
}

func (c *client) FetchTailors(ctx context.Context, limit int) ([]TailorRow, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id::text, COALESCE(name, ''), COALESCE(email, ''),
		       COALESCE(phone_number, ''), COALESCE(status, ''),
		       boutique_items, profile, alterations, tailorings, rents
		FROM tailors
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query upstream tailors: %w", err)
	}
	defer rows.Close()

	var results []TailorRow
	for rows.Next() {
		var row TailorRow
		jsonCols := make([][]byte, len(JSONFieldColumns))
		dest := []interface{}{&row.ID, &row.Name, &row.Email, &row.PhoneNumber, &row.Status}
		for i := range jsonCols {
			dest = append(dest, &jsonCols[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan upstream tailor row: %w", err)
		}

		row.JSONFields = make(map[string]json.RawMessage, len(JSONFieldColumns))
		for i, col := range JSONFieldColumns {
			if len(jsonCols[i]) > 0 {
				row.JSONFields[col] = json.RawMessage(jsonCols[i])
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upstream tailors: %w", err)
	}

	return results, nil
}

func (c *client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
