package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// PlaceRow mirrors one row of the places table.
type PlaceRow struct {
	bun.BaseModel `bun:"table:places"`

	ID          int64   `bun:"id,pk"`
	Name        string  `bun:"name"`
	City        string  `bun:"city"`
	Category    string  `bun:"category"`
	Description string  `bun:"description"`
	Rating      float64 `bun:"rating"`
}

// Ingestor loads place rows from Postgres and indexes one embedding per row.
type Ingestor struct {
	db       *bun.DB
	embedder contractx.Embedder
	store    *Store
	logger   zerolog.Logger
}

func NewIngestor(db *bun.DB, embedder contractx.Embedder, store *Store, logger zerolog.Logger) (*Ingestor, error) {
	if db == nil {
		return nil, fmt.Errorf("ingestor: db is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingestor: embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestor: store is required")
	}
	return &Ingestor{db: db, embedder: embedder, store: store, logger: logger}, nil
}

// IngestPlaces indexes every places row, one vector per row. Rows whose
// embedding fails are skipped and logged; ingest keeps going.
func (ig *Ingestor) IngestPlaces(ctx context.Context) (int, error) {
	var rows []PlaceRow
	if err := ig.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return 0, fmt.Errorf("ingestor: select places: %w", err)
	}

	indexed := 0
	for _, row := range rows {
		text := placeSnippet(row)
		if text == "" {
			continue
		}

		emb, err := ig.embedder.Embed(ctx, text)
		if err != nil {
			ig.logger.Warn().Err(err).Int64("place_id", row.ID).Msg("skip place: embedding failed")
			continue
		}

		id := fmt.Sprintf("places:%d", row.ID)
		if err := ig.store.Add(id, text, emb, map[string]any{
			"city":     row.City,
			"category": row.Category,
			"rating":   row.Rating,
		}); err != nil {
			ig.logger.Warn().Err(err).Str("source_id", id).Msg("skip place: index rejected vector")
			continue
		}
		indexed++
	}

	ig.logger.Info().Int("rows", len(rows)).Int("indexed", indexed).Msg("places ingest finished")
	return indexed, nil
}

func placeSnippet(row PlaceRow) string {
	parts := make([]string, 0, 3)
	if v := strings.TrimSpace(row.Name); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(row.City); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(row.Description); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " | ")
}
