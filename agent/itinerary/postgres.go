package itinerary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// ItineraryRow mirrors the itineraries table. The payload column carries the
// full itinerary JSON so the stored shape equals the wire shape.
type ItineraryRow struct {
	bun.BaseModel `bun:"table:itineraries"`

	ID          string    `bun:"id,pk"`
	Destination string    `bun:"destination"`
	Payload     []byte    `bun:"payload,type:jsonb"`
	CreatedAt   time.Time `bun:"created_at"`
}

// PostgresStore persists itineraries in Postgres through bun.
type PostgresStore struct {
	db     *bun.DB
	logger zerolog.Logger
}

// NewPostgresStore builds a store over an existing bun connection.
func NewPostgresStore(db *bun.DB, logger zerolog.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// Save upserts the itinerary keyed by its ID and returns the ID.
func (s *PostgresStore) Save(ctx context.Context, it contractx.Itinerary) (string, error) {
	if it.ID == "" {
		return "", fmt.Errorf("%w: itinerary id is required", contractx.ErrValidation)
	}

	payload, err := json.Marshal(it)
	if err != nil {
		return "", fmt.Errorf("marshal itinerary %s: %w", it.ID, err)
	}

	row := &ItineraryRow{
		ID:          it.ID,
		Destination: it.Destination,
		Payload:     payload,
		CreatedAt:   it.CreatedAt,
	}

	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("destination = EXCLUDED.destination").
		Set("payload = EXCLUDED.payload").
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("insert itinerary %s: %w", it.ID, err)
	}

	s.logger.Debug().Str("itinerary_id", it.ID).Msg("itinerary persisted")
	return it.ID, nil
}

// Load reads one itinerary back by ID.
func (s *PostgresStore) Load(ctx context.Context, id string) (contractx.Itinerary, error) {
	if id == "" {
		return contractx.Itinerary{}, fmt.Errorf("%w: itinerary id is required", contractx.ErrValidation)
	}

	row := new(ItineraryRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.Itinerary{}, fmt.Errorf("%w: %s", contractx.ErrItineraryNotFound, id)
	}
	if err != nil {
		return contractx.Itinerary{}, fmt.Errorf("select itinerary %s: %w", id, err)
	}

	var it contractx.Itinerary
	if err := json.Unmarshal(row.Payload, &it); err != nil {
		return contractx.Itinerary{}, fmt.Errorf("unmarshal itinerary %s: %w", id, err)
	}
	return it, nil
}
