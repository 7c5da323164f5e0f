package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

const defaultLodgingLimit = 5

// ListingRow mirrors one row of the airbnb_listings table.
type ListingRow struct {
	bun.BaseModel `bun:"table:airbnb_listings"`

	ID            int64           `bun:"id,pk" json:"id"`
	City          string          `bun:"city" json:"city"`
	RoomType      string          `bun:"room_type" json:"room_type"`
	Price         float64         `bun:"price" json:"price"`
	OverallRating sql.NullFloat64 `bun:"overall_rating" json:"-"`
	DayType       string          `bun:"day_type" json:"day_type,omitempty"`
	Latitude      float64         `bun:"latitude" json:"latitude,omitempty"`
	Longitude     float64         `bun:"longitude" json:"longitude,omitempty"`
}

// Listing is the common payload shape for one lodging option.
type Listing struct {
	ID       int64   `json:"id"`
	City     string  `json:"city"`
	RoomType string  `json:"room_type"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating,omitempty"`
	DayType  string  `json:"day_type,omitempty"`
}

// LodgingAdapter serves lodging from the listings table rather than an
// external API; the dataset is ingested out-of-band.
type LodgingAdapter struct {
	db *bun.DB
}

func NewLodgingAdapter(db *bun.DB) *LodgingAdapter {
	return &LodgingAdapter{db: db}
}

func (a *LodgingAdapter) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if a.db == nil {
		return contractx.Failed(call, contractx.FailureFatal, "lodging database is not configured")
	}

	city := stringArg(call.Args, "city")
	if city == "" {
		return contractx.Failed(call, contractx.FailureFatal, "city is required")
	}
	limit := intArg(call.Args, "limit", defaultLodgingLimit)
	if limit <= 0 || limit > 50 {
		limit = defaultLodgingLimit
	}

	q := a.db.NewSelect().
		Model((*ListingRow)(nil)).
		Where("LOWER(city) = LOWER(?)", city).
		OrderExpr("overall_rating DESC NULLS LAST").
		Limit(limit)
	if dayType := normalizeDayType(stringArg(call.Args, "day_type")); dayType != "" {
		q = q.Where("day_type = ?", dayType)
	}

	var rows []ListingRow
	if err := q.Scan(ctx, &rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.Success(call, nil)
		}
		// Connection-level trouble is worth retrying once; there is no
		// auth distinction to draw at this boundary.
		return contractx.Failed(call, contractx.FailureTransient, fmt.Sprintf("query listings: %v", err))
	}

	listings := make([]Listing, 0, len(rows))
	for _, row := range rows {
		l := Listing{
			ID:       row.ID,
			City:     row.City,
			RoomType: row.RoomType,
			Price:    row.Price,
			DayType:  row.DayType,
		}
		if row.OverallRating.Valid {
			l.Rating = row.OverallRating.Float64
		}
		listings = append(listings, l)
	}

	payload, err := json.Marshal(listings)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("marshal payload: %v", err))
	}
	return contractx.Success(call, payload)
}

func normalizeDayType(raw string) string {
	switch strings.ToLower(raw) {
	case "weekdays", "weekends":
		return strings.ToLower(raw)
	default:
		return ""
	}
}
