package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// transportQueries are the fixed place searches issued per city.
var transportQueries = []string{
	"public transport",
	"bus station",
	"train station",
	"metro station",
	"airport",
}

const maxTransportResults = 15

// TransportationConfig targets the Google Places text-search API.
type TransportationConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://maps.googleapis.com"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"12s"`
}

type TransportationAdapter struct {
	cfg        TransportationConfig
	httpClient *http.Client
}

func NewTransportationAdapter(cfg TransportationConfig) *TransportationAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &TransportationAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TransportOption is the common payload shape for one transport hub.
type TransportOption struct {
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Rating  float64 `json:"rating,omitempty"`
	PlaceID string  `json:"place_id"`
	Kind    string  `json:"kind"`
}

func (a *TransportationAdapter) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return contractx.Failed(call, contractx.FailureFatal, "google maps api key is not configured")
	}

	city := stringArg(call.Args, "city")
	if city == "" {
		return contractx.Failed(call, contractx.FailureFatal, "city is required")
	}

	queries := transportQueries
	if mode := stringArg(call.Args, "mode"); mode != "" {
		queries = append([]string{mode + " station"}, queries...)
	}

	seen := map[string]struct{}{}
	options := make([]TransportOption, 0, maxTransportResults)

	for _, q := range queries {
		query := url.Values{}
		query.Set("query", q+" in "+city)
		query.Set("key", a.cfg.APIKey)

		endpoint := a.cfg.BaseURL + "/maps/api/place/textsearch/json?" + query.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("build request: %v", err))
		}

		body, failRes := doJSON(a.httpClient, call, req)
		if failRes != nil {
			return *failRes
		}

		var decoded struct {
			Status  string `json:"status"`
			Results []struct {
				Name             string  `json:"name"`
				FormattedAddress string  `json:"formatted_address"`
				Rating           float64 `json:"rating"`
				PlaceID          string  `json:"place_id"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &decoded); err != nil {
			return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("decode places: %v", err))
		}

		switch decoded.Status {
		case "OK", "ZERO_RESULTS":
		case "OVER_QUERY_LIMIT":
			return contractx.Failed(call, contractx.FailureTransient, "places api over query limit")
		case "REQUEST_DENIED", "INVALID_REQUEST":
			return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("places api status=%s", decoded.Status))
		default:
			return contractx.Failed(call, contractx.FailureTransient, fmt.Sprintf("places api status=%s", decoded.Status))
		}

		for _, p := range decoded.Results {
			if p.PlaceID == "" {
				continue
			}
			if _, dup := seen[p.PlaceID]; dup {
				continue
			}
			seen[p.PlaceID] = struct{}{}
			options = append(options, TransportOption{
				Name:    p.Name,
				Address: p.FormattedAddress,
				Rating:  p.Rating,
				PlaceID: p.PlaceID,
				Kind:    q,
			})
		}
		if len(options) >= maxTransportResults {
			options = options[:maxTransportResults]
			break
		}
	}

	payload, err := json.Marshal(options)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("marshal payload: %v", err))
	}
	return contractx.Success(call, payload)
}
