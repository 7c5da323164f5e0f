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

// EventsConfig targets the Ticketmaster Discovery API.
type EventsConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://app.ticketmaster.com"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"12s"`
	MaxEvents int           `envconfig:"MAX_EVENTS" split_words:"true" default:"10"`
}

type EventsAdapter struct {
	cfg        EventsConfig
	httpClient *http.Client
}

func NewEventsAdapter(cfg EventsConfig) *EventsAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 10
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &EventsAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Event is the common payload shape for one local event.
type Event struct {
	Name  string `json:"name"`
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
	URL   string `json:"url,omitempty"`
	Venue string `json:"venue,omitempty"`
}

func (a *EventsAdapter) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return contractx.Failed(call, contractx.FailureFatal, "ticketmaster api key is not configured")
	}

	city := stringArg(call.Args, "city")
	if city == "" {
		return contractx.Failed(call, contractx.FailureFatal, "city is required")
	}

	query := url.Values{}
	query.Set("apikey", a.cfg.APIKey)
	query.Set("city", city)
	query.Set("size", fmt.Sprint(a.cfg.MaxEvents))
	query.Set("sort", "date,asc")
	if date := stringArg(call.Args, "date"); date != "" {
		query.Set("startDateTime", date+"T00:00:00Z")
	}

	endpoint := a.cfg.BaseURL + "/discovery/v2/events.json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("build request: %v", err))
	}

	body, failRes := doJSON(a.httpClient, call, req)
	if failRes != nil {
		return *failRes
	}

	var decoded struct {
		Embedded struct {
			Events []struct {
				Name  string `json:"name"`
				URL   string `json:"url"`
				Dates struct {
					Start struct {
						LocalDate string `json:"localDate"`
						LocalTime string `json:"localTime"`
					} `json:"start"`
				} `json:"dates"`
				Embedded struct {
					Venues []struct {
						Name string `json:"name"`
					} `json:"venues"`
				} `json:"_embedded"`
			} `json:"events"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("decode events: %v", err))
	}

	events := make([]Event, 0, len(decoded.Embedded.Events))
	for i, e := range decoded.Embedded.Events {
		if i >= a.cfg.MaxEvents {
			break
		}
		venue := ""
		if len(e.Embedded.Venues) > 0 {
			venue = e.Embedded.Venues[0].Name
		}
		events = append(events, Event{
			Name:  e.Name,
			Date:  e.Dates.Start.LocalDate,
			Time:  e.Dates.Start.LocalTime,
			URL:   e.URL,
			Venue: venue,
		})
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("marshal payload: %v", err))
	}
	return contractx.Success(call, payload)
}
