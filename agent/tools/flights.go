package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// FlightsConfig targets the Amadeus flight-offers API.
type FlightsConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://test.api.amadeus.com"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true"`
	APISecret string        `envconfig:"API_SECRET" split_words:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
	MaxOffers int           `envconfig:"MAX_OFFERS" split_words:"true" default:"5"`
}

// FlightsAdapter searches flight offers. Amadeus wants an OAuth token first;
// the token is cached until shortly before expiry.
type FlightsAdapter struct {
	cfg        FlightsConfig
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewFlightsAdapter(cfg FlightsConfig) *FlightsAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.MaxOffers <= 0 {
		cfg.MaxOffers = 5
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &FlightsAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FlightOffer is the common payload shape for one offer.
type FlightOffer struct {
	PriceTotal  string   `json:"price_total"`
	Currency    string   `json:"currency"`
	Airlines    []string `json:"airlines"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	DepartureAt string   `json:"departure_at"`
	ArrivalAt   string   `json:"arrival_at"`
}

type flightSearchPayload struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Date        string        `json:"date"`
	Count       int           `json:"count"`
	Items       []FlightOffer `json:"items"`
}

func (a *FlightsAdapter) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if strings.TrimSpace(a.cfg.APIKey) == "" || strings.TrimSpace(a.cfg.APISecret) == "" {
		return contractx.Failed(call, contractx.FailureFatal, "amadeus credentials are not configured")
	}

	destCity := stringArg(call.Args, "destination_city")
	date := stringArg(call.Args, "date")
	if destCity == "" || date == "" {
		return contractx.Failed(call, contractx.FailureFatal, "destination_city and date are required")
	}

	destIATA := airportCode(destCity)
	if destIATA == "" {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("no IATA code for destination %q", destCity))
	}
	originIATA := airportCode(stringArg(call.Args, "origin_city"))
	if originIATA == "" {
		originIATA = defaultOriginIATA
	}
	adults := intArg(call.Args, "adults", 1)

	token, failure := a.accessToken(ctx, call)
	if failure != nil {
		return *failure
	}

	query := url.Values{}
	query.Set("originLocationCode", originIATA)
	query.Set("destinationLocationCode", destIATA)
	query.Set("departureDate", date)
	query.Set("adults", strconv.Itoa(adults))
	query.Set("max", strconv.Itoa(a.cfg.MaxOffers))

	endpoint := a.cfg.BaseURL + "/v2/shopping/flight-offers?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, failRes := doJSON(a.httpClient, call, req)
	if failRes != nil {
		return *failRes
	}

	var decoded struct {
		Data []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
			ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
			Itineraries            []struct {
				Segments []struct {
					Departure struct {
						IATACode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"departure"`
					Arrival struct {
						IATACode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"arrival"`
				} `json:"segments"`
			} `json:"itineraries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("decode flight offers: %v", err))
	}

	items := make([]FlightOffer, 0, len(decoded.Data))
	for _, offer := range decoded.Data {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		seg := offer.Itineraries[0].Segments[0]
		items = append(items, FlightOffer{
			PriceTotal:  offer.Price.Total,
			Currency:    offer.Price.Currency,
			Airlines:    offer.ValidatingAirlineCodes,
			From:        seg.Departure.IATACode,
			To:          seg.Arrival.IATACode,
			DepartureAt: seg.Departure.At,
			ArrivalAt:   seg.Arrival.At,
		})
	}

	payload, err := json.Marshal(flightSearchPayload{
		Origin:      originIATA,
		Destination: destIATA,
		Date:        date,
		Count:       len(items),
		Items:       items,
	})
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("marshal payload: %v", err))
	}
	return contractx.Success(call, payload)
}

// accessToken returns a cached client-credentials token, refreshing when
// it is within a minute of expiry.
func (a *FlightsAdapter) accessToken(ctx context.Context, call contractx.ToolCall) (string, *contractx.ToolResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Until(a.tokenExpiry) > time.Minute {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.cfg.APIKey)
	form.Set("client_secret", a.cfg.APISecret)

	endpoint := a.cfg.BaseURL + "/v1/security/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		res := contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("build token request: %v", err))
		return "", &res
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, failRes := doJSON(a.httpClient, call, req)
	if failRes != nil {
		return "", failRes
	}

	var decoded struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.AccessToken == "" {
		res := contractx.Failed(call, contractx.FailureFatal, "token response is malformed")
		return "", &res
	}

	a.token = decoded.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(decoded.ExpiresIn) * time.Second)
	return a.token, nil
}
