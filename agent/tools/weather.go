package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// WeatherConfig targets the OpenWeather 5-day forecast API.
type WeatherConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openweathermap.org"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// WeatherAdapter aggregates the 3-hourly forecast entries of the requested
// date into one daily summary: mean temperatures and the most frequent
// condition.
type WeatherAdapter struct {
	cfg        WeatherConfig
	httpClient *http.Client
}

func NewWeatherAdapter(cfg WeatherConfig) *WeatherAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &WeatherAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DailyForecast is the common payload shape for one forecast day.
type DailyForecast struct {
	City        string  `json:"city"`
	Date        string  `json:"date"`
	AvgTempC    float64 `json:"avg_temp_c"`
	AvgFeelsC   float64 `json:"avg_feels_like_c"`
	Condition   string  `json:"condition"`
	HumidityPct float64 `json:"humidity_pct"`
	WindMS      float64 `json:"wind_ms"`
}

func (a *WeatherAdapter) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return contractx.Failed(call, contractx.FailureFatal, "openweather api key is not configured")
	}

	city := stringArg(call.Args, "city")
	date := stringArg(call.Args, "date")
	if city == "" || date == "" {
		return contractx.Failed(call, contractx.FailureFatal, "city and date are required")
	}
	targetDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("invalid date %q", date))
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", a.cfg.APIKey)
	query.Set("units", "metric")

	endpoint := a.cfg.BaseURL + "/data/2.5/forecast?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("build request: %v", err))
	}

	body, failRes := doJSON(a.httpClient, call, req)
	if failRes != nil {
		return *failRes
	}

	var decoded struct {
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		List []struct {
			DT   int64 `json:"dt"`
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  float64 `json:"humidity"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("decode forecast: %v", err))
	}

	var (
		temps, feels, hums, winds float64
		n                         int
		conditions                = map[string]int{}
	)
	for _, entry := range decoded.List {
		if time.Unix(entry.DT, 0).UTC().Format("2006-01-02") != targetDate.Format("2006-01-02") {
			continue
		}
		temps += entry.Main.Temp
		feels += entry.Main.FeelsLike
		hums += entry.Main.Humidity
		winds += entry.Wind.Speed
		if len(entry.Weather) > 0 {
			conditions[entry.Weather[0].Description]++
		}
		n++
	}

	// The free forecast only covers ~5 days; outside that window there is
	// simply no data, which is a valid empty result.
	if n == 0 {
		return contractx.Success(call, nil)
	}

	cityName := decoded.City.Name
	if cityName == "" {
		cityName = city
	}
	payload, err := json.Marshal(DailyForecast{
		City:        cityName,
		Date:        date,
		AvgTempC:    round1(temps / float64(n)),
		AvgFeelsC:   round1(feels / float64(n)),
		Condition:   mostFrequent(conditions),
		HumidityPct: round1(hums / float64(n)),
		WindMS:      round1(winds / float64(n)),
	})
	if err != nil {
		return contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("marshal payload: %v", err))
	}
	return contractx.Success(call, payload)
}

func mostFrequent(counts map[string]int) string {
	best, bestN := "", 0
	for cond, n := range counts {
		if n > bestN || (n == bestN && cond < best) {
			best, bestN = cond, n
		}
	}
	return best
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
