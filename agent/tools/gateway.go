package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

// Gateway dispatches a tool call to its adapter. The adapter set is a closed
// variant: unknown names are a fatal failure, not a lookup.
type Gateway struct {
	flights        *FlightsAdapter
	lodging        *LodgingAdapter
	weather        *WeatherAdapter
	events         *EventsAdapter
	transportation *TransportationAdapter
	logger         zerolog.Logger
}

func NewGateway(
	flights *FlightsAdapter,
	lodging *LodgingAdapter,
	weather *WeatherAdapter,
	events *EventsAdapter,
	transportation *TransportationAdapter,
	logger zerolog.Logger,
) *Gateway {
	return &Gateway{
		flights:        flights,
		lodging:        lodging,
		weather:        weather,
		events:         events,
		transportation: transportation,
		logger:         logger,
	}
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func (g *Gateway) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	var res contractx.ToolResult
	switch call.Tool {
	case contractx.ToolFlights:
		res = g.flights.Invoke(ctx, call)
	case contractx.ToolLodging:
		res = g.lodging.Invoke(ctx, call)
	case contractx.ToolWeather:
		res = g.weather.Invoke(ctx, call)
	case contractx.ToolEvents:
		res = g.events.Invoke(ctx, call)
	case contractx.ToolTransportation:
		res = g.transportation.Invoke(ctx, call)
	default:
		res = contractx.Failed(call, contractx.FailureFatal, fmt.Sprintf("unknown tool %q", call.Tool))
	}

	if !res.OK() {
		g.logger.Warn().
			Str("tool", string(call.Tool)).
			Str("kind", string(res.Failure.Kind)).
			Str("reason", res.Failure.Message).
			Msg("tool call failed")
	}
	return res
}

/* --------------------------- shared HTTP plumbing -------------------------- */

// httpFailure maps a transport error or status code onto the failure
// taxonomy: auth and malformed requests are fatal, everything the caller
// could plausibly retry is transient.
func failureFromStatus(status int, body []byte) (contractx.FailureKind, string) {
	msg := fmt.Sprintf("http status=%d body=%s", status, truncate(string(body), 256))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return contractx.FailureFatal, msg
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return contractx.FailureTransient, msg
	case status >= 500:
		return contractx.FailureTransient, msg
	default:
		return contractx.FailureFatal, msg
	}
}

func failureFromTransport(err error) (contractx.FailureKind, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contractx.FailureTransient, "timeout"
	}
	return contractx.FailureTransient, err.Error()
}

// doJSON executes req and returns the body for 2xx responses. Any other
// outcome comes back as a classified failure on the result.
func doJSON(client *http.Client, call contractx.ToolCall, req *http.Request) ([]byte, *contractx.ToolResult) {
	resp, err := client.Do(req)
	if err != nil {
		kind, msg := failureFromTransport(err)
		res := contractx.Failed(call, kind, msg)
		return nil, &res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		res := contractx.Failed(call, contractx.FailureTransient, fmt.Sprintf("read response: %v", err))
		return nil, &res
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		kind, msg := failureFromStatus(resp.StatusCode, body)
		res := contractx.Failed(call, kind, msg)
		return nil, &res
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

/* ----------------------------- argument access ----------------------------- */

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intArg(args map[string]any, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
