package extractor

import (
	"fmt"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

type argKind int

const (
	argString argKind = iota
	argInt
)

type argSpec struct {
	kind     argKind
	required bool
}

// toolSchemas is the fixed argument contract per tool. Calls whose args do
// not satisfy their schema are dropped before they reach an adapter.
var toolSchemas = map[contractx.ToolName]map[string]argSpec{
	contractx.ToolFlights: {
		"origin_city":      {kind: argString},
		"destination_city": {kind: argString, required: true},
		"date":             {kind: argString, required: true},
		"adults":           {kind: argInt},
	},
	contractx.ToolLodging: {
		"city":     {kind: argString, required: true},
		"day_type": {kind: argString},
		"limit":    {kind: argInt},
	},
	contractx.ToolWeather: {
		"city": {kind: argString, required: true},
		"date": {kind: argString, required: true},
	},
	contractx.ToolEvents: {
		"city": {kind: argString, required: true},
		"date": {kind: argString},
	},
	contractx.ToolTransportation: {
		"city": {kind: argString, required: true},
		"mode": {kind: argString},
	},
}

// validateToolCall checks a call against its schema: the tool must be a
// known variant, required args must be present, and every arg must be a
// declared primitive. Unknown args are rejected rather than forwarded.
func validateToolCall(call contractx.ToolCall) error {
	schema, ok := toolSchemas[call.Tool]
	if !ok {
		return fmt.Errorf("%w: unknown tool %q", contractx.ErrSchemaViolation, call.Tool)
	}

	for name, spec := range schema {
		raw, present := call.Args[name]
		if !present {
			if spec.required {
				return fmt.Errorf("%w: tool=%s missing required arg %q", contractx.ErrSchemaViolation, call.Tool, name)
			}
			continue
		}
		if err := checkArgKind(raw, spec.kind); err != nil {
			return fmt.Errorf("%w: tool=%s arg %q: %v", contractx.ErrSchemaViolation, call.Tool, name, err)
		}
	}

	for name := range call.Args {
		if _, ok := schema[name]; !ok {
			return fmt.Errorf("%w: tool=%s unexpected arg %q", contractx.ErrSchemaViolation, call.Tool, name)
		}
	}
	return nil
}

func checkArgKind(raw any, kind argKind) error {
	switch kind {
	case argString:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", raw)
		}
		if s == "" {
			return fmt.Errorf("expected non-empty string")
		}
	case argInt:
		switch v := raw.(type) {
		case int:
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("expected integer, got fraction %v", v)
			}
		default:
			return fmt.Errorf("expected integer, got %T", raw)
		}
	}
	return nil
}
