package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/money"
)

// factory builds a plan variant from a parsed mapping.
type factory func(data map[string]any) (Plan, error)

var registry = map[string]factory{
	"free":     freeFromMapping,
	"flat":     flatFromMapping,
	"per_seat": perSeatFromMapping,
}

// Parse builds a plan from a config string: either the compact
// semicolon-delimited DSL (`flat;PRO;Pro;EUR;20`) or a JSON object.
func Parse(config string) (Plan, error) {
	raw := strings.TrimSpace(config)
	if raw == "" {
		return nil, errs.Configf("empty plan config string")
	}

	var data map[string]any
	if strings.HasPrefix(raw, "{") {
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, errs.Configf("invalid plan config JSON: %v", err)
		}
	} else {
		parsed, err := parseDSL(raw)
		if err != nil {
			return nil, err
		}
		data = parsed
	}

	return FromMapping(data)
}

// FromMapping builds a plan from a structured mapping keyed by "type".
func FromMapping(data map[string]any) (Plan, error) {
	planType := strings.ToLower(strings.TrimSpace(stringField(data, "type")))
	if planType == "" {
		return nil, errs.Configf("missing 'type' in plan config")
	}

	build, ok := registry[planType]
	if !ok {
		return nil, errs.Configf("unknown plan type: %q", planType)
	}
	return build(data)
}

func parseDSL(raw string) (map[string]any, error) {
	parts := strings.Split(raw, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch strings.ToLower(parts[0]) {
	case "free":
		if len(parts) != 4 {
			return nil, errs.Configf("free DSL: free;CODE;NAME;CUR")
		}
		return map[string]any{
			"type": "free", "code": parts[1], "name": parts[2], "currency": parts[3],
		}, nil
	case "flat":
		if len(parts) != 5 {
			return nil, errs.Configf("flat DSL: flat;CODE;NAME;CUR;MONTHLY_PRICE")
		}
		return map[string]any{
			"type": "flat", "code": parts[1], "name": parts[2], "currency": parts[3],
			"monthly_price": parts[4],
		}, nil
	case "per_seat":
		if len(parts) != 6 {
			return nil, errs.Configf("per_seat DSL: per_seat;CODE;NAME;CUR;BASE;PER_SEAT")
		}
		return map[string]any{
			"type": "per_seat", "code": parts[1], "name": parts[2], "currency": parts[3],
			"base": parts[4], "per_seat": parts[5],
		}, nil
	}

	return nil, errs.Configf("unknown DSL plan type: %q", parts[0])
}

func freeFromMapping(data map[string]any) (Plan, error) {
	return NewFree(stringField(data, "code"), stringField(data, "name"), stringField(data, "currency"))
}

func flatFromMapping(data map[string]any) (Plan, error) {
	cur := stringField(data, "currency")
	price, ok := amountField(data, "monthly_price")
	if !ok {
		return nil, errs.Configf("flat plan requires 'monthly_price'")
	}
	monthly, err := money.FromString(price, cur)
	if err != nil {
		return nil, errs.Configf("invalid flat monthly_price: %v", err)
	}
	return NewFlat(stringField(data, "code"), stringField(data, "name"), cur, monthly)
}

func perSeatFromMapping(data map[string]any) (Plan, error) {
	cur := stringField(data, "currency")
	baseRaw, okBase := amountField(data, "base")
	perSeatRaw, okSeat := amountField(data, "per_seat")
	if !okBase || !okSeat {
		return nil, errs.Configf("per_seat plan requires 'base' and 'per_seat'")
	}

	base, err := money.FromString(baseRaw, cur)
	if err != nil {
		return nil, errs.Configf("invalid per_seat base: %v", err)
	}
	perSeat, err := money.FromString(perSeatRaw, cur)
	if err != nil {
		return nil, errs.Configf("invalid per_seat price: %v", err)
	}
	return NewPerSeat(stringField(data, "code"), stringField(data, "name"), cur, base, perSeat)
}

func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// amountField returns a numeric field as its exact string form. JSON
// numbers are kept as json.Number so no float conversion happens.
func amountField(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", false
	}
	switch n := v.(type) {
	case string:
		return n, n != ""
	case json.Number:
		return n.String(), true
	case int:
		return fmt.Sprintf("%d", n), true
	case int64:
		return fmt.Sprintf("%d", n), true
	default:
		return "", false
	}
}
