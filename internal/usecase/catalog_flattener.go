package usecase

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/marketlens/backend/internal/domain"
)

// untitledQuestion is used when neither the market nor its event has a title
const untitledQuestion = "Untitled"

// DecodeCatalog decodes a catalog response body into events. A body that is
// not a JSON array yields no events, and array elements that are not objects
// are dropped.
func DecodeCatalog(body []byte) []domain.CatalogEvent {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return []domain.CatalogEvent{}
	}

	events := make([]domain.CatalogEvent, 0, len(items))
	for _, item := range items {
		value, ok := decodeJSON(item)
		if !ok {
			continue
		}
		if event, ok := value.(map[string]any); ok {
			events = append(events, domain.CatalogEvent(event))
		}
	}
	return events
}

// FlattenCatalog converts events into a flat list of market records.
// It never fails: malformed events, markets and fields degrade to defaults.
func FlattenCatalog(events []domain.CatalogEvent) []domain.MarketRecord {
	records := make([]domain.MarketRecord, 0)

	for _, event := range events {
		markets, ok := event["markets"].([]any)
		if !ok {
			continue
		}

		for _, item := range markets {
			market, ok := item.(map[string]any)
			if !ok {
				continue
			}

			id := MarketID(market)
			if id == "" {
				continue
			}

			records = append(records, domain.MarketRecord{
				ID:            id,
				Question:      firstString(untitledQuestion, market["question"], market["title"], event["title"]),
				Outcomes:      normalizeArrayField(market["outcomes"]),
				OutcomePrices: normalizeArrayField(market["outcomePrices"]),
				Closed:        coerceBool(market["closed"]),
				EndDate:       firstString("", market["endDate"], market["closeTime"], event["endDate"]),
				Liquidity:     firstNumber(market["liquidity"], market["liquidityNum"]),
				Volume:        firstNumber(market["volume"], market["volumeNum"]),
				Volume24hr:    firstNumber(market["volume24hr"], market["volume24hrNum"]),
			})
		}
	}

	return records
}

// MarketID derives the identifier of a raw catalog market: its id, then its
// slug, then its question text. It returns "" when none is present.
func MarketID(market map[string]any) string {
	for _, key := range []string{"id", "slug", "question"} {
		if s := scalarString(market[key]); s != "" {
			return s
		}
	}
	return ""
}

// normalizeArrayField reads a field that is either a JSON array or a string
// holding a JSON-encoded array. Anything else yields an empty slice. Element
// positions are always preserved so correlated fields stay aligned.
func normalizeArrayField(value any) []string {
	if s, ok := value.(string); ok {
		parsed, ok := decodeJSON([]byte(s))
		if !ok {
			return []string{}
		}
		value = parsed
	}

	items, ok := value.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = elementString(item)
	}
	return out
}

// elementString renders an array element as a string
func elementString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// scalarString returns strings and numbers as text, anything else as ""
func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// firstString returns the first non-empty string among values, or fallback
func firstString(fallback string, values ...any) string {
	for _, value := range values {
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// firstNumber returns the first value that is a finite number or numeric string
func firstNumber(values ...any) *float64 {
	for _, value := range values {
		var text string
		switch v := value.(type) {
		case json.Number:
			text = v.String()
		case string:
			text = strings.TrimSpace(v)
		default:
			continue
		}

		n, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			continue
		}
		return &n
	}
	return nil
}

// coerceBool interprets a loosely typed flag
func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case json.Number:
		n, err := v.Float64()
		return err == nil && n != 0
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	default:
		return false
	}
}

// decodeJSON decodes a single JSON value keeping numbers as json.Number
func decodeJSON(data []byte) (any, bool) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	// Reject trailing content such as `[1] [2]`
	if _, err := decoder.Token(); err != io.EOF {
		return nil, false
	}
	return value, true
}
