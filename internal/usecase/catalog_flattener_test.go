package usecase

import (
	"testing"

	"github.com/marketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestDecodeCatalog(t *testing.T) {
	t.Run("decodes array of events", func(t *testing.T) {
		events := DecodeCatalog([]byte(`[{"id":"1","title":"A"},{"id":"2","title":"B"}]`))
		require.Len(t, events, 2)
		assert.Equal(t, "A", events[0]["title"])
		assert.Equal(t, "B", events[1]["title"])
	})

	t.Run("non-array bodies yield no events", func(t *testing.T) {
		bodies := []string{
			`{"events":[]}`,
			`"events"`,
			`null`,
			`42`,
			``,
			`not json`,
			`[{"id":"1"}`,
		}
		for _, body := range bodies {
			events := DecodeCatalog([]byte(body))
			assert.NotNil(t, events, "body %q", body)
			assert.Empty(t, events, "body %q", body)
		}
	})

	t.Run("drops non-object elements", func(t *testing.T) {
		events := DecodeCatalog([]byte(`[1, "two", null, [], {"id":"3"}]`))
		require.Len(t, events, 1)
		assert.Equal(t, "3", events[0]["id"])
	})
}

func TestFlattenCatalog(t *testing.T) {
	t.Run("flattens nested markets", func(t *testing.T) {
		events := DecodeCatalog([]byte(`[
			{
				"title": "Fed decision",
				"endDate": "2026-03-19T00:00:00Z",
				"markets": [
					{
						"id": "m1",
						"question": "Will the Fed cut interest rates in March",
						"outcomes": ["Yes", "No"],
						"outcomePrices": ["0.62", "0.38"],
						"closed": false,
						"liquidity": 1500.5,
						"volume": "20000",
						"volume24hr": 310
					},
					{"slug": "fed-hike", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[0.1, 0.9]"}
				]
			},
			{"title": "Nothing here"},
			{"title": "Bad markets", "markets": "oops"}
		]`))

		records := FlattenCatalog(events)
		require.Len(t, records, 2)

		assert.Equal(t, domain.MarketRecord{
			ID:            "m1",
			Question:      "Will the Fed cut interest rates in March",
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []string{"0.62", "0.38"},
			Closed:        false,
			EndDate:       "2026-03-19T00:00:00Z",
			Liquidity:     floatPtr(1500.5),
			Volume:        floatPtr(20000),
			Volume24hr:    floatPtr(310),
		}, records[0])

		second := records[1]
		assert.Equal(t, "fed-hike", second.ID)
		assert.Equal(t, "Fed decision", second.Question)
		assert.Equal(t, []string{"Yes", "No"}, second.Outcomes)
		assert.Equal(t, []string{"0.1", "0.9"}, second.OutcomePrices)
		assert.Equal(t, "2026-03-19T00:00:00Z", second.EndDate)
		assert.Nil(t, second.Liquidity)
		assert.Nil(t, second.Volume)
		assert.Nil(t, second.Volume24hr)
	})

	t.Run("never panics on hostile input", func(t *testing.T) {
		inputs := []domain.CatalogEvent{
			nil,
			{},
			{"markets": nil},
			{"markets": map[string]any{"id": "x"}},
			{"markets": []any{nil, 1, "market", []any{}}},
			{"markets": []any{map[string]any{}}},
			{"markets": []any{map[string]any{"id": "x", "outcomePrices": "not-json", "outcomes": 7}}},
		}

		var records []domain.MarketRecord
		assert.NotPanics(t, func() {
			records = FlattenCatalog(inputs)
		})
		require.Len(t, records, 1)
		assert.Equal(t, "x", records[0].ID)
		assert.Equal(t, "Untitled", records[0].Question)
		assert.Equal(t, []string{}, records[0].Outcomes)
		assert.Equal(t, []string{}, records[0].OutcomePrices)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FlattenCatalog(nil))
	})
}

func TestFlattenCatalog_Fallbacks(t *testing.T) {
	testCases := []struct {
		name  string
		event string
		check func(t *testing.T, record domain.MarketRecord)
	}{
		{
			name:  "numeric id rendered as text",
			event: `{"markets":[{"id":512345,"question":"Q"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "512345", r.ID)
			},
		},
		{
			name:  "empty id falls back to slug",
			event: `{"markets":[{"id":"","slug":"s","question":"Q"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "s", r.ID)
			},
		},
		{
			name:  "question used as id",
			event: `{"markets":[{"question":"Will it rain?"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "Will it rain?", r.ID)
				assert.Equal(t, "Will it rain?", r.Question)
			},
		},
		{
			name:  "market title before event title",
			event: `{"title":"Event","markets":[{"id":"1","title":"Market title"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "Market title", r.Question)
			},
		},
		{
			name:  "close time before event end date",
			event: `{"endDate":"event-end","markets":[{"id":"1","closeTime":"close"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "close", r.EndDate)
			},
		},
		{
			name:  "no end date anywhere",
			event: `{"markets":[{"id":"1","endDate":42}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.Equal(t, "", r.EndDate)
			},
		},
		{
			name:  "alternate numeric keys",
			event: `{"markets":[{"id":"1","liquidityNum":12.5,"volume":"n/a","volumeNum":99,"volume24hrNum":"7.25"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				require.NotNil(t, r.Liquidity)
				assert.Equal(t, 12.5, *r.Liquidity)
				require.NotNil(t, r.Volume)
				assert.Equal(t, 99.0, *r.Volume)
				require.NotNil(t, r.Volume24hr)
				assert.Equal(t, 7.25, *r.Volume24hr)
			},
		},
		{
			name:  "closed coerced from string",
			event: `{"markets":[{"id":"1","closed":"true"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.True(t, r.Closed)
			},
		},
		{
			name:  "closed coerced from number",
			event: `{"markets":[{"id":"1","closed":1}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.True(t, r.Closed)
			},
		},
		{
			name:  "closed missing",
			event: `{"markets":[{"id":"1"}]}`,
			check: func(t *testing.T, r domain.MarketRecord) {
				assert.False(t, r.Closed)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := FlattenCatalog(DecodeCatalog([]byte("[" + tc.event + "]")))
			require.Len(t, records, 1)
			tc.check(t, records[0])
		})
	}
}

func TestFlattenCatalog_SkipsMarketsWithoutID(t *testing.T) {
	records := FlattenCatalog(DecodeCatalog([]byte(`[{"title":"E","markets":[{"outcomes":["Yes"]},{"id":"ok"}]}]`)))
	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].ID)
}

func TestNormalizeArrayField(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  []string
	}{
		{"native array", []any{"Yes", "No"}, []string{"Yes", "No"}},
		{"json string of strings", `["0.1","0.9"]`, []string{"0.1", "0.9"}},
		{"json string of numbers", "[0.1, 0.9]", []string{"0.1", "0.9"}},
		{"unparseable string", "not-json", []string{}},
		{"json object string", `{"a":1}`, []string{}},
		{"trailing garbage", `["a"] ["b"]`, []string{}},
		{"number", 3, []string{}},
		{"nil", nil, []string{}},
		{"map", map[string]any{"0": "Yes"}, []string{}},
		{"mixed elements keep positions", `["Yes", null, true, {"x":1}]`, []string{"Yes", "", "true", `{"x":1}`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeArrayField(tc.value))
		})
	}
}

func TestMarketID(t *testing.T) {
	assert.Equal(t, "id", MarketID(map[string]any{"id": "id", "slug": "slug", "question": "q"}))
	assert.Equal(t, "slug", MarketID(map[string]any{"id": nil, "slug": "slug", "question": "q"}))
	assert.Equal(t, "q", MarketID(map[string]any{"slug": "", "question": "q"}))
	assert.Equal(t, "", MarketID(map[string]any{"id": true}))
	assert.Equal(t, "", MarketID(nil))
}

func TestFirstNumber(t *testing.T) {
	assert.Nil(t, firstNumber(nil, nil))
	assert.Nil(t, firstNumber("NaN", "Inf"))
	assert.Nil(t, firstNumber(true, map[string]any{}))

	n := firstNumber(" 42.5 ", 1)
	require.NotNil(t, n)
	assert.Equal(t, 42.5, *n)
}
