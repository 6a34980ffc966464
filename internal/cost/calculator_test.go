package cost

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cu-eval/internal/model"
)

func usage(pages, in, out, ctx int) model.Usage {
	return model.Usage{
		DocumentPages: pages,
		Tokens:        model.TokenUsage{Input: in, Output: out, Contextualization: ctx},
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Mode
	}{
		{"pro", ModePro},
		{"PRO", ModePro},
		{" Pro ", ModePro},
		{"standard", ModeStandard},
		{"Standard", ModeStandard},
		{"", ModeStandard},
		{"premium", ModeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseMode(tt.in))
		})
	}
}

func TestDocument(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name    string
		usage   model.Usage
		mode    Mode
		content float64
		field   float64
		context float64
		total   float64
	}{
		{
			name:  "standard tier",
			usage: usage(2000, 1000000, 1000000, 1000000),
			mode:  ModeStandard,
			// 2000/1000*5 = 10; 2.75 + 11.00; 1.00
			content: 10.00, field: 13.75, context: 1.00, total: 24.75,
		},
		{
			name:  "pro tier",
			usage: usage(2000, 1000000, 1000000, 1000000),
			mode:  ModePro,
			// 2000/1000*5 = 10; 1.21 + 4.84; 1.50
			content: 10.00, field: 6.05, context: 1.50, total: 17.55,
		},
		{
			name:    "single page no tokens",
			usage:   usage(1, 0, 0, 0),
			mode:    ModeStandard,
			content: 0.005, total: 0.005,
		},
		{
			name:  "zero usage",
			usage: model.Usage{},
			mode:  ModePro,
		},
		{
			name:    "small token counts",
			usage:   usage(3, 2150, 480, 1000),
			mode:    ModeStandard,
			content: 0.015,
			field:   2150.0/1e6*2.75 + 480.0/1e6*11.0,
			context: 1000.0 / 1e6 * 1.0,
			total:   0.015 + 2150.0/1e6*2.75 + 480.0/1e6*11.0 + 1000.0/1e6*1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Document(tt.usage, tt.mode)
			assert.InDelta(t, tt.content, got.ContentExtraction, 1e-9)
			assert.InDelta(t, tt.field, got.FieldExtraction, 1e-9)
			assert.InDelta(t, tt.context, got.Contextualization, 1e-9)
			assert.InDelta(t, tt.total, got.Total(), 1e-9)
		})
	}
}

func TestDocument_ModeStringIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())
	u := usage(10, 500000, 500000, 500000)

	assert.Equal(t, calc.Document(u, ModePro), calc.Document(u, ParseMode("PrO")))
	assert.Equal(t, calc.Document(u, ModeStandard), calc.Document(u, ParseMode("unknown")))
}

func TestBreakdown_TotalIsSumOfParts(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	for _, u := range []model.Usage{
		usage(7, 12345, 678, 91011),
		usage(0, 0, 0, 0),
		usage(999, 1, 2, 3),
	} {
		b := calc.Document(u, ModeStandard)
		assert.Equal(t, b.ContentExtraction+b.FieldExtraction+b.Contextualization, b.Total())
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	c1 := Breakdown{ContentExtraction: 1, FieldExtraction: 2, Contextualization: 3}
	c2 := Breakdown{ContentExtraction: 0.5, FieldExtraction: 0.25, Contextualization: 0.125}

	got := Aggregate([]Breakdown{c1, c2})
	assert.Equal(t, Breakdown{ContentExtraction: 1.5, FieldExtraction: 2.25, Contextualization: 3.125}, got)
	assert.Equal(t, got, Aggregate([]Breakdown{c2, c1}))
	assert.InDelta(t, c1.Total()+c2.Total(), got.Total(), 1e-12)

	assert.Equal(t, Breakdown{}, Aggregate(nil))
	assert.Equal(t, 0.0, Aggregate([]Breakdown{}).Total())
}

func TestBreakdown_Share(t *testing.T) {
	t.Parallel()

	b := Breakdown{ContentExtraction: 1, FieldExtraction: 3}
	assert.InDelta(t, 25.0, b.Share(b.ContentExtraction), 1e-9)
	assert.InDelta(t, 75.0, b.Share(b.FieldExtraction), 1e-9)
	assert.Equal(t, 0.0, Breakdown{}.Share(0))
}

func TestBreakdown_JSON(t *testing.T) {
	t.Parallel()

	b := Breakdown{ContentExtraction: 10, FieldExtraction: 13.75, Contextualization: 1}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content_extraction":10,"field_extraction":13.75,"contextualization":1,"total":24.75}`, string(data))

	var back Breakdown
	require.NoError(t, json.Unmarshal([]byte(`{"content_extraction":1,"field_extraction":2,"contextualization":3,"total":999}`), &back))
	assert.Equal(t, 6.0, back.Total())
}

func TestTotals(t *testing.T) {
	t.Parallel()

	entries := []DocumentCost{
		{Document: "a.pdf", Costs: Breakdown{ContentExtraction: 1}},
		{Document: "b.pdf", Costs: Breakdown{FieldExtraction: 2}},
	}
	assert.Equal(t, Breakdown{ContentExtraction: 1, FieldExtraction: 2}, Totals(entries))
	assert.Equal(t, Breakdown{}, Totals(nil))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.InDelta(t, 5.00, rates.ContentPer1KPages, 0.001)
	assert.InDelta(t, 2.75, rates.Tier(ModeStandard).Input, 0.001)
	assert.InDelta(t, 11.00, rates.Tier(ModeStandard).Output, 0.001)
	assert.InDelta(t, 1.00, rates.Tier(ModeStandard).Contextualization, 0.001)
	assert.InDelta(t, 1.21, rates.Tier(ModePro).Input, 0.001)
	assert.InDelta(t, 4.84, rates.Tier(ModePro).Output, 0.001)
	assert.InDelta(t, 1.50, rates.Tier(ModePro).Contextualization, 0.001)
}
