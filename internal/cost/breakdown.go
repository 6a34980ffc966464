package cost

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cu-eval/internal/model"
)

// Breakdown is the per-component cost of one or more documents, in USD.
// The total is always derived from the components.
type Breakdown struct {
	ContentExtraction float64
	FieldExtraction   float64
	Contextualization float64
}

// Total returns the sum of all components.
func (b Breakdown) Total() float64 {
	return b.ContentExtraction + b.FieldExtraction + b.Contextualization
}

// Add returns the component-wise sum of b and o.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		ContentExtraction: b.ContentExtraction + o.ContentExtraction,
		FieldExtraction:   b.FieldExtraction + o.FieldExtraction,
		Contextualization: b.Contextualization + o.Contextualization,
	}
}

// Share returns component as a percentage of the total, or 0 when the total is 0.
func (b Breakdown) Share(component float64) float64 {
	total := b.Total()
	if total <= 0 {
		return 0
	}
	return component / total * 100
}

// Aggregate sums each component across costs. An empty slice yields zero.
func Aggregate(costs []Breakdown) Breakdown {
	var sum Breakdown
	for _, c := range costs {
		sum = sum.Add(c)
	}
	return sum
}

type breakdownJSON struct {
	ContentExtraction float64 `json:"content_extraction"`
	FieldExtraction   float64 `json:"field_extraction"`
	Contextualization float64 `json:"contextualization"`
	Total             float64 `json:"total"`
}

// MarshalJSON emits the components plus the derived total.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(breakdownJSON{
		ContentExtraction: b.ContentExtraction,
		FieldExtraction:   b.FieldExtraction,
		Contextualization: b.Contextualization,
		Total:             b.Total(),
	})
}

// UnmarshalJSON reads the components; a stored total is ignored.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var v breakdownJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "cost: decode breakdown")
	}
	*b = Breakdown{
		ContentExtraction: v.ContentExtraction,
		FieldExtraction:   v.FieldExtraction,
		Contextualization: v.Contextualization,
	}
	return nil
}

// DocumentCost is the cost entry for one analyzed document.
type DocumentCost struct {
	Document string      `json:"document"`
	Usage    model.Usage `json:"usage"`
	Costs    Breakdown   `json:"costs"`
}

// Totals aggregates the costs of all entries.
func Totals(entries []DocumentCost) Breakdown {
	costs := make([]Breakdown, 0, len(entries))
	for _, e := range entries {
		costs = append(costs, e.Costs)
	}
	return Aggregate(costs)
}
