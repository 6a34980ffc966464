package cost

import (
	"strings"

	"github.com/sells-group/cu-eval/internal/model"
)

// Mode is a pricing tier of the analysis service.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModePro      Mode = "pro"
)

// ParseMode maps a mode string to a pricing tier. Matching is
// case-insensitive and anything other than "pro" is standard.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModePro)) {
		return ModePro
	}
	return ModeStandard
}

// Rates holds the pricing table.
type Rates struct {
	ContentPer1KPages float64  `json:"content_per_1k_pages" yaml:"content_per_1k_pages" mapstructure:"content_per_1k_pages"`
	Standard          TierRate `json:"standard" yaml:"standard" mapstructure:"standard"`
	Pro               TierRate `json:"pro" yaml:"pro" mapstructure:"pro"`
}

// TierRate holds per-mode token pricing (USD per million tokens).
type TierRate struct {
	Input             float64 `json:"input" yaml:"input" mapstructure:"input"`
	Output            float64 `json:"output" yaml:"output" mapstructure:"output"`
	Contextualization float64 `json:"contextualization" yaml:"contextualization" mapstructure:"contextualization"`
}

// Tier returns the token rates for the given mode.
func (r Rates) Tier(mode Mode) TierRate {
	if mode == ModePro {
		return r.Pro
	}
	return r.Standard
}

// DefaultRates returns the published pricing rates.
func DefaultRates() Rates {
	return Rates{
		ContentPer1KPages: 5.00,
		Standard:          TierRate{Input: 2.75, Output: 11.00, Contextualization: 1.00},
		Pro:               TierRate{Input: 1.21, Output: 4.84, Contextualization: 1.50},
	}
}

// Calculator computes document costs from usage records.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rates returns the calculator's pricing table.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// Document computes the cost breakdown for one analyzed document.
// Content extraction is priced per page regardless of mode; token classes
// use the mode's rates. Nothing is rounded here.
func (c *Calculator) Document(usage model.Usage, mode Mode) Breakdown {
	tier := c.rates.Tier(mode)
	return Breakdown{
		ContentExtraction: (float64(usage.DocumentPages) / 1000) * c.rates.ContentPer1KPages,
		FieldExtraction: (float64(usage.Tokens.Input)/1e6)*tier.Input +
			(float64(usage.Tokens.Output)/1e6)*tier.Output,
		Contextualization: (float64(usage.Tokens.Contextualization) / 1e6) * tier.Contextualization,
	}
}
