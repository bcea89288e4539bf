package ai

// modelPrice is the cost per 1K tokens in US dollars, split by direction.
// Prices are static; the upstream bills per token but publishes per-1K
// rates.
type modelPrice struct {
	InputPer1K  float64
	OutputPer1K float64
}

var priceTable = map[string]modelPrice{
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":   {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
}

// Unknown models bill at the most expensive known rate rather than zero,
// so a typo never hides spend.
var fallbackPrice = modelPrice{InputPer1K: 0.01, OutputPer1K: 0.03}

// ComputeCost returns the dollar cost of a completion from its token counts
func ComputeCost(model string, promptTokens, completionTokens int) float64 {
	price, ok := priceTable[model]
	if !ok {
		price = fallbackPrice
	}

	return float64(promptTokens)/1000*price.InputPer1K +
		float64(completionTokens)/1000*price.OutputPer1K
}
