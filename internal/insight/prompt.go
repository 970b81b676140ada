package insight

import (
	"fmt"
	"strings"

	"StockScope/internal/domain/models"
)

// BuildPrompt renders the indicator summary sent to the backend. Indicator
// lines follow the set's lexical order so the same inputs always produce the
// same prompt.
func BuildPrompt(ticker models.Ticker, set models.IndicatorSet, sector string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\n", ticker)
	if sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", sector)
	}
	b.WriteString("Indicators:\n")
	for _, name := range set.Names() {
		v := set[name]
		if v.Valid {
			fmt.Fprintf(&b, "- %s: %.4f\n", name, v.Value)
		} else {
			fmt.Fprintf(&b, "- %s: insufficient-data\n", name)
		}
	}
	return b.String()
}
