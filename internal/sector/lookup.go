package sector

import "StockScope/internal/domain/models"

// Unknown is returned for symbols outside the static table.
const Unknown = "Unknown"

var bySymbol = map[models.Ticker]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Technology",
	"GOOG":  "Technology",
	"NVDA":  "Technology",
	"AMD":   "Technology",
	"INTC":  "Technology",
	"ORCL":  "Technology",
	"CRM":   "Technology",
	"ADBE":  "Technology",
	"AMZN":  "Consumer Cyclical",
	"TSLA":  "Consumer Cyclical",
	"HD":    "Consumer Cyclical",
	"NKE":   "Consumer Cyclical",
	"MCD":   "Consumer Cyclical",
	"META":  "Communication Services",
	"NFLX":  "Communication Services",
	"DIS":   "Communication Services",
	"T":     "Communication Services",
	"VZ":    "Communication Services",
	"JPM":   "Financial Services",
	"BAC":   "Financial Services",
	"WFC":   "Financial Services",
	"GS":    "Financial Services",
	"MS":    "Financial Services",
	"V":     "Financial Services",
	"MA":    "Financial Services",
	"BRKB":  "Financial Services",
	"JNJ":   "Healthcare",
	"PFE":   "Healthcare",
	"UNH":   "Healthcare",
	"MRK":   "Healthcare",
	"ABBV":  "Healthcare",
	"LLY":   "Healthcare",
	"XOM":   "Energy",
	"CVX":   "Energy",
	"COP":   "Energy",
	"SLB":   "Energy",
	"PG":    "Consumer Defensive",
	"KO":    "Consumer Defensive",
	"PEP":   "Consumer Defensive",
	"WMT":   "Consumer Defensive",
	"COST":  "Consumer Defensive",
	"BA":    "Industrials",
	"CAT":   "Industrials",
	"GE":    "Industrials",
	"UPS":   "Industrials",
	"HON":   "Industrials",
	"LIN":   "Basic Materials",
	"FCX":   "Basic Materials",
	"NEE":   "Utilities",
	"DUK":   "Utilities",
	"SO":    "Utilities",
	"AMT":   "Real Estate",
	"PLD":   "Real Estate",
}

// Lookup resolves a ticker to its sector, or Unknown.
func Lookup(ticker models.Ticker) string {
	if s, ok := bySymbol[ticker]; ok {
		return s
	}
	return Unknown
}
