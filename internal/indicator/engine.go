package indicator

import (
	"StockScope/internal/domain/models"
)

// Minimum history per indicator window. An indicator whose window exceeds
// the series length yields the insufficient-data marker rather than failing
// the whole set.
const (
	smaShortWindow = 20
	smaLongWindow  = 50
	emaFastWindow  = 12
	emaSlowWindow  = 26
	rsiWindow      = 14
	volumeWindow   = 20
)

// Engine computes the fixed indicator set from one price series snapshot.
type Engine struct{}

// NewEngine creates an indicator engine.
func NewEngine() *Engine { return &Engine{} }

// Compute derives all indicators from the series. An empty series is an
// error; a short series degrades individual indicators to the
// insufficient-data marker.
func (e *Engine) Compute(series *models.PriceSeries) (models.IndicatorSet, error) {
	if series == nil || series.Len() == 0 {
		return nil, models.ErrInsufficientData
	}

	closes := series.Closes()
	volumes := series.Volumes()

	set := models.IndicatorSet{
		"moving-average-20":             sma(closes, smaShortWindow),
		"moving-average-50":             sma(closes, smaLongWindow),
		"exponential-moving-average-12": ema(closes, emaFastWindow),
		"exponential-moving-average-26": ema(closes, emaSlowWindow),
		"macd-12-26":                    macd(closes),
		"relative-strength-index-14":    rsi(closes, rsiWindow),
		"volume-average-20":             sma(volumes, volumeWindow),
		"last-close":                    models.Number(closes[len(closes)-1]),
	}
	return set, nil
}

// sma is the simple average of the last n values.
func sma(values []float64, n int) models.IndicatorValue {
	if len(values) < n {
		return models.Insufficient()
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return models.Number(sum / float64(n))
}

// ema seeds with the SMA of the first n values, then folds the rest with
// smoothing factor 2/(n+1).
func ema(values []float64, n int) models.IndicatorValue {
	v, ok := emaValue(values, n)
	if !ok {
		return models.Insufficient()
	}
	return models.Number(v)
}

func emaValue(values []float64, n int) (float64, bool) {
	if len(values) < n {
		return 0, false
	}
	var seed float64
	for _, v := range values[:n] {
		seed += v
	}
	cur := seed / float64(n)

	k := 2.0 / float64(n+1)
	for _, v := range values[n:] {
		cur = v*k + cur*(1-k)
	}
	return cur, true
}

// macd is the fast EMA minus the slow EMA.
func macd(values []float64) models.IndicatorValue {
	fast, okFast := emaValue(values, emaFastWindow)
	slow, okSlow := emaValue(values, emaSlowWindow)
	if !okFast || !okSlow {
		return models.Insufficient()
	}
	return models.Number(fast - slow)
}

// rsi uses Wilder smoothing over n periods. Needs n+1 closes for n deltas.
func rsi(values []float64, n int) models.IndicatorValue {
	if len(values) < n+1 {
		return models.Insufficient()
	}

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)

	for i := n + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
	}

	if avgLoss == 0 {
		return models.Number(100)
	}
	rs := avgGain / avgLoss
	return models.Number(100 - 100/(1+rs))
}
