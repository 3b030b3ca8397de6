package score

import (
	"math"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// Calibration divisors chosen so realistic view counts (up to ~10^7) and
// item counts (up to the scan cap) each approach 1.0 before weighting.
const (
	viewsDivisor = 7.0
	itemsDivisor = 3.0

	maxDifficulty = 100

	// Cost proxy in hundredths: 0.05 at difficulty 0, plus 0.095 per point.
	costBaseCents     = 5
	costHalfCentsStep = 19

	trendThresholdPct = 20.0
)

// Weights defines the relative importance of each difficulty factor.
type Weights struct {
	Views float64
	Items float64
}

// DefaultWeights returns the default difficulty weights.
func DefaultWeights() Weights {
	return Weights{
		Views: 60,
		Items: 40,
	}
}

// Input holds the estimator output needed for scoring.
type Input struct {
	EstimatedViews int64
	TotalItemCount int
	// Baseline is the cohort mean of estimated views. Trend is computed
	// only when it is non-nil and non-zero.
	Baseline *float64
}

// Score derives the full metric set for one keyword using DefaultWeights.
func Score(in Input) domain.KeywordMetrics {
	return ScoreWeighted(in, DefaultWeights())
}

// ScoreWeighted derives the full metric set for one keyword.
func ScoreWeighted(in Input, w Weights) domain.KeywordMetrics {
	d := DifficultyWeighted(in.EstimatedViews, in.TotalItemCount, w)

	m := domain.KeywordMetrics{
		EstimatedViews: in.EstimatedViews,
		TotalItemCount: in.TotalItemCount,
		Difficulty:     d,
		CostProxy:      CostProxy(d),
		VolumeBucket:   Volume(in.EstimatedViews),
	}

	if in.Baseline != nil {
		if t, ok := Trend(in.EstimatedViews, *in.Baseline); ok {
			m.Trend = &t
		}
	}

	return m
}

// Difficulty maps views and item count to a 0-100 competitiveness score.
func Difficulty(views int64, items int) int {
	return DifficultyWeighted(views, items, DefaultWeights())
}

// DifficultyWeighted is Difficulty with explicit factor weights.
func DifficultyWeighted(views int64, items int, w Weights) int {
	raw := viewsScore(views)*w.Views + itemsScore(items)*w.Items
	d := int(math.Round(math.Min(maxDifficulty, raw)))
	if d < 0 {
		d = 0
	}
	return d
}

func viewsScore(views int64) float64 {
	return math.Log10(float64(max(views, 0))+1) / viewsDivisor
}

func itemsScore(items int) float64 {
	return math.Log10(float64(max(items, 0))+1) / itemsDivisor
}

// CostProxy maps difficulty linearly onto [0.05, 9.55], rounded to two
// decimals with halves rounded up. The arithmetic is done in half-cents so
// the result never depends on float representation.
func CostProxy(difficulty int) float64 {
	d := min(max(difficulty, 0), maxDifficulty)
	halfCents := 2*costBaseCents + costHalfCentsStep*d
	cents := (halfCents + 1) / 2
	return float64(cents) / 100
}

// Volume returns the highest bucket whose threshold views strictly exceeds.
func Volume(views int64) domain.VolumeBucket {
	switch {
	case views > 1_000_000_000:
		return domain.Volume1B
	case views > 1_000_000:
		return domain.Volume1M
	case views > 500_000:
		return domain.Volume500K
	case views > 100_000:
		return domain.Volume100K
	case views > 10_000:
		return domain.Volume10K
	default:
		return domain.VolumeUnder
	}
}

// Trend classifies views against a cohort baseline. ok is false when the
// baseline is zero and no classification is possible.
func Trend(views int64, baseline float64) (domain.Trend, bool) {
	if baseline == 0 {
		return "", false
	}

	pd := (float64(views) - baseline) / baseline * 100
	switch {
	case pd > trendThresholdPct:
		return domain.TrendUp, true
	case pd < -trendThresholdPct:
		return domain.TrendDown, true
	default:
		return domain.TrendStable, true
	}
}

// Mean returns the arithmetic mean of views, or 0 for an empty cohort.
func Mean(views []int64) float64 {
	if len(views) == 0 {
		return 0
	}
	var sum float64
	for _, v := range views {
		sum += float64(v)
	}
	return sum / float64(len(views))
}

// FormatCount renders n compactly: 950, 1.2K, 3M, 1.5B.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return compact(float64(n)/1_000_000_000) + "B"
	case n >= 1_000_000:
		return compact(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return compact(float64(n)/1_000) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func compact(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}
