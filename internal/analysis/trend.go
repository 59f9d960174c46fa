// Trend classification strategies.
//
// Two independently-thresholded policies exist and must stay separate:
// the strict ±5% policy backs the pattern analyzer's trend report, the
// coarse ±10% policy backs the alerting-path spending forecast. Merging
// them would silently change observable classifications.
package analysis

import (
	"fmt"

	"finsight/internal/stats"
)

type TrendClass string

const (
	TrendRising  TrendClass = "rising"
	TrendFalling TrendClass = "falling"
	TrendStable  TrendClass = "stable"
)

// Trend policy names.
const (
	PolicyStrict = "strict"
	PolicyCoarse = "coarse"
)

// TrendClassifier is the strategy interface mapping a percentage variation
// to a trend class. Boundaries are exclusive: a variation exactly at the
// threshold classifies as stable.
type TrendClassifier interface {
	Classify(variationPercent float64) TrendClass
}

// StrictClassifier applies the ±5% thresholds used by the pattern analyzer.
type StrictClassifier struct{}

func (StrictClassifier) Classify(variationPercent float64) TrendClass {
	switch {
	case variationPercent > 5:
		return TrendRising
	case variationPercent < -5:
		return TrendFalling
	default:
		return TrendStable
	}
}

// CoarseClassifier applies the ±10% thresholds used by the alerting-path
// spending forecast.
type CoarseClassifier struct{}

func (CoarseClassifier) Classify(variationPercent float64) TrendClass {
	switch {
	case variationPercent > 10:
		return TrendRising
	case variationPercent < -10:
		return TrendFalling
	default:
		return TrendStable
	}
}

var trendPolicies = map[string]TrendClassifier{
	PolicyStrict: StrictClassifier{},
	PolicyCoarse: CoarseClassifier{},
}

// GetTrendClassifier returns the classifier registered under the policy
// name. Returns an error for an unknown policy.
func GetTrendClassifier(policy string) (TrendClassifier, error) {
	c, ok := trendPolicies[policy]
	if !ok {
		return nil, fmt.Errorf("unknown trend policy: %s", policy)
	}
	return c, nil
}

// splitVariation splits an ordered series at its midpoint (integer floor),
// returning the mean of each half and the percentage variation of the
// second half against the first. A zero first-half mean yields variation 0.
func splitVariation(values []float64) (early, recent, variation float64) {
	mid := len(values) / 2
	early = stats.Mean(values[:mid])
	recent = stats.Mean(values[mid:])
	if early > 0 {
		variation = (recent - early) / early * 100
	}
	return early, recent, variation
}
