package eval

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Confusion accumulates the confusion matrix of a run.
type Confusion struct {
	TP, FP, FN, TN int
}

// Add records one prediction.
func (c *Confusion) Add(actual, predicted bool) {
	switch {
	case actual && predicted:
		c.TP++
	case actual && !predicted:
		c.FN++
	case !actual && predicted:
		c.FP++
	default:
		c.TN++
	}
}

// Total returns the number of recorded predictions.
func (c Confusion) Total() int {
	return c.TP + c.FP + c.FN + c.TN
}

// Metrics derives precision, recall, F1 and accuracy. A ratio whose
// denominator is zero is reported as 0.
func (c Confusion) Metrics() Metrics {
	m := Metrics{
		TruePositives:  c.TP,
		FalsePositives: c.FP,
		FalseNegatives: c.FN,
		TrueNegatives:  c.TN,
		NumSamples:     c.Total(),
	}
	computeDerivedMetrics(&m)
	return m
}

// computeDerivedMetrics computes precision, recall, F1, accuracy.
func computeDerivedMetrics(m *Metrics) {
	tp := float64(m.TruePositives)
	tn := float64(m.TrueNegatives)
	fp := float64(m.FalsePositives)
	fn := float64(m.FalseNegatives)

	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	// Accuracy is reported in percent.
	if total := tp + tn + fp + fn; total > 0 {
		m.Accuracy = 100 * (tp + tn) / total
	}
}

// Tally builds metrics from a list of outcomes.
func Tally(outcomes []Outcome) Metrics {
	var c Confusion
	for _, o := range outcomes {
		c.Add(o.Actual, o.Predicted)
	}
	return c.Metrics()
}

// Bootstrap resamples outcomes with replacement and reports 95% percentile
// intervals for accuracy and F1. The same seed gives the same intervals.
func Bootstrap(outcomes []Outcome, resamples int, seed int64) BootstrapCI {
	ci := BootstrapCI{NumResamples: resamples}
	n := len(outcomes)
	if n == 0 || resamples <= 0 {
		return ci
	}

	rng := rand.New(rand.NewSource(seed))
	accuracies := make([]float64, resamples)
	f1s := make([]float64, resamples)

	for b := 0; b < resamples; b++ {
		var c Confusion
		for i := 0; i < n; i++ {
			o := outcomes[rng.Intn(n)]
			c.Add(o.Actual, o.Predicted)
		}
		m := c.Metrics()
		accuracies[b] = m.Accuracy
		f1s[b] = m.F1Score
	}

	ci.AccuracyCI = percentiles(accuracies, 0.025, 0.975)
	ci.F1CI = percentiles(f1s, 0.025, 0.975)
	if resamples > 1 {
		ci.AccuracySE = stat.StdDev(accuracies, nil)
		ci.F1SE = stat.StdDev(f1s, nil)
	}
	return ci
}

// percentiles sorts data in place and returns the two empirical quantiles.
func percentiles(data []float64, p1, p2 float64) [2]float64 {
	sort.Float64s(data)
	return [2]float64{
		stat.Quantile(p1, stat.Empirical, data, nil),
		stat.Quantile(p2, stat.Empirical, data, nil),
	}
}
