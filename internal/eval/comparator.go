package eval

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrOutcomeMismatch is returned when paired outcome lists differ in length
// or ground truth.
var ErrOutcomeMismatch = errors.New("outcome lists are not paired")

// McNemarTest compares two predictors run on the same samples. The null
// hypothesis is that both have the same error rate; discordant pairs carry
// the evidence.
func McNemarTest(first, second []Outcome) (StatisticalTest, error) {
	test := StatisticalTest{TestName: "McNemar", PValue: 1}
	if len(first) != len(second) {
		return test, ErrOutcomeMismatch
	}

	for i := range first {
		if first[i].Actual != second[i].Actual {
			return test, ErrOutcomeMismatch
		}
		a, b := first[i].Correct(), second[i].Correct()
		switch {
		case a && b:
			test.BothCorrect++
		case a:
			test.OnlyFirst++
		case b:
			test.OnlySecond++
		default:
			test.NeitherCorrect++
		}
	}

	discordant := float64(test.OnlyFirst + test.OnlySecond)
	if discordant == 0 {
		return test, nil
	}

	// Chi-squared with continuity correction, df = 1.
	numerator := math.Abs(float64(test.OnlyFirst-test.OnlySecond)) - 1
	if numerator < 0 {
		numerator = 0
	}
	test.TestStatistic = numerator * numerator / discordant
	test.PValue = distuv.ChiSquared{K: 1}.Survival(test.TestStatistic)
	test.Significant = test.PValue < 0.05
	test.EffectSize = float64(test.OnlyFirst-test.OnlySecond) / discordant
	return test, nil
}
