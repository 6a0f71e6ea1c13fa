package eval

// Predictor is anything that assigns a binary sentiment to a text.
type Predictor interface {
	Classify(text string) bool
}

// Sample is a labeled file on disk.
type Sample struct {
	Path     string `json:"path"`
	Positive bool   `json:"positive"` // Ground truth
}

// Document is labeled in-memory text.
type Document struct {
	Text     string `json:"text"`
	Positive bool   `json:"positive"`
}

// Outcome pairs the ground truth of one sample with the prediction made.
type Outcome struct {
	Actual    bool `json:"actual"`
	Predicted bool `json:"predicted"`
}

// Correct reports whether the prediction matched the label.
func (o Outcome) Correct() bool {
	return o.Actual == o.Predicted
}

// Metrics contains the confusion counts and derived scores of a run.
type Metrics struct {
	// Confusion matrix, with positive sentiment as the positive class
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`

	NumSamples int `json:"num_samples"`

	Precision float64 `json:"precision"` // TP / (TP + FP)
	Recall    float64 `json:"recall"`    // TP / (TP + FN)
	F1Score   float64 `json:"f1"`        // 2PR / (P + R)
	Accuracy  float64 `json:"accuracy"`  // Percent: 100 (TP + TN) / N
}

// BootstrapCI holds percentile intervals of resampled metrics.
type BootstrapCI struct {
	NumResamples int        `json:"num_resamples"`
	AccuracyCI   [2]float64 `json:"accuracy_ci"` // Percent
	F1CI         [2]float64 `json:"f1_ci"`
	AccuracySE   float64    `json:"accuracy_se"`
	F1SE         float64    `json:"f1_se"`
}

// StatisticalTest is the result of comparing two predictors on the same
// samples.
type StatisticalTest struct {
	TestName      string  `json:"test_name"`
	TestStatistic float64 `json:"test_statistic"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significant"` // p < 0.05
	EffectSize    float64 `json:"effect_size"`

	BothCorrect    int `json:"both_correct"`
	OnlyFirst      int `json:"only_first_correct"`
	OnlySecond     int `json:"only_second_correct"`
	NeitherCorrect int `json:"neither_correct"`
}
