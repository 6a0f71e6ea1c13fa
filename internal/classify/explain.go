package classify

// TokenDetail is the per-token breakdown of a classification.
type TokenDetail struct {
	Token        string  `json:"token"`
	Positive     float64 `json:"p_positive"`
	Negative     float64 `json:"p_negative"`
	Contribution float64 `json:"contribution"` // log(p_positive) - log(p_negative)
}

// Explanation is the diagnostic output for one text.
type Explanation struct {
	Text       string        `json:"text"`
	Tokens     []TokenDetail `json:"tokens"` // Sorted by |contribution| descending
	Score      Score         `json:"score"`
	Positive   bool          `json:"positive"`
	Confidence float64       `json:"confidence"`
	// TopPositive and TopNegative hold up to TopIndicators tokens leaning
	// toward each class, strongest first.
	TopPositive []string `json:"top_positive,omitempty"`
	TopNegative []string `json:"top_negative,omitempty"`
}

// TopIndicators bounds the indicator lists of an Explanation.
const TopIndicators = 5

// Explain classifies text and reports the contribution of every eligible
// token. The decision always equals Classify(text).
func (c *Classifier) Explain(text string) *Explanation {
	tokens := c.eligible(text)
	score, logPos, logNeg := c.score(tokens)

	e := &Explanation{
		Text:       text,
		Score:      score,
		Positive:   score.IsPositive(),
		Confidence: 1,
	}
	if score.Degenerate {
		return e
	}
	e.Confidence = score.Confidence()

	e.Tokens = make([]TokenDetail, len(tokens))
	for i, token := range tokens {
		pos, neg := c.probabilities(token)
		e.Tokens[i] = TokenDetail{
			Token:        token,
			Positive:     pos,
			Negative:     neg,
			Contribution: logPos[i] - logNeg[i],
		}
	}

	sortByContribution(e.Tokens)
	for _, d := range e.Tokens {
		switch {
		case d.Contribution > 0 && len(e.TopPositive) < TopIndicators:
			e.TopPositive = append(e.TopPositive, d.Token)
		case d.Contribution < 0 && len(e.TopNegative) < TopIndicators:
			e.TopNegative = append(e.TopNegative, d.Token)
		}
	}
	return e
}
