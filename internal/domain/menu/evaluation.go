package menu

// Outcome classifies the user's verdict on a served menu.
type Outcome string

const (
	OutcomeSuccess         Outcome = "SUCCESS"
	OutcomeSoftFailure     Outcome = "SOFT_FAILURE"
	OutcomeCriticalFailure Outcome = "CRITICAL_FAILURE"
)

// Evaluation is the feedback attached to a case. Score is the user's 1-5
// overall rating. Cost and Utility are filled by the retention manager at
// persistence time and never mutated afterwards.
type Evaluation struct {
	Score               int            `json:"score"`
	SubScores           map[string]int `json:"sub_scores,omitempty"`
	RejectedIngredients []string       `json:"rejected_ingredients,omitempty"`
	RejectedPairs       [][2]string    `json:"rejected_pairs,omitempty"`
	Outcome             Outcome        `json:"outcome"`
	Cost                int            `json:"cost"`
	Utility             float64        `json:"utility"`
}

// Validate checks the feedback fields.
func (e Evaluation) Validate() error {
	if e.Score < 1 || e.Score > 5 {
		return ErrScoreOutOfRange
	}
	switch e.Outcome {
	case OutcomeSuccess, OutcomeSoftFailure, OutcomeCriticalFailure:
	default:
		return ErrUnknownOutcome
	}
	return nil
}

// NormalizedScore maps the 1-5 score onto [0,1].
func (e Evaluation) NormalizedScore() float64 {
	return float64(e.Score-1) / 4
}
