// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the planning engine exposes to its callers.
package inbound

import (
	"context"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/google/uuid"
)

// PlannerService is the use-case surface of the planning engine: produce an
// adapted menu for a request, then learn from the user's feedback.
type PlannerService interface {
	// PlanMenu retrieves the best matching stored case and adapts it to
	// the request.
	PlanMenu(ctx context.Context, cmd PlanCommand) (*MenuPlan, error)

	// SubmitFeedback records the user's evaluation of a plan and decides
	// whether the adapted case is retained.
	SubmitFeedback(ctx context.Context, cmd FeedbackCommand) (*RetentionOutcome, error)
}

// PlanCommand carries a catering request plus adaptation tuning.
type PlanCommand struct {
	Problem menu.ProblemSpec

	// Temperature controls stochastic exploration in latent adaptation.
	// A positive value overrides the configured default; 0 keeps it.
	Temperature float64

	// Intensity controls how far style adaptation pushes the dishes, in [0,1].
	Intensity float64

	// TechniquesPerDish is the requested number of technique bindings.
	TechniquesPerDish int

	// TopK bounds the retrieval result used for explainability.
	TopK int
}

// RetrievalExplanation is the per-dimension breakdown of one scored case.
type RetrievalExplanation struct {
	CaseID     uuid.UUID          `json:"case_id"`
	Ordinal    int                `json:"ordinal"`
	Score      float64            `json:"score"`
	Dimensions map[string]float64 `json:"dimensions"`
}

// MenuPlan is the adapted result handed to the caller and to the downstream
// presentation stage.
type MenuPlan struct {
	SessionID    uuid.UUID              `json:"session_id"`
	BaseCase     RetrievalExplanation   `json:"base_case"`
	Ranking      []RetrievalExplanation `json:"ranking"`
	Dishes       []menu.Dish            `json:"dishes"`
	Drinks       []string               `json:"drinks,omitempty"`
	Descriptions map[string]string      `json:"descriptions,omitempty"`
	ImagePrompts map[string]string      `json:"image_prompts,omitempty"`
}

// FeedbackCommand carries the external Revise stage's output back into the
// engine.
type FeedbackCommand struct {
	SessionID           uuid.UUID
	Score               int
	SubScores           map[string]int
	RejectedIngredients []string
	RejectedPairs       [][2]string
	Outcome             menu.Outcome
}

// RetentionOutcome reports the retain/discard decision.
type RetentionOutcome struct {
	Accepted bool      `json:"accepted"`
	Reason   string    `json:"reason"`
	CaseID   uuid.UUID `json:"case_id"`
	Ordinal  int       `json:"ordinal,omitempty"`
	Cost     int       `json:"cost"`
	Utility  float64   `json:"utility"`
	DMin     float64   `json:"d_min"`
}
