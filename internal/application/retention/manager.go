// Package retention decides whether an adapted, user-evaluated case earns a
// place in the case base. The gates run in order: safety, redundancy against
// the existing base, then a utility floor. Rejections are decisions, not
// errors; only a critical safety violation surfaces as unrecoverable.
package retention

import (
	"context"
	"math"

	"github.com/convivio/convivio/internal/application/retrieval"
	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/ports/outbound"
	"github.com/convivio/convivio/pkg/errors"
	"go.uber.org/zap"
)

// Params tunes the retention gates.
type Params struct {
	// NoveltyAlpha weighs adaptation cost into utility:
	// U = Q * (1 + alpha*ln(1+K)).
	NoveltyAlpha float64

	// Gamma is the near-duplicate radius: the candidate is rejected when its
	// retrieval distance to the closest stored case falls below it.
	Gamma float64

	// UtilityFloor is the minimum utility a case needs to be persisted.
	UtilityFloor float64
}

// DefaultParams returns the canonical retention tuning.
func DefaultParams() Params {
	return Params{
		NoveltyAlpha: 0.5,
		Gamma:        0.08,
		UtilityFloor: 0.55,
	}
}

// Rejection reasons reported in decisions.
const (
	ReasonAccepted        = "accepted"
	ReasonCriticalFailure = "critical safety failure"
	ReasonRedundant       = "near-duplicate of stored case"
	ReasonLowUtility      = "utility below floor"
)

// Decision is the outcome of one retention pass. Cost, Utility and DMin are
// populated as far as the gate sequence got before deciding. Detail carries
// the typed rejection for rejected candidates, nil otherwise.
type Decision struct {
	Accepted bool
	Reason   string
	Detail   error
	Ordinal  int
	Cost     int
	Utility  float64
	DMin     float64
}

// Manager runs the retention gate sequence.
type Manager struct {
	params    Params
	retriever *retrieval.Retriever
	repo      outbound.CaseRepository
	logger    *zap.Logger
}

// New creates a manager. Zero params fall back to the defaults.
func New(params Params, retriever *retrieval.Retriever, repo outbound.CaseRepository, logger *zap.Logger) *Manager {
	if params.NoveltyAlpha == 0 && params.Gamma == 0 && params.UtilityFloor == 0 {
		params = DefaultParams()
	}
	return &Manager{
		params:    params,
		retriever: retriever,
		repo:      repo,
		logger:    logger.Named("retention"),
	}
}

// Retain evaluates the candidate against the gates and persists it when all
// pass. The evaluation's Cost and Utility fields are computed here; the
// caller supplies score, sub-scores and outcome. A critical failure returns
// an error; every other rejection is a normal Decision.
func (m *Manager) Retain(ctx context.Context, candidate *menu.MenuCase, eval menu.Evaluation) (Decision, error) {
	if eval.Outcome == menu.OutcomeCriticalFailure {
		candidate.Reject(ReasonCriticalFailure)
		m.logger.Error("case rejected by safety gate",
			zap.String("case_id", candidate.ID().String()),
			zap.Int("score", eval.Score),
		)
		detail := errors.NewCriticalSafetyViolationError("user reported a health or allergy violation")
		return Decision{Reason: ReasonCriticalFailure, Detail: detail}, detail
	}

	cost := candidate.CombinedLog().Cost()
	utility := m.utility(eval.NormalizedScore(), cost)

	existing, err := m.repo.All(ctx)
	if err != nil {
		return Decision{Cost: cost, Utility: utility}, errors.NewStorageError("load case base", err)
	}

	dMin := m.minDistance(candidate, existing)
	if dMin < m.params.Gamma {
		candidate.Reject(ReasonRedundant)
		detail := errors.NewRedundantCaseError(dMin, m.params.Gamma)
		m.logger.Info("case rejected as redundant",
			zap.String("case_id", candidate.ID().String()),
			zap.Error(detail),
		)
		return Decision{Reason: ReasonRedundant, Detail: detail, Cost: cost, Utility: utility, DMin: dMin}, nil
	}

	if utility <= m.params.UtilityFloor {
		candidate.Reject(ReasonLowUtility)
		detail := errors.NewLowUtilityError(utility, m.params.UtilityFloor)
		m.logger.Info("case rejected for low utility",
			zap.String("case_id", candidate.ID().String()),
			zap.Error(detail),
		)
		return Decision{Reason: ReasonLowUtility, Detail: detail, Cost: cost, Utility: utility, DMin: dMin}, nil
	}

	ordinal, err := m.repo.NextOrdinal(ctx)
	if err != nil {
		return Decision{Cost: cost, Utility: utility, DMin: dMin}, errors.NewStorageError("next ordinal", err)
	}

	eval.Cost = cost
	eval.Utility = utility
	if err := candidate.Persist(ordinal, eval); err != nil {
		return Decision{Cost: cost, Utility: utility, DMin: dMin}, err
	}
	if err := m.repo.Append(ctx, candidate); err != nil {
		return Decision{Cost: cost, Utility: utility, DMin: dMin}, errors.NewStorageError("append case", err)
	}

	m.logger.Info("case retained",
		zap.String("case_id", candidate.ID().String()),
		zap.Int("ordinal", ordinal),
		zap.Int("cost", cost),
		zap.Float64("utility", utility),
		zap.Float64("d_min", dMin),
	)
	return Decision{
		Accepted: true,
		Reason:   ReasonAccepted,
		Ordinal:  ordinal,
		Cost:     cost,
		Utility:  utility,
		DMin:     dMin,
	}, nil
}

// utility rewards liked solutions that required substantial adaptation.
// A zero score forces zero utility regardless of cost.
func (m *Manager) utility(normalizedScore float64, cost int) float64 {
	return normalizedScore * (1 + m.params.NoveltyAlpha*math.Log(1+float64(cost)))
}

// minDistance is 1 minus the best retrieval similarity between the candidate
// and the stored cases. An empty base is maximally distant.
func (m *Manager) minDistance(candidate *menu.MenuCase, existing []*menu.MenuCase) float64 {
	if len(existing) == 0 {
		return 1.0
	}
	best := 0.0
	for _, c := range existing {
		if match := m.retriever.Score(candidate.Problem(), c); match.Score > best {
			best = match.Score
		}
	}
	return 1.0 - best
}
