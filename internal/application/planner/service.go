// Package planner orchestrates the planning cycle: retrieve the best stored
// case, adapt its dishes to the request, embellish them with techniques,
// attach AI-generated presentation text, and feed the user's evaluation back
// into retention. One service instance handles one session at a time; the
// session map is still guarded for callers that embed it in a server.
package planner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/convivio/convivio/internal/application/adaptation"
	"github.com/convivio/convivio/internal/application/retention"
	"github.com/convivio/convivio/internal/application/retrieval"
	"github.com/convivio/convivio/internal/application/technique"
	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/ports/inbound"
	"github.com/convivio/convivio/internal/ports/outbound"
	"github.com/convivio/convivio/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTopK = 3

// session holds a produced plan until the user's feedback arrives.
type session struct {
	candidate *menu.MenuCase
	createdAt time.Time
}

// Service implements inbound.PlannerService.
type Service struct {
	kb        *ontology.KnowledgeBase
	retriever *retrieval.Retriever
	adapter   *adaptation.Adapter
	selector  *technique.Selector
	retention *retention.Manager
	repo      outbound.CaseRepository
	ai        outbound.AIService
	defaults  adaptation.Options
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]session
}

// NewService wires the planning pipeline.
func NewService(
	kb *ontology.KnowledgeBase,
	retriever *retrieval.Retriever,
	adapter *adaptation.Adapter,
	selector *technique.Selector,
	retentionMgr *retention.Manager,
	repo outbound.CaseRepository,
	ai outbound.AIService,
	defaults adaptation.Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		kb:        kb,
		retriever: retriever,
		adapter:   adapter,
		selector:  selector,
		retention: retentionMgr,
		repo:      repo,
		ai:        ai,
		defaults:  defaults,
		logger:    logger.Named("planner"),
		sessions:  make(map[uuid.UUID]session),
	}
}

// PlanMenu runs retrieve, adapt and embellish for one request and opens a
// feedback session for the result.
func (s *Service) PlanMenu(ctx context.Context, cmd inbound.PlanCommand) (*inbound.MenuPlan, error) {
	if err := cmd.Problem.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	cases, err := s.repo.All(ctx)
	if err != nil {
		return nil, errors.NewStorageError("load case base", err)
	}
	if len(cases) == 0 {
		return nil, errors.NewAppError(errors.CodeNoCandidate, "No case to adapt", "the case base is empty")
	}

	topK := cmd.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	matches := s.retriever.RetrieveSimilar(cmd.Problem, cases, topK)
	base := matches[0]

	s.logger.Info("base case retrieved",
		zap.String("case_id", base.Case.ID().String()),
		zap.Int("ordinal", base.Case.Ordinal()),
		zap.Float64("score", base.Score),
	)

	profile := profileFromRestrictions(cmd.Problem.Restrictions)
	style, styleKnown := s.kb.Style(cmd.Problem.Style)
	if !styleKnown && cmd.Problem.Style != "" {
		s.logger.Warn("requested style unknown, skipping style adaptation",
			zap.Error(errors.NewLookupMissError("style", cmd.Problem.Style)),
		)
	}

	opts := s.defaults
	if cmd.Temperature > 0 {
		opts.Temperature = cmd.Temperature
	}
	if cmd.Intensity > 0 {
		opts.Intensity = cmd.Intensity
	}

	dishes := base.Case.Dishes()
	for i := range dishes {
		dishes[i] = s.adaptDish(dishes[i], "dietary", func(d menu.Dish) menu.Dish {
			if forbidden := s.violatingIngredients(d, profile); len(forbidden) > 0 {
				d = s.adapter.AdaptCategorical(d, forbidden, profile, nil)
			}
			return d
		})
		if styleKnown {
			dishes[i] = s.adaptDish(dishes[i], "style", func(d menu.Dish) menu.Dish {
				return s.adapter.AdaptToStyle(d, style, profile, opts)
			})
		}
	}

	techOpts := technique.DefaultOptions()
	if cmd.TechniquesPerDish > 0 {
		techOpts.PerDish = cmd.TechniquesPerDish
	}
	var styles []*ontology.Style
	if styleKnown {
		styles = append(styles, style)
	}
	dishes = s.selector.EmbellishMenu(dishes, styles, techOpts)

	candidate, err := menu.NewMenuCase(cmd.Problem, dishes, base.Case.Drinks())
	if err != nil {
		return nil, err
	}

	plan := &inbound.MenuPlan{
		SessionID: candidate.ID(),
		BaseCase:  explain(base),
		Dishes:    candidate.Dishes(),
		Drinks:    candidate.Drinks(),
	}
	for _, m := range matches {
		plan.Ranking = append(plan.Ranking, explain(m))
	}
	s.describe(ctx, plan, cmd.Problem.Style)

	s.mu.Lock()
	s.sessions[candidate.ID()] = session{candidate: candidate, createdAt: time.Now()}
	s.mu.Unlock()

	return plan, nil
}

// SubmitFeedback closes a session and runs retention on its candidate.
func (s *Service) SubmitFeedback(ctx context.Context, cmd inbound.FeedbackCommand) (*inbound.RetentionOutcome, error) {
	s.mu.Lock()
	sess, ok := s.sessions[cmd.SessionID]
	if ok {
		delete(s.sessions, cmd.SessionID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, errors.NewValidationError("unknown session " + cmd.SessionID.String())
	}

	eval := menu.Evaluation{
		Score:               cmd.Score,
		SubScores:           cmd.SubScores,
		RejectedIngredients: cmd.RejectedIngredients,
		RejectedPairs:       cmd.RejectedPairs,
		Outcome:             cmd.Outcome,
	}
	if err := eval.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	decision, err := s.retention.Retain(ctx, sess.candidate, eval)
	for _, event := range sess.candidate.Events() {
		s.logger.Info("domain event",
			zap.String("event", event.EventName()),
			zap.String("case_id", sess.candidate.ID().String()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	outcome := &inbound.RetentionOutcome{
		Accepted: decision.Accepted,
		Reason:   decision.Reason,
		CaseID:   sess.candidate.ID(),
		Ordinal:  decision.Ordinal,
		Cost:     decision.Cost,
		Utility:  decision.Utility,
		DMin:     decision.DMin,
	}
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && !appErr.Recoverable() {
			s.logger.Warn("session closed with unrecoverable rejection",
				zap.String("case_id", sess.candidate.ID().String()),
				zap.String("code", string(appErr.Code)),
			)
		}
		return outcome, err
	}
	return outcome, nil
}

// adaptDish runs one adaptation stage under its own recover, so a failing
// stage falls back to the dish exactly as the previous stage left it. A
// panic in the style pass must not undo the dietary substitutions, and one
// broken dish must not abort the menu.
func (s *Service) adaptDish(dish menu.Dish, stage string, fn func(menu.Dish) menu.Dish) (out menu.Dish) {
	out = dish
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dish adaptation stage failed, keeping last good state",
				zap.String("dish", dish.Name),
				zap.String("stage", stage),
				zap.Any("panic", r),
			)
			out = dish
		}
	}()
	return fn(dish)
}

// violatingIngredients lists the dish ingredients the profile forbids.
// Unknown names pass: the ontology cannot convict what it does not know.
func (s *Service) violatingIngredients(dish menu.Dish, profile ontology.DietProfile) []string {
	var out []string
	for _, name := range dish.Ingredients {
		if ing, ok := s.kb.Ingredient(name); ok && !profile.Allows(ing) {
			out = append(out, name)
		}
	}
	return out
}

// describe attaches AI presentation text per dish. Failures are logged and
// the entry omitted; the plan itself never fails on presentation.
func (s *Service) describe(ctx context.Context, plan *inbound.MenuPlan, styleName string) {
	plan.Descriptions = make(map[string]string, len(plan.Dishes))
	plan.ImagePrompts = make(map[string]string, len(plan.Dishes))
	for _, d := range plan.Dishes {
		text, err := s.ai.DescribeDish(ctx, d, styleName)
		if err != nil {
			s.logger.Warn("dish description unavailable",
				zap.String("dish", d.Name),
				zap.Error(err),
			)
		} else {
			plan.Descriptions[d.Name] = text
		}

		prompt, err := s.ai.ImagePrompt(ctx, d, styleName)
		if err != nil {
			s.logger.Warn("image prompt unavailable",
				zap.String("dish", d.Name),
				zap.Error(err),
			)
		} else {
			plan.ImagePrompts[d.Name] = prompt
		}
	}
}

// profileFromRestrictions builds the session profile from the request's
// restriction strings. "nut-free" and "no shellfish" become allergen
// exclusions; everything else ("vegan", "halal") is a diet every ingredient
// must be tagged for.
func profileFromRestrictions(restrictions []string) ontology.DietProfile {
	var profile ontology.DietProfile
	for _, r := range restrictions {
		n := ontology.Normalize(r)
		switch {
		case n == "":
		case strings.HasSuffix(n, "-free"):
			profile.Allergens = append(profile.Allergens, strings.TrimSuffix(n, "-free"))
		case strings.HasPrefix(n, "no "):
			profile.Allergens = append(profile.Allergens, strings.TrimPrefix(n, "no "))
		default:
			profile.Diets = append(profile.Diets, n)
		}
	}
	return profile
}

// explain converts a retrieval match into its transport form.
func explain(m retrieval.Match) inbound.RetrievalExplanation {
	return inbound.RetrievalExplanation{
		CaseID:     m.Case.ID(),
		Ordinal:    m.Case.Ordinal(),
		Score:      m.Score,
		Dimensions: m.Dimensions,
	}
}
