package menu

// Season is one point on the four-season ring used for cyclic similarity.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

var seasonIndex = map[Season]int{
	SeasonSpring: 0,
	SeasonSummer: 1,
	SeasonAutumn: 2,
	SeasonWinter: 3,
}

// Index returns the season's position on the ring, and whether the season
// is known.
func (s Season) Index() (int, bool) {
	i, ok := seasonIndex[s]
	return i, ok
}

// RingDistance returns the cyclic distance to another season (0..2).
func (s Season) RingDistance(other Season) int {
	a, okA := s.Index()
	b, okB := other.Index()
	if !okA || !okB {
		return 2
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 2 {
		d = 4 - d
	}
	return d
}

// ProblemSpec describes a catering request: the problem half of a case.
type ProblemSpec struct {
	Event         string   `json:"event"`
	Service       string   `json:"service"`
	Formality     string   `json:"formality"`
	Season        Season   `json:"season"`
	Guests        int      `json:"guests"`
	BudgetPerHead float64  `json:"budget_per_head"`
	Restrictions  []string `json:"restrictions,omitempty"`
	Style         string   `json:"style"`
}

// Validate checks the request fields.
func (p ProblemSpec) Validate() error {
	if p.Event == "" {
		return ErrEventRequired
	}
	if p.Guests <= 0 {
		return ErrInvalidGuestCount
	}
	if p.BudgetPerHead <= 0 {
		return ErrInvalidBudget
	}
	if _, ok := p.Season.Index(); p.Season != "" && !ok {
		return ErrUnknownSeason
	}
	return nil
}
