package menu

import "errors"

// Domain errors for menu cases

var (
	// Dish validation errors
	ErrDishNameRequired = errors.New("dish name is required")
	ErrInvalidCourse    = errors.New("dish must have exactly one of the three courses")
	ErrNoIngredients    = errors.New("dish must have at least one ingredient")

	// Problem validation errors
	ErrEventRequired     = errors.New("event type is required")
	ErrInvalidGuestCount = errors.New("guest count must be greater than 0")
	ErrInvalidBudget     = errors.New("per-head budget must be greater than 0")
	ErrUnknownSeason     = errors.New("unknown season")

	// Evaluation errors
	ErrScoreOutOfRange = errors.New("score must be between 1 and 5")
	ErrUnknownOutcome  = errors.New("unknown evaluation outcome")

	// Case lifecycle errors
	ErrWrongDishCount       = errors.New("a menu case solution needs exactly three dishes")
	ErrDuplicateCourse      = errors.New("each course may appear only once in a menu")
	ErrCaseAlreadyEvaluated = errors.New("case evaluation is immutable once recorded")
	ErrCaseNotEvaluated     = errors.New("case has no evaluation yet")
)
