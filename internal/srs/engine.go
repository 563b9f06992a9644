package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/lexigo/pkg/models"
)

// Grade is the user's recall quality for one review
type Grade string

const (
	// GradeAgain means the word was forgotten; the item resets to the
	// start of the learning ladder and comes back immediately
	GradeAgain Grade = "again"
	// GradeGood is the default incremental-graduation path
	GradeGood Grade = "good"
	// GradeEasy skips remaining learning steps and rewards a larger interval
	GradeEasy Grade = "easy"
)

// ErrInvalidGrade is returned for grades outside the enumerated set.
// The boundary must reject these before any schedule state changes.
var ErrInvalidGrade = errors.New("invalid grade")

// ParseGrade validates a raw grade string, e.g. from callback data
func ParseGrade(raw string) (Grade, error) {
	switch Grade(raw) {
	case GradeAgain, GradeGood, GradeEasy:
		return Grade(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, raw)
	}
}

// Engine computes review-schedule transitions. It is a pure calculator:
// no I/O, no clock access, the caller supplies the current time.
type Engine struct {
	// Delay after the first successful learning step
	StepOneDelay time.Duration
	// Interval in days granted on graduation from the learning ladder
	GraduateDays int
	// Minimum interval in days granted by an easy grade
	EasyMinDays int
	// Interval multiplier applied on top of the ease factor for easy grades
	EasyBonus float64
	// Ease factor adjustments and bounds
	EasePenalty float64
	EaseReward  float64
	EaseMin     float64
	EaseMax     float64
}

// NewEngine creates an engine with the default Anki-style parameters
func NewEngine() *Engine {
	return &Engine{
		StepOneDelay: 10 * time.Minute,
		GraduateDays: 1,
		EasyMinDays:  4,
		EasyBonus:    1.3,
		EasePenalty:  0.2,
		EaseReward:   0.1,
		EaseMin:      1.3,
		EaseMax:      3.0,
	}
}

// Advance maps (current schedule state, grade) to the next schedule state.
// The input item is passed by value and never mutated. After any call the
// result satisfies EaseMin <= EaseFactor <= EaseMax and IntervalDays >= 0.
func (e *Engine) Advance(item models.StudyItem, grade Grade, now time.Time) (models.StudyItem, error) {
	switch grade {
	case GradeAgain:
		// Full reset to the start of learning, due immediately, so a
		// failed word reappears within the same session
		item.Phase = models.PhaseLearning
		item.Step = 0
		item.IntervalDays = 0
		item.NextReviewAt = now
		item.EaseFactor = math.Max(e.EaseMin, item.EaseFactor-e.EasePenalty)

	case GradeGood:
		if item.Phase == models.PhaseLearning {
			if item.Step == 0 {
				item.Step = 1
				item.NextReviewAt = now.Add(e.StepOneDelay)
			} else {
				// Graduate to day-scale review
				item.Phase = models.PhaseReview
				item.Step = 0
				item.IntervalDays = e.GraduateDays
				item.NextReviewAt = now.Add(days(e.GraduateDays))
			}
		} else {
			item.IntervalDays = maxInt(1, round(float64(item.IntervalDays)*item.EaseFactor))
			item.NextReviewAt = now.Add(days(item.IntervalDays))
		}

	case GradeEasy:
		item.Phase = models.PhaseReview
		item.Step = 0
		item.IntervalDays = maxInt(e.EasyMinDays, round(float64(item.IntervalDays)*item.EaseFactor*e.EasyBonus))
		item.EaseFactor = math.Min(e.EaseMax, item.EaseFactor+e.EaseReward)
		item.NextReviewAt = now.Add(days(item.IntervalDays))

	default:
		return item, fmt.Errorf("%w: %q", ErrInvalidGrade, grade)
	}

	return item, nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func round(v float64) int {
	return int(math.Round(v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
