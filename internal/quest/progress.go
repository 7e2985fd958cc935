// Package quest holds the in-progress state of quest runs.
//
// Every quest is the same three step pricing walkthrough: choose a premium,
// choose a deductible, review. The run completes on the third advance.
package quest

import (
	"errors"

	"actuarialhub/internal/validation"
)

const (
	StepCount   = 3
	StepPercent = 33.33

	DefaultPremium    = 1200
	DefaultDeductible = 500

	MinPremium    = 800
	MaxPremium    = 2000
	PremiumStep   = 50
	MinDeductible = 250
	MaxDeductible = 2000

	// WellPricedAbove is the premium a review must exceed to be rated well priced
	WellPricedAbove = 1200
)

// Step names
const (
	StepPremium    = "premium"
	StepDeductible = "deductible"
	StepReview     = "review"
)

var stepNames = [StepCount]string{StepPremium, StepDeductible, StepReview}

var (
	ErrNoActiveQuest = errors.New("no active quest")
	ErrQuestMismatch = errors.New("a different quest is in progress")
)

// StepInput carries the slider values submitted with an advance.
// Zero values keep the current value.
type StepInput struct {
	Premium    float64 `json:"premium"`
	Deductible float64 `json:"deductible"`
}

// Feedback is the review verdict shown on the last step
type Feedback struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Progress is one user's run through a quest
type Progress struct {
	QuestID    int64     `json:"quest_id"`
	Step       int       `json:"step"`
	StepName   string    `json:"step_name,omitempty"`
	Percent    float64   `json:"percent"`
	Premium    float64   `json:"premium"`
	Deductible float64   `json:"deductible"`
	Completed  bool      `json:"completed"`
	Feedback   *Feedback `json:"feedback,omitempty"`

	// session that started the run
	session string
}

// NewProgress starts a run at step 0 with the default slider values
func NewProgress(questID int64) *Progress {
	p := &Progress{
		QuestID:    questID,
		Premium:    DefaultPremium,
		Deductible: DefaultDeductible,
	}
	p.refresh()
	return p
}

// Advance completes the current step. It reports true when this call
// finished the quest. A completed run cannot be advanced again.
func (p *Progress) Advance(in StepInput) (bool, error) {
	if p.Completed {
		return false, ErrNoActiveQuest
	}

	switch p.Step {
	case 0:
		if in.Premium != 0 {
			if err := validation.ValidateRange("premium", in.Premium, MinPremium, MaxPremium); err != nil {
				return false, err
			}
			p.Premium = in.Premium
		}
	case 1:
		if in.Deductible != 0 {
			if err := validation.ValidateRange("deductible", in.Deductible, MinDeductible, MaxDeductible); err != nil {
				return false, err
			}
			p.Deductible = in.Deductible
		}
	case 2:
		p.Feedback = Review(p.Premium)
	}

	p.Step++
	if p.Step >= StepCount {
		p.Completed = true
	}
	p.refresh()
	return p.Completed, nil
}

func (p *Progress) refresh() {
	if p.Completed {
		p.Percent = 100
		p.StepName = ""
		return
	}
	p.Percent = float64(p.Step) * StepPercent
	p.StepName = stepNames[p.Step]
}

// Review rates a chosen premium
func Review(premium float64) *Feedback {
	if premium > WellPricedAbove {
		return &Feedback{
			Title:   "Well Priced",
			Message: "Excellent! Your pricing covers expected claims and provides adequate profit margin.",
		}
	}
	return &Feedback{
		Title:   "Consider Higher Premium",
		Message: "Your premium might be too low to cover claims. Consider increasing it for better risk coverage.",
	}
}
