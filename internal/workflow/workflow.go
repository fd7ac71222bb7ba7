// Package workflow defines the application status machine, the portal step
// derived from it, and the visa type catalogue.
package workflow

import (
	"fmt"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
)

// Statuses returns every status in workflow order.
func Statuses() []models.Status {
	return []models.Status{
		models.StatusNew,
		models.StatusInReview,
		models.StatusAdditionalInfoRequired,
		models.StatusReadyToSubmit,
		models.StatusSubmitted,
	}
}

// transitions lists the agent actions available from each status.
// In Review and Additional Info Required are the only pair that can move
// back and forth; Submitted is terminal.
var transitions = map[models.Status][]models.Status{
	models.StatusNew:                    {models.StatusInReview},
	models.StatusInReview:               {models.StatusAdditionalInfoRequired, models.StatusReadyToSubmit},
	models.StatusAdditionalInfoRequired: {models.StatusInReview},
	models.StatusReadyToSubmit:          {models.StatusSubmitted},
	models.StatusSubmitted:              {},
}

// IsValid reports whether s is one of the five workflow statuses.
func IsValid(s models.Status) bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the statuses an agent can move an application to from s.
func Next(s models.Status) []models.Status {
	return append([]models.Status(nil), transitions[s]...)
}

// CanTransition reports whether from → to is an allowed move. Re-applying
// the current status is allowed.
func CanTransition(from, to models.Status) bool {
	if !IsValid(from) || !IsValid(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition is CanTransition as a VALIDATION_ERROR.
func ValidateTransition(from, to models.Status) error {
	if !IsValid(to) {
		return apperr.Validation(fmt.Sprintf("Unknown status %q", to), map[string]string{"status": "unknown status"})
	}
	if !CanTransition(from, to) {
		return apperr.Validation(
			fmt.Sprintf("Cannot move application from %q to %q", from, to),
			map[string]string{"status": fmt.Sprintf("not reachable from %s", from)},
		)
	}
	return nil
}

// Step is the portal screen a client sees.
type Step int

const (
	StepSelectVisa Step = iota
	StepCompleteForm
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepSelectVisa:
		return "Select Visa"
	case StepCompleteForm:
		return "Complete Form"
	case StepSubmitted:
		return "Review & Submit"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// StepFor infers the portal step from the client's active application.
func StepFor(app *models.Application) Step {
	switch {
	case app == nil:
		return StepSelectVisa
	case app.Status == models.StatusNew:
		return StepCompleteForm
	default:
		return StepSubmitted
	}
}

// StatusFilter maps the short filter keywords used by the application list
// to statuses. "all" and the empty string match everything.
func StatusFilter(keyword string) (status models.Status, all bool, ok bool) {
	switch keyword {
	case "", "all":
		return "", true, true
	case "new":
		return models.StatusNew, false, true
	case "review":
		return models.StatusInReview, false, true
	case "info":
		return models.StatusAdditionalInfoRequired, false, true
	case "ready":
		return models.StatusReadyToSubmit, false, true
	case "submitted":
		return models.StatusSubmitted, false, true
	}
	return "", false, false
}
