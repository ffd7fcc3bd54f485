package wizard

import "github.com/goliatone/go-formwizard/pkg/field"

// Phase is the lifecycle position of the controller.
type Phase string

const (
	// PhaseEditing covers every step while the user is entering data.
	PhaseEditing Phase = "editing"
	// PhaseSubmitting is active while the SubmitFunc is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseSubmitted is the accepting state of one submission cycle.
	PhaseSubmitted Phase = "submitted"
)

// Snapshot is an immutable copy of the controller state for rendering.
type Snapshot struct {
	Phase            Phase             `json:"phase"`
	CurrentStepIndex int               `json:"currentStepIndex"`
	TotalSteps       int               `json:"totalSteps"`
	IsFirstStep      bool              `json:"isFirstStep"`
	IsLastStep       bool              `json:"isLastStep"`
	StepTitle        string            `json:"stepTitle"`
	Values           field.Values      `json:"values"`
	FieldErrors      map[string]string `json:"fieldErrors"`
	GeneralErrors    []string          `json:"generalErrors"`
	SuccessMessage   string            `json:"successMessage,omitempty"`
	IsLoading        bool              `json:"isLoading"`
	// Hidden lists fields of the current step whose conditional is false.
	Hidden []string `json:"hidden,omitempty"`
}

// IsHidden reports whether name is listed in Hidden.
func (s Snapshot) IsHidden(name string) bool {
	for _, h := range s.Hidden {
		if h == name {
			return true
		}
	}
	return false
}
