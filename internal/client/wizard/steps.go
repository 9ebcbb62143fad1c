// Package wizard drives the multi-step student registration against the
// registry API using the current registry token.
package wizard

import (
	"fmt"
	"strings"
)

// Step is one page of the registration.
type Step int

const (
	StepGeneral Step = iota
	StepContact
	StepFamily
	StepBank
	StepAcademic
	StepCompleted
)

var stepNames = [...]string{"general", "contact", "family", "bank", "academic", "completed"}

// Steps lists every step in order.
func Steps() []Step {
	return []Step{StepGeneral, StepContact, StepFamily, StepBank, StepAcademic, StepCompleted}
}

func (s Step) String() string {
	if s < StepGeneral || s > StepCompleted {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Local reports whether the step is staged locally instead of being sent to
// the registry.
func (s Step) Local() bool {
	return s == StepFamily || s == StepBank
}

// ParseStep accepts a step name or its 1-based position.
func ParseStep(v string) (Step, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range stepNames {
		if v == name || v == fmt.Sprint(i+1) {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", v)
}
