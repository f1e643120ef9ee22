package tenant

import (
	"fmt"

	"github.com/iepapp/iep/core"
)

const settingsOnboardingKey = "onboarding"

// Onboarding steps, in the order they must be completed.
const (
	StepProfile  = "profile"
	StepTeachers = "teachers"
	StepClasses  = "classes"
	StepStudents = "students"
	StepSchedule = "schedule"
)

var OnboardingSteps = []string{StepProfile, StepTeachers, StepClasses, StepStudents, StepSchedule}

type OnboardingStep struct {
	Key       string `json:"key"`
	Completed bool   `json:"completed"`
}

type Onboarding struct {
	Steps       []OnboardingStep `json:"steps"`
	CurrentStep string           `json:"currentStep,omitempty"` // empty once every step is completed
	Completed   bool             `json:"completed"`
	Progress    float64          `json:"progress"` // percent
}

func completedSteps(settings core.JSONMap) map[string]bool {
	done := make(map[string]bool)
	entry, ok := settings[settingsOnboardingKey].(map[string]interface{})
	if !ok {
		return done
	}
	switch steps := entry["completed"].(type) {
	case []interface{}:
		for _, s := range steps {
			if key, ok := s.(string); ok {
				done[key] = true
			}
		}
	case []string:
		for _, key := range steps {
			done[key] = true
		}
	}
	return done
}

// OnboardingOf computes the onboarding progress stored in the tenant settings.
func OnboardingOf(t Tenant) Onboarding {
	done := completedSteps(t.Settings)
	ob := Onboarding{Steps: make([]OnboardingStep, 0, len(OnboardingSteps))}

	var count int
	for _, key := range OnboardingSteps {
		completed := done[key]
		if completed {
			count++
		} else if ob.CurrentStep == "" {
			ob.CurrentStep = key
		}
		ob.Steps = append(ob.Steps, OnboardingStep{Key: key, Completed: completed})
	}
	ob.Completed = count == len(OnboardingSteps)
	ob.Progress = core.Round2(core.Percentage(float64(count), float64(len(OnboardingSteps))))
	return ob
}

// completeStep marks `step` as completed in settings.
// Every previous step must already be completed.
func completeStep(settings core.JSONMap, step string) (core.JSONMap, error) {
	idx := -1
	for i, key := range OnboardingSteps {
		if key == step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "step", Error: fmt.Sprintf("unknown onboarding step %q", step)})
	}

	done := completedSteps(settings)
	for _, prev := range OnboardingSteps[:idx] {
		if !done[prev] {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "step", Error: fmt.Sprintf("step %q must be completed first", prev)})
		}
	}
	done[step] = true

	completed := make([]string, 0, len(done))
	for _, key := range OnboardingSteps {
		if done[key] {
			completed = append(completed, key)
		}
	}

	out := make(core.JSONMap, len(settings)+1)
	for k, v := range settings {
		out[k] = v
	}
	out[settingsOnboardingKey] = map[string]interface{}{"completed": completed}
	return out, nil
}
