package tenant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
)

func TestCompleteStep(t *testing.T) {
	settings := core.JSONMap{"theme": "dark"}

	tests := []struct {
		name      string
		step      string
		wantErr   string
		wantSteps []string
	}{
		{name: "unknown step", step: "payments", wantErr: `unknown onboarding step "payments"`},
		{name: "out of order", step: StepClasses, wantErr: `step "profile" must be completed first`},
		{name: "first step", step: StepProfile, wantSteps: []string{StepProfile}},
		{name: "second step", step: StepTeachers, wantSteps: []string{StepProfile, StepTeachers}},
		{name: "repeat is idempotent", step: StepProfile, wantSteps: []string{StepProfile, StepTeachers}},
		{name: "skipping still fails", step: StepStudents, wantErr: `step "classes" must be completed first`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := completeStep(settings, tt.step)
			if tt.wantErr != "" {
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantErr, vErr.Fields[0].Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "dark", out["theme"])
			assert.Equal(t, tt.wantSteps, out[settingsOnboardingKey].(map[string]interface{})["completed"])
			settings = out
		})
	}
}

func TestOnboardingOf(t *testing.T) {
	// settings read back from jsonb hold []interface{}
	var settings core.JSONMap
	require.NoError(t, json.Unmarshal([]byte(`{"onboarding": {"completed": ["profile", "teachers"]}}`), &settings))

	ob := OnboardingOf(Tenant{Settings: settings})
	assert.Equal(t, StepClasses, ob.CurrentStep)
	assert.False(t, ob.Completed)
	assert.Equal(t, 40.0, ob.Progress)
	assert.Len(t, ob.Steps, len(OnboardingSteps))
	assert.True(t, ob.Steps[1].Completed)
	assert.False(t, ob.Steps[2].Completed)

	all := make([]interface{}, 0, len(OnboardingSteps))
	for _, s := range OnboardingSteps {
		all = append(all, s)
	}
	ob = OnboardingOf(Tenant{Settings: core.JSONMap{"onboarding": map[string]interface{}{"completed": all}}})
	assert.True(t, ob.Completed)
	assert.Empty(t, ob.CurrentStep)
	assert.Equal(t, 100.0, ob.Progress)
}
