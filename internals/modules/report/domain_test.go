package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"investigating to identified", StatusInvestigating, StatusIdentified, true},
		{"identified to monitoring", StatusIdentified, StatusMonitoring, true},
		{"monitoring to resolved", StatusMonitoring, StatusResolved, true},
		{"skip straight to resolved", StatusInvestigating, StatusResolved, true},
		{"same status repeats", StatusMonitoring, StatusMonitoring, true},
		{"resolved cannot reopen", StatusResolved, StatusInvestigating, false},
		{"monitoring cannot go back", StatusMonitoring, StatusIdentified, false},
		{"unknown source", Status("draft"), StatusResolved, false},
		{"unknown target", StatusInvestigating, Status("draft"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusInvestigating))
	assert.True(t, ValidStatus(StatusResolved))
	assert.False(t, ValidStatus(Status("")))
	assert.False(t, ValidStatus(Status("open")))
}
