package mpijob

import (
	"strings"

	"mpijobctl/pkg/types"
)

// Phase is the single lifecycle state derived from a job's conditions.
// The zero value is PhaseUnknown.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseCreated
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

// phaseNone precedes any observation in Monitor so the first phase seen,
// including PhaseUnknown, always counts as a change.
const phaseNone Phase = -1

var phaseNames = map[Phase]string{
	PhaseUnknown:   "Unknown",
	PhaseCreated:   "Created",
	PhaseRunning:   "Running",
	PhaseSucceeded: "Succeeded",
	PhaseFailed:    "Failed",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText renders the phase name in JSON and YAML output.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ParsePhase maps a phase name, in any case, back to its Phase.
func ParsePhase(s string) (Phase, bool) {
	for p, name := range phaseNames {
		if strings.EqualFold(s, name) {
			return p, true
		}
	}
	return PhaseUnknown, false
}

func (p Phase) IsRunning() bool   { return p == PhaseRunning }
func (p Phase) IsSucceeded() bool { return p == PhaseSucceeded }
func (p Phase) IsFailed() bool    { return p == PhaseFailed }

// IsCompleted reports a terminal phase: Succeeded or Failed.
func (p Phase) IsCompleted() bool { return p == PhaseSucceeded || p == PhaseFailed }

// precedence is checked in order; terminal phases come first because the
// operator never retracts an earlier Running condition.
var precedence = []struct {
	cond  types.ConditionType
	phase Phase
}{
	{types.JobSucceeded, PhaseSucceeded},
	{types.JobFailed, PhaseFailed},
	{types.JobRunning, PhaseRunning},
	{types.JobCreated, PhaseCreated},
}

// DerivePhase returns the phase implied by conditions. List order and
// timestamps are ignored; a condition counts only when its status is
// "true" in any case.
func DerivePhase(conditions []types.JobCondition) Phase {
	for _, step := range precedence {
		for _, c := range conditions {
			if c.Type == step.cond && strings.EqualFold(c.Status, "true") {
				return step.phase
			}
		}
	}
	return PhaseUnknown
}
