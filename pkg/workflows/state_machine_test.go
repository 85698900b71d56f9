package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lightStatus string

func newLightMachine() *StateMachine[lightStatus] {
	return NewStateMachine("light", map[lightStatus][]lightStatus{
		"green":  {"yellow"},
		"yellow": {"red"},
		"red":    {"green"},
		"off":    {},
	})
}

func TestCanTransition(t *testing.T) {
	sm := newLightMachine()

	assert.True(t, sm.CanTransition("green", "yellow"))
	assert.False(t, sm.CanTransition("green", "red"))
	assert.False(t, sm.CanTransition("unknown", "green"))
	assert.False(t, sm.CanTransition("off", "green"))
}

func TestTransitionRejectsUnlistedMove(t *testing.T) {
	sm := newLightMachine()

	next, err := sm.Transition("yellow", "red")
	require.NoError(t, err)
	assert.Equal(t, lightStatus("red"), next)

	next, err = sm.Transition("yellow", "green")
	require.Error(t, err)
	assert.Equal(t, lightStatus("yellow"), next)

	var transitionErr *TransitionError[lightStatus]
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, lightStatus("green"), transitionErr.To)
	assert.Contains(t, err.Error(), "light")
}

func TestTerminalAndAllowed(t *testing.T) {
	sm := newLightMachine()

	assert.True(t, sm.IsTerminal("off"))
	assert.True(t, sm.IsTerminal("unknown"))
	assert.False(t, sm.IsTerminal("red"))
	assert.Equal(t, []lightStatus{"yellow"}, sm.GetAllowedTransitions("green"))
	assert.Empty(t, sm.GetAllowedTransitions("unknown"))
}
