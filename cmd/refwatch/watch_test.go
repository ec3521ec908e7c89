package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hostref/hostvm"
	"github.com/wippyai/hostref/ref"
)

var pauseKey = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}

func TestWatchModel_OnePassAtATime(t *testing.T) {
	resetFlags(t)
	defPath = ""

	d, err := loadDefinition()
	require.NoError(t, err)

	ctx := context.Background()
	vm, err := hostvm.New(ctx, hostvm.WithDefinition(d))
	require.NoError(t, err)
	ref.RegisterHost(vm)
	t.Cleanup(func() { require.NoError(t, vm.Close(ctx)) })

	feed := &eventFeed{ch: make(chan string, 1)}
	m := newWatchModel(ctx, vm, feed, &workload{def: d, workers: 1, iterations: 1})
	defer m.running.Wait()

	pass := m.runPass()
	require.NotNil(t, pass)
	assert.Nil(t, m.runPass(), "second pass started while one is running")

	// Pause and resume while the pass is still outstanding.
	_, cmd := m.Update(pauseKey)
	assert.Nil(t, cmd)
	_, cmd = m.Update(pauseKey)
	assert.Nil(t, cmd, "resume started a pass while one is running")

	_, next := m.Update(pass())
	require.NotNil(t, next, "finished pass should chain the next one")
	assert.Equal(t, 1, m.passes)
	assert.True(t, m.inFlight)

	// Pausing stops the chain once the running pass reports back.
	_, cmd = m.Update(pauseKey)
	assert.Nil(t, cmd)
	_, cmd = m.Update(next())
	assert.Nil(t, cmd)
	assert.False(t, m.inFlight)
	assert.Equal(t, 2, m.passes)
	assert.NoError(t, m.err)

	// Resuming with nothing in flight starts a new pass.
	_, cmd = m.Update(pauseKey)
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())
	assert.NotNil(t, cmd)
	m.paused = true
	_, cmd = m.Update(cmd())
	assert.Nil(t, cmd)
}
