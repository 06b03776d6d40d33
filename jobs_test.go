package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyActionLineProtocol(t *testing.T) {
	result := jobResult{Failed: map[string]string{}}
	applyActionLine(&result, "ok rec-1")
	applyActionLine(&result, "  ok rec-2  ")
	applyActionLine(&result, "error rec-3: permission denied")
	applyActionLine(&result, "error rec-4")
	applyActionLine(&result, "syncing 4 records...")
	applyActionLine(&result, "ok ")
	applyActionLine(&result, "error : no id")

	assert.Equal(t, []string{"rec-1", "rec-2"}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "permission denied", result.Failed["rec-3"])
	assert.Equal(t, "unknown error", result.Failed["rec-4"])
}

func TestJobManagerQueuesSequentially(t *testing.T) {
	jm := newJobManager()
	assert.False(t, jm.Busy())

	cmd := jm.Enqueue(jobRequest{title: "first", command: "true"})
	require.NotNil(t, cmd)
	assert.True(t, jm.Busy())

	// a second enqueue while busy only queues; no new runner is started
	assert.Nil(t, jm.Enqueue(jobRequest{title: "second", command: "true"}))
	assert.Len(t, jm.queue, 1)
}

func TestJobManagerPumpsUntilFinished(t *testing.T) {
	jm := newJobManager()
	finished := false
	cmd := jm.Enqueue(jobRequest{
		title:   "noop",
		command: "true",
		onFinish: func(result jobResult) tea.Cmd {
			finished = true
			return nil
		},
	})
	require.NotNil(t, cmd)

	// drive the manager the way Update does: run each returned command,
	// feed the message back in, repeat until nothing is left to listen to
	for cmd != nil {
		msg, ok := cmd().(jobMsg)
		require.True(t, ok)
		cmd = jm.Handle(msg)
		if _, done := msg.(jobFinishedMsg); done {
			break
		}
	}

	assert.True(t, finished)
	assert.False(t, jm.Busy())
}

func TestJobManagerRearmsAfterNonTerminalMessages(t *testing.T) {
	jm := newJobManager()
	require.NotNil(t, jm.Enqueue(jobRequest{title: "noisy", command: "true"}))

	assert.NotNil(t, jm.Handle(jobStartedMsg{Title: "noisy"}), "started keeps the receive alive")
	assert.NotNil(t, jm.Handle(jobLogMsg{Title: "noisy", Line: "working"}), "log output keeps the receive alive")
	assert.True(t, jm.Busy())
}

func TestJobManagerFinishRunsCallbackAndNext(t *testing.T) {
	jm := newJobManager()
	finished := ""
	jm.Enqueue(jobRequest{
		title:   "first",
		command: "true",
		onFinish: func(result jobResult) tea.Cmd {
			finished = "first"
			return nil
		},
	})
	jm.Enqueue(jobRequest{title: "second", command: "true"})

	next := jm.Handle(jobFinishedMsg{Title: "first"})
	assert.Equal(t, "first", finished)
	require.NotNil(t, next, "queued job starts after the finish")
	assert.True(t, jm.Busy())
	assert.Empty(t, jm.queue)
}

func TestJobManagerChannelClosedResets(t *testing.T) {
	jm := newJobManager()
	jm.Enqueue(jobRequest{title: "only", command: "true"})
	jm.Handle(jobFinishedMsg{Title: "only"})
	jm.Handle(jobChannelClosedMsg{})
	assert.False(t, jm.Busy())
}

func TestNilJobManagerNotBusy(t *testing.T) {
	var jm *jobManager
	assert.False(t, jm.Busy())
}
