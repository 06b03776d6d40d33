package main

import (
	"bufio"
	"os"
	"os/exec"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creack/pty"
)

// jobResult captures what a formsctl invocation reported per target record.
// Partial failure is normal: succeeded ids leave the table, failed ones stay
// selected for retry.
type jobResult struct {
	Err       error
	Succeeded []string
	Failed    map[string]string
}

type jobRequest struct {
	title    string
	command  string
	args     []string
	env      []string
	onStart  func()
	onFinish func(jobResult) tea.Cmd
}

type jobMsg interface {
	isJob()
}

type jobStartedMsg struct {
	Title string
}

type jobLogMsg struct {
	Title string
	Line  string
}

type jobFinishedMsg struct {
	Title  string
	Result jobResult
}

type jobChannelClosedMsg struct{}

func (jobStartedMsg) isJob()       {}
func (jobLogMsg) isJob()           {}
func (jobFinishedMsg) isJob()      {}
func (jobChannelClosedMsg) isJob() {}

// jobManager serializes formsctl invocations: one running job, the rest
// queued. The pty keeps formsctl's progress output line-buffered for the
// logs pane.
type jobManager struct {
	queue   []jobRequest
	current *jobRequest
	ch      chan jobMsg
	running bool
}

func newJobManager() *jobManager {
	return &jobManager{}
}

func (jm *jobManager) Enqueue(req jobRequest) tea.Cmd {
	jm.queue = append(jm.queue, req)
	return jm.nextCmd()
}

func (jm *jobManager) Busy() bool {
	return jm != nil && jm.running
}

func (jm *jobManager) Handle(msg jobMsg) tea.Cmd {
	switch msg := msg.(type) {
	case jobStartedMsg:
		if jm.current != nil && jm.current.onStart != nil {
			jm.current.onStart()
		}
		return jm.listen()
	case jobLogMsg:
		return jm.listen()
	case jobFinishedMsg:
		var followUp tea.Cmd
		if jm.current != nil && jm.current.onFinish != nil {
			followUp = jm.current.onFinish(msg.Result)
		}
		jm.running = false
		jm.current = nil
		jm.ch = nil
		if next := jm.nextCmd(); next != nil {
			if followUp != nil {
				return tea.Batch(followUp, next)
			}
			return next
		}
		return followUp
	case jobChannelClosedMsg:
		jm.running = false
		jm.current = nil
		jm.ch = nil
		return jm.nextCmd()
	}
	return nil
}

// listen re-arms the channel receive. Every non-terminal job message must
// produce a new receive or the sender in runJob blocks.
func (jm *jobManager) listen() tea.Cmd {
	if jm.ch == nil {
		return nil
	}
	return waitForJobMsg(jm.ch)
}

func (jm *jobManager) nextCmd() tea.Cmd {
	if jm.running || len(jm.queue) == 0 {
		return nil
	}
	req := jm.queue[0]
	jm.queue = jm.queue[1:]
	jm.current = &req
	jm.running = true

	ch := make(chan jobMsg)
	jm.ch = ch
	go runJob(req, ch)
	return waitForJobMsg(ch)
}

func runJob(req jobRequest, ch chan<- jobMsg) {
	defer close(ch)

	ch <- jobStartedMsg{Title: req.title}

	cmd := exec.Command(req.command, req.args...)
	if len(req.env) > 0 {
		env := append([]string{}, os.Environ()...)
		env = append(env, req.env...)
		cmd.Env = env
	}

	result := jobResult{Failed: map[string]string{}}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		ch <- jobLogMsg{Title: req.title, Line: err.Error()}
		result.Err = err
		ch <- jobFinishedMsg{Title: req.title, Result: result}
		return
	}
	defer ptmx.Close()

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(ptmx)
		for scanner.Scan() {
			line := scanner.Text()
			applyActionLine(&result, line)
			ch <- jobLogMsg{Title: req.title, Line: line}
		}
	}()

	wg.Wait()
	result.Err = cmd.Wait()
	ch <- jobFinishedMsg{Title: req.title, Result: result}
}

// applyActionLine parses formsctl's per-record progress protocol:
//
//	ok <id>
//	error <id>: <reason>
//
// Anything else is plain log output.
func applyActionLine(result *jobResult, line string) {
	trimmed := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(trimmed, "ok "); ok {
		id := strings.TrimSpace(rest)
		if id != "" {
			result.Succeeded = append(result.Succeeded, id)
		}
		return
	}
	if rest, ok := strings.CutPrefix(trimmed, "error "); ok {
		id, reason, found := strings.Cut(rest, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if !found {
			reason = "unknown error"
		}
		result.Failed[id] = strings.TrimSpace(reason)
	}
}

func waitForJobMsg(ch <-chan jobMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return jobChannelClosedMsg{}
		}
		return msg
	}
}
