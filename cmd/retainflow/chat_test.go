package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/retainflow/agent/orchestrator"
	"github.com/BaSui01/retainflow/types"
	"github.com/BaSui01/retainflow/workflow"
)

// scriptedEngine answers each Advance with the next scripted turn.
type scriptedEngine struct {
	turns    []scriptedTurn
	starts   int
	ends     int
	received []string
}

type scriptedTurn struct {
	res workflow.TurnResult
	err error
}

func (e *scriptedEngine) Start() workflow.ConversationState {
	e.starts++
	return workflow.ConversationState{ID: "conv"}
}

func (e *scriptedEngine) Advance(_ context.Context, s workflow.ConversationState, msg string) (workflow.ConversationState, workflow.TurnResult, error) {
	e.received = append(e.received, msg)
	if len(e.turns) == 0 {
		return s, reply(workflow.NodeOrchestrator, "ok"), nil
	}
	t := e.turns[0]
	e.turns = e.turns[1:]
	return s, t.res, t.err
}

func (e *scriptedEngine) End(s workflow.ConversationState) workflow.ConversationState {
	e.ends++
	return s
}

func reply(node workflow.Node, text string) workflow.TurnResult {
	return workflow.TurnResult{
		Replies: []types.Message{types.NewAgentMessage(string(node), text)},
		Agent:   node,
	}
}

func runREPL(t *testing.T, engine *scriptedEngine, input string) string {
	t.Helper()
	var out bytes.Buffer
	r := newREPL(engine, strings.NewReader(input), &out, nil)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestREPL_GreetsAndQuits(t *testing.T) {
	engine := &scriptedEngine{}
	out := runREPL(t, engine, "quit\n")

	assert.Contains(t, out, "TechFlow Electronics Customer Support")
	assert.Contains(t, out, "🤖 Greeter: "+orchestrator.Greeting)
	assert.Contains(t, out, "Goodbye!")
	assert.Equal(t, 1, engine.ends)
	assert.Empty(t, engine.received)
}

func TestREPL_SkipsBlankLines(t *testing.T) {
	engine := &scriptedEngine{turns: []scriptedTurn{{res: reply(workflow.NodeOrchestrator, "How can I help?")}}}
	out := runREPL(t, engine, "\n   \nhello\nexit\n")

	assert.Equal(t, []string{"hello"}, engine.received)
	assert.Contains(t, out, "🤖 Orchestrator: How can I help?")
}

func TestREPL_Reset(t *testing.T) {
	engine := &scriptedEngine{}
	out := runREPL(t, engine, "reset\nquit\n")

	assert.Equal(t, 2, engine.starts)
	assert.Contains(t, out, "--- Conversation Reset ---")
	assert.Equal(t, 2, strings.Count(out, "🤖 Greeter:"))
}

func TestREPL_TurnErrorKeepsSession(t *testing.T) {
	engine := &scriptedEngine{turns: []scriptedTurn{
		{err: types.NewError(types.ErrTurnFailed, "the assistant is unavailable")},
		{res: reply(workflow.NodeOrchestrator, "Back again")},
	}}
	out := runREPL(t, engine, "first\nsecond\nquit\n")

	assert.Contains(t, out, "❌ Error: the assistant is unavailable")
	assert.Contains(t, out, "type 'reset' to start over")
	assert.Contains(t, out, "Back again")
	assert.Equal(t, []string{"first", "second"}, engine.received)
}

func TestREPL_EndedConversation(t *testing.T) {
	ended := reply(workflow.NodeProcessor, "Your cancellation is confirmed.")
	ended.Ended = true

	t.Run("restart", func(t *testing.T) {
		engine := &scriptedEngine{turns: []scriptedTurn{{res: ended}}}
		out := runREPL(t, engine, "cancel\ny\nquit\n")

		assert.Contains(t, out, "--- Conversation Ended ---")
		assert.Contains(t, out, "--- New Conversation ---")
		assert.Equal(t, 2, engine.starts)
	})

	t.Run("decline", func(t *testing.T) {
		engine := &scriptedEngine{turns: []scriptedTurn{{res: ended}}}
		out := runREPL(t, engine, "cancel\nn\nnever read\n")

		assert.Contains(t, out, "Start a new conversation? (y/n): ")
		assert.Contains(t, out, "Goodbye!")
		assert.NotContains(t, out, "--- New Conversation ---")
		assert.Equal(t, []string{"cancel"}, engine.received)
	})
}

func TestREPL_EOFSaysGoodbye(t *testing.T) {
	engine := &scriptedEngine{}
	out := runREPL(t, engine, "")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Goodbye!"))
}

func TestREPL_HandOffNotice(t *testing.T) {
	engine := &scriptedEngine{turns: []scriptedTurn{{res: workflow.TurnResult{HandedOff: true, Agent: workflow.NodeRetention}}}}
	out := runREPL(t, engine, "just cancel it\nquit\n")

	assert.Contains(t, out, "(Transferring you to account processing...)")
	assert.NotContains(t, out, "🤖 Retention:")
}

func TestREPL_RunScenario(t *testing.T) {
	ended := reply(workflow.NodeProcessor, "Done.")
	ended.Ended = true
	engine := &scriptedEngine{turns: []scriptedTurn{
		{res: reply(workflow.NodeRetention, "How about a discount?")},
		{res: ended},
	}}
	var out bytes.Buffer
	r := newREPL(engine, strings.NewReader(""), &out, nil)

	err := r.RunScenario(context.Background(), "demo", []string{"one", "two", "three"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, engine.received)
	assert.Contains(t, out.String(), "Test Scenario: demo")
	assert.Contains(t, out.String(), "👤 Customer: one")
	assert.Contains(t, out.String(), "🤖 Retention: How about a discount?")
	assert.Contains(t, out.String(), "End of Scenario: demo")
}

func TestREPL_RunScenarioError(t *testing.T) {
	engine := &scriptedEngine{turns: []scriptedTurn{{err: errors.New("boom")}}}
	r := newREPL(engine, strings.NewReader(""), &bytes.Buffer{}, nil)

	err := r.RunScenario(context.Background(), "demo", []string{"one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario demo")
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "try later", failureMessage(types.NewError(types.ErrTurnFailed, "try later")))
	assert.Equal(t, "something went wrong", failureMessage(errors.New("dial tcp: refused")))
}

func TestScenarioNames(t *testing.T) {
	names := scenarioNames()
	assert.Len(t, names, len(scenarios))
	assert.IsIncreasing(t, names)
}
