package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/agent/orchestrator"
	"github.com/BaSui01/retainflow/types"
	"github.com/BaSui01/retainflow/workflow"
)

// =============================================================================
// 💬 chat 命令
// =============================================================================

// chatEngine is the slice of workflow.Router the terminal loop drives.
type chatEngine interface {
	Start() workflow.ConversationState
	Advance(ctx context.Context, state workflow.ConversationState, message string) (workflow.ConversationState, workflow.TurnResult, error)
	End(state workflow.ConversationState) workflow.ConversationState
}

var _ chatEngine = (*workflow.Router)(nil)

// scenarios are scripted conversations for `chat --scenario`.
var scenarios = map[string][]string{
	"money_problems": {
		"hi, my email is sarah.j@email.com",
		"hey can't afford the $13/month care+ anymore, need to cancel",
	},
	"phone_problems": {
		"hello, I'm john.smith@email.com",
		"this phone keeps overheating, want to return it and cancel everything",
	},
	"questioning_value": {
		"hi there, email is mike.wilson@email.com",
		"paying for care+ but never used it, maybe just get rid of it?",
	},
	"technical_help": {
		"hey, my email is emily.b@email.com",
		"my phone won't charge anymore, tried different cables",
	},
	"billing_question": {
		"hi, david.lee@email.com here",
		"got charged $15.99 but thought care+ was $12.99, what's the extra?",
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func runChat(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, configPath := commandFlags("chat", stderr)
	scenario := fs.String("scenario", "", "Run a scripted scenario ("+strings.Join(scenarioNames(), ", ")+", all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *scenario != "" && *scenario != "all" {
		if _, ok := scenarios[*scenario]; !ok {
			return fmt.Errorf("unknown scenario %q", *scenario)
		}
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger, appOptions{
		onRateLimitWait: func(retry, maxRetries int, delay time.Duration) {
			fmt.Fprintf(stdout, "⏳ Rate limited. Waiting %.0fs before retry (%d/%d)...\n", delay.Seconds(), retry, maxRetries)
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	r := newREPL(a.router, stdin, stdout, logger)
	if *scenario == "" {
		return r.Run(ctx)
	}
	names := []string{*scenario}
	if *scenario == "all" {
		names = scenarioNames()
	}
	for _, name := range names {
		if err := r.RunScenario(ctx, name, scenarios[name]); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// 🔁 交互循环
// =============================================================================

type repl struct {
	engine chatEngine
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger
}

func newREPL(engine chatEngine, in io.Reader, out io.Writer, logger *zap.Logger) *repl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &repl{engine: engine, in: bufio.NewScanner(in), out: out, logger: logger}
}

func (r *repl) banner() {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(r.out, "\n%s\n  TechFlow Electronics Customer Support\n  Multi-Agent Chat System\n%s\n", line, line)
	fmt.Fprintln(r.out, "\nType 'quit' or 'exit' to end the conversation")
	fmt.Fprintln(r.out, "Type 'reset' to start a new conversation")
	fmt.Fprintln(r.out, strings.Repeat("-", 60))
}

func (r *repl) say(agent, text string) {
	fmt.Fprintf(r.out, "\n🤖 %s: %s\n\n", agent, text)
}

func (r *repl) greet() {
	r.say("Greeter", orchestrator.Greeting)
}

func (r *repl) goodbye() {
	fmt.Fprintln(r.out, "\nThank you for contacting TechFlow Electronics. Goodbye!")
}

// prompt prints p and reads one trimmed line. ok is false at end of input.
func (r *repl) prompt(p string) (line string, ok bool) {
	fmt.Fprint(r.out, p)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// Run drives one terminal session until quit, end of input or ctx is done.
func (r *repl) Run(ctx context.Context) error {
	r.banner()
	state := r.engine.Start()
	r.greet()

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(r.out, "\n\nGoodbye!")
			return nil
		}
		input, ok := r.prompt("👤 You: ")
		if !ok {
			r.goodbye()
			return r.in.Err()
		}
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			r.engine.End(state)
			r.goodbye()
			return nil
		case "reset":
			state = r.engine.Start()
			fmt.Fprintln(r.out, "\n--- Conversation Reset ---")
			r.greet()
			continue
		}

		next, res, err := r.engine.Advance(ctx, state, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			r.logger.Warn("turn failed", zap.String("conversation_id", state.ID), zap.Error(err))
			fmt.Fprintf(r.out, "\n❌ Error: %s\n", failureMessage(err))
			fmt.Fprintln(r.out, "Please try again or type 'reset' to start over.")
			continue
		}
		state = next
		r.show(res)

		if res.Ended {
			fmt.Fprintln(r.out, "\n--- Conversation Ended ---")
			answer, ok := r.prompt("Start a new conversation? (y/n): ")
			if !ok || strings.ToLower(answer) != "y" {
				r.goodbye()
				return nil
			}
			state = r.engine.Start()
			fmt.Fprintln(r.out, "\n--- New Conversation ---")
			r.greet()
		}
	}
}

// RunScenario plays scripted customer messages through a fresh conversation.
func (r *repl) RunScenario(ctx context.Context, name string, messages []string) error {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(r.out, "\n%s\n  Test Scenario: %s\n%s\n", line, name, line)

	state := r.engine.Start()
	for _, msg := range messages {
		fmt.Fprintf(r.out, "\n👤 Customer: %s\n", msg)
		next, res, err := r.engine.Advance(ctx, state, msg)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		state = next
		r.show(res)
		if res.Ended {
			break
		}
	}

	fmt.Fprintf(r.out, "\n%s\n  End of Scenario: %s\n%s\n", line, name, line)
	return nil
}

func (r *repl) show(res workflow.TurnResult) {
	if res.HandedOff {
		fmt.Fprintln(r.out, "\n(Transferring you to account processing...)")
	}
	for _, m := range res.Replies {
		r.say(workflow.Node(m.Agent).DisplayName(), m.Content)
	}
}

// failureMessage 返回可展示给用户的错误描述，不暴露内部原因
func failureMessage(err error) string {
	if e, ok := types.AsError(err); ok && e.Message != "" {
		return e.Message
	}
	return "something went wrong"
}
