// Package repl is an interactive terminal front-end for a single session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"

	"mentichat/internal/conversation"
	"mentichat/internal/models"
	"mentichat/internal/session"
)

// Resolver turns the current provider/model choice into a selection.
type Resolver interface {
	Selection(provider, model string) (models.ProviderSelection, error)
}

// REPL holds the mutable provider/model choice; the selection is resolved
// again for every submitted line.
type REPL struct {
	ctrl     *session.Controller
	resolver Resolver
	out      io.Writer

	provider string
	model    string

	// turnContext scopes one submission; Ctrl+C cancels only that turn.
	turnContext func(parent context.Context) (context.Context, context.CancelFunc)
}

// New creates a REPL writing to out.
func New(ctrl *session.Controller, resolver Resolver, out io.Writer, provider, model string) *REPL {
	return &REPL{
		ctrl:        ctrl,
		resolver:    resolver,
		out:         out,
		provider:    provider,
		model:       model,
		turnContext: interruptible,
	}
}

func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

const helpText = `Commands:
  /provider <hosted|google>  switch provider
  /model <name>              switch model (empty resets to default)
  /history                   show the conversation, newest first
  /reset                     clear the conversation
  /help                      show this help
  /quit                      leave`

// HandleLine processes one line of input and reports whether the loop should
// continue.
func (r *REPL) HandleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, "/") {
		return r.command(line)
	}

	sel, err := r.resolver.Selection(r.provider, r.model)
	if err != nil {
		fmt.Fprintf(r.out, "⚠️ %v\n", err)
		return true
	}
	_, bot, ok := r.ctrl.Submit(ctx, line, sel)
	if ok {
		fmt.Fprintf(r.out, "bot> %s\n", bot.Text)
	}
	return true
}

func (r *REPL) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return false
	case "/reset":
		r.ctrl.Reset()
		fmt.Fprintln(r.out, "Chat history cleared.")
	case "/provider":
		if _, err := models.ParseProviderKind(arg); err != nil || arg == "" {
			fmt.Fprintf(r.out, "Unknown provider %q\n", arg)
			return true
		}
		r.provider = arg
		r.model = ""
		fmt.Fprintf(r.out, "Provider set to %s.\n", arg)
	case "/model":
		r.model = arg
		fmt.Fprintf(r.out, "Model set to %q.\n", arg)
	case "/history":
		r.printHistory()
	case "/help":
		fmt.Fprintln(r.out, helpText)
	default:
		fmt.Fprintf(r.out, "Unknown command %s (try /help)\n", name)
	}
	return true
}

func (r *REPL) printHistory() {
	turns := conversation.NewestFirst(r.ctrl.Transcript())
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "(empty)")
		return
	}
	for _, t := range turns {
		fmt.Fprintf(r.out, "[%d] %s> %s\n", t.Sequence, t.Role, t.Text)
	}
}

// Run reads lines with history and line editing until /quit, Ctrl+C at the
// prompt, or EOF. Ctrl+C while a reply is pending cancels just that turn.
// historyFile may be empty.
func (r *REPL) Run(ctx context.Context, historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(line, historyFile)
	}

	fmt.Fprintln(r.out, "Type a message, or /help for commands.")
	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !r.turn(ctx, input) {
			return nil
		}
	}
}

// turn runs one line under its own interruptible context so that an
// interrupt while a reply is pending leaves later turns unaffected.
func (r *REPL) turn(parent context.Context, input string) bool {
	ctx, stop := r.turnContext(parent)
	defer stop()
	return r.HandleLine(ctx, input)
}

func saveHistory(line *liner.State, path string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
