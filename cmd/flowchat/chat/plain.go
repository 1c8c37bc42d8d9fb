package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/cliui"
	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = cliui.AssistantStyle.Render("assistant> ")
)

// plainREPL is the line oriented chat loop used when there is no terminal
// or --plain is given.
type plainREPL struct {
	session *chat.Session
	catalog *prompts.Catalog
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger

	// render formats an answer for display. Defaults to markdown rendering.
	render func(string) (string, error)
}

func (r *plainREPL) run(ctx context.Context) error {
	if r.render == nil {
		r.render = cliui.RenderMarkdown
	}

	fmt.Fprintf(r.out, "\n  %s\n\n",
		cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."),
	)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		in := parseInput(scanner.Text())
		switch in.kind {
		case inputEmpty:
			continue

		case inputExit:
			fmt.Fprintln(r.out)
			return nil

		case inputClear:
			r.session.Clear()
			fmt.Fprintf(r.out, "  %s %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render("Conversation cleared"))

		case inputHelp:
			fmt.Fprintf(r.out, "\n%s\n\n", indent(commandHelp))

		case inputListPrompts:
			r.printPrompts()

		case inputUnknownCommand:
			fmt.Fprintf(r.out, "  %s unknown command %s (try /help)\n\n", cliui.FailMark, in.text)

		case inputPrompt:
			text, err := r.catalog.Lookup(in.index)
			if err != nil {
				fmt.Fprintf(r.out, "  %s %v\n\n", cliui.FailMark, err)
				continue
			}
			fmt.Fprintf(r.out, "  %s\n", cliui.DimStyle.Render(text))
			r.exchange(ctx, text)

		case inputMessage:
			r.exchange(ctx, in.text)
		}

		if ctx.Err() != nil {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(r.out)
	return nil
}

func (r *plainREPL) exchange(ctx context.Context, text string) {
	var ex *chat.Exchange
	err := cliui.Step(r.out, "Processing...", func() error {
		var err error
		ex, err = r.session.Submit(ctx, text)
		return err
	})
	if err != nil {
		msg := err.Error()
		if exErr, ok := chat.AsExchangeError(err); ok {
			msg = exErr.Describe()
		}
		if errors.Is(err, context.Canceled) {
			msg = "Cancelled."
		}
		fmt.Fprintf(r.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(msg))
		return
	}

	rendered, err := r.render(answerText(ex.Assistant.Content))
	if err != nil {
		r.logger.Debug("markdown rendering failed", "error", err)
	}

	fmt.Fprintf(r.out, "%s\n%s\n", assistantPrompt, strings.TrimRight(rendered, "\n"))
	fmt.Fprintln(r.out)
}

func (r *plainREPL) printPrompts() {
	fmt.Fprintln(r.out)
	for _, cat := range r.catalog.Categories() {
		fmt.Fprintf(r.out, "  %s\n", cliui.NameStyle.Render(cat.Name))
		for _, e := range r.catalog.Entries() {
			if e.Category != cat.Name {
				continue
			}
			fmt.Fprintf(r.out, "    %s %s\n",
				cliui.KeyStyle.Render(fmt.Sprintf("/%d", e.Index)),
				cliui.ValueStyle.Render(e.Prompt),
			)
		}
	}
	fmt.Fprintln(r.out)
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// answerText returns what to display for an assistant answer.
func answerText(content string) string {
	if strings.TrimSpace(content) == "" {
		return flow.NoResponseText
	}
	return content
}
