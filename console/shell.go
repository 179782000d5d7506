package console

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/peterh/liner"
)

const prompt = "registry> "

// historyAppender is implemented by *liner.State.
type historyAppender interface {
	AppendHistory(item string)
}

// Shell is the event loop: it reads one line at a time, maps it to a Command
// and dispatches it synchronously. Every action finishes before the next
// line is read.
type Shell struct {
	app    *App
	term   *Terminal
	in     LineReader
	logger *slog.Logger
}

// NewShell returns a Shell driving app, reading commands from in.
func NewShell(app *App, term *Terminal, in LineReader, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{app: app, term: term, in: in, logger: logger.With("component", "shell")}
}

// Run shows the banner, loads the list once and then processes commands
// until quit, end of input or ctx is done. No single failing command ends
// the loop.
func (s *Shell) Run(ctx context.Context) error {
	s.term.Banner()
	_ = s.app.Refresh(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.in.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if h, ok := s.in.(historyAppender); ok && line != "" {
			h.AppendHistory(line)
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			if line != "" {
				s.term.Notify(LevelWarning, "Unknown command", `Type "help" for the list of commands.`)
			}
			continue
		}

		if err := s.app.Dispatch(ctx, cmd); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			s.logger.DebugContext(ctx, "command failed", "command", string(cmd.Name), "error", err)
		}
	}
}
