package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CommandName identifies one user action.
type CommandName string

const (
	CmdRefresh CommandName = "refresh"
	CmdAdd     CommandName = "add"
	CmdDelete  CommandName = "delete"
	CmdSelect  CommandName = "select"
	CmdName    CommandName = "name"
	CmdSex     CommandName = "sex"
	CmdEmail   CommandName = "email"
	CmdForm    CommandName = "form"
	CmdHelp    CommandName = "help"
	CmdQuit    CommandName = "quit"
)

var aliases = map[string]CommandName{
	"refresh": CmdRefresh,
	"list":    CmdRefresh,
	"ls":      CmdRefresh,
	"add":     CmdAdd,
	"submit":  CmdAdd,
	"delete":  CmdDelete,
	"rm":      CmdDelete,
	"select":  CmdSelect,
	"sel":     CmdSelect,
	"name":    CmdName,
	"sex":     CmdSex,
	"email":   CmdEmail,
	"form":    CmdForm,
	"help":    CmdHelp,
	"-h":      CmdHelp,
	"--help":  CmdHelp,
	"quit":    CmdQuit,
	"exit":    CmdQuit,
}

// Command is one parsed user action with its optional argument.
type Command struct {
	Name CommandName
	Arg  string
}

// ErrUnknownCommand is returned by ParseCommand for unrecognised input.
var ErrUnknownCommand = errors.New("console: unknown command")

// ErrQuit is returned by Dispatch when the user asks to leave.
var ErrQuit = errors.New("console: quit")

// ParseCommand splits a line into a command word and the rest of the line,
// which is kept verbatim so names may contain spaces.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}
	word, rest, _ := strings.Cut(line, " ")
	name, ok := aliases[strings.ToLower(word)]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}
	return Command{Name: name, Arg: strings.TrimSpace(rest)}, nil
}

// Dispatch runs the operation bound to cmd.
func (a *App) Dispatch(ctx context.Context, cmd Command) error {
	a.logger.DebugContext(ctx, "dispatch", "command", string(cmd.Name))

	switch cmd.Name {
	case CmdRefresh:
		return a.Refresh(ctx)
	case CmdAdd:
		return a.SubmitAdd(ctx)
	case CmdDelete:
		if cmd.Arg != "" {
			if err := a.selectArg(cmd.Arg); err != nil {
				return err
			}
		}
		return a.SubmitDelete(ctx)
	case CmdSelect:
		return a.selectArg(cmd.Arg)
	case CmdName:
		a.SetName(cmd.Arg)
		a.view.ShowForm(a.form)
		return nil
	case CmdEmail:
		a.SetEmail(cmd.Arg)
		a.view.ShowForm(a.form)
		return nil
	case CmdSex:
		if err := a.SetSex(cmd.Arg); err != nil {
			return err
		}
		a.view.ShowForm(a.form)
		return nil
	case CmdForm:
		a.view.ShowForm(a.form)
		return nil
	case CmdHelp:
		a.view.ShowHelp(HelpText)
		return nil
	case CmdQuit:
		return ErrQuit
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
}

func (a *App) selectArg(arg string) error {
	if arg == "" || strings.EqualFold(arg, "none") {
		return a.Select(0)
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		a.view.Notify(LevelWarning, "Invalid ID", fmt.Sprintf("%q is not an employee ID.", arg))
		return fmt.Errorf("console: invalid id %q", arg)
	}
	return a.Select(id)
}

// HelpText describes the commands understood by Dispatch and the shell.
const HelpText = `Form
  name <text>      set the name field
  sex <value>      set the sex selector (Male, Female, Other)
  email <text>     set the email field
  form             show the form
  add              register the employee described by the form

List
  refresh          reload the employee list (aliases: list, ls)
  select <id>      select a row; "select none" clears the selection
  delete [id]      delete the selected row after confirmation (alias: rm)

  help             show this help
  quit             leave (alias: exit)
`
