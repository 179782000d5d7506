package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/employee-registry/models"
)

func init() { color.NoColor = true }

// scriptReader replays lines, then reports io.EOF.
type scriptReader struct {
	lines   []string
	prompts []string
	history []string
	err     error
}

func (r *scriptReader) Prompt(p string) (string, error) {
	r.prompts = append(r.prompts, p)
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) AppendHistory(item string) { r.history = append(r.history, item) }

func TestTerminal_Render(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, &scriptReader{})

	term.Render([]models.Employee{ana, luis}, luis.ID)

	s := out.String()
	assert.Contains(t, s, "Employee List")
	assert.Contains(t, s, "Full Name")
	assert.Contains(t, s, "Ana Gomez")
	assert.Contains(t, s, "Female")
	assert.Contains(t, s, "luis@x.com")
	assert.Contains(t, s, "2 employee(s)")

	var marked string
	for _, l := range strings.Split(s, "\n") {
		if strings.Contains(l, ">") {
			marked = l
		}
	}
	assert.Contains(t, marked, "Luis Perez")
}

func TestTerminal_RenderEmpty(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(&out, &scriptReader{}).Render(nil, 0)
	assert.Contains(t, out.String(), "0 employee(s)")
}

func TestTerminal_ShowForm(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(&out, &scriptReader{}).ShowForm(Form{Name: "Ana", Sex: models.SexOther, Email: "a@x.com"})

	s := out.String()
	assert.Contains(t, s, "Add New Employee")
	assert.Contains(t, s, "Ana")
	assert.Contains(t, s, "Other")
	assert.Contains(t, s, "a@x.com")
}

func TestTerminal_Notify(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(&out, &scriptReader{}).Notify(LevelError, "Connection error", "refused")
	assert.Equal(t, "[Connection error] refused\n", out.String())
}

func TestTerminal_Confirm(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{"YES", true},
		{" yes ", true},
		{"n", false},
		{"", false},
		{"maybe", false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		in := &scriptReader{lines: []string{tc.answer}}
		got := NewTerminal(&out, in).Confirm("Confirm deletion", "Delete Ana (ID: 1)?")
		assert.Equal(t, tc.want, got, "answer %q", tc.answer)
		assert.Contains(t, out.String(), "Delete Ana (ID: 1)?")
		assert.Equal(t, []string{"[y/N] "}, in.prompts)
	}
}

func TestTerminal_ConfirmReadErrorIsNo(t *testing.T) {
	var out bytes.Buffer
	in := &scriptReader{err: liner.ErrPromptAborted}
	assert.False(t, NewTerminal(&out, in).Confirm("Confirm deletion", "Delete?"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"add", Command{Name: CmdAdd}},
		{"  LIST ", Command{Name: CmdRefresh}},
		{"name Ana  Maria Gomez", Command{Name: CmdName, Arg: "Ana  Maria Gomez"}},
		{"rm 4", Command{Name: CmdDelete, Arg: "4"}},
		{"sel none", Command{Name: CmdSelect, Arg: "none"}},
		{"exit", Command{Name: CmdQuit}},
	}
	for _, tc := range cases {
		got, err := ParseCommand(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}

	for _, bad := range []string{"", "   ", "drop table"} {
		_, err := ParseCommand(bad)
		assert.ErrorIs(t, err, ErrUnknownCommand, bad)
	}
}

func TestDispatch_FormCommands(t *testing.T) {
	app, _, v := newTestApp()
	ctx := context.Background()

	require.NoError(t, app.Dispatch(ctx, Command{Name: CmdName, Arg: "Ana Gomez"}))
	require.NoError(t, app.Dispatch(ctx, Command{Name: CmdSex, Arg: "other"}))
	require.NoError(t, app.Dispatch(ctx, Command{Name: CmdEmail, Arg: "ana@x.com"}))

	assert.Equal(t, Form{Name: "Ana Gomez", Sex: models.SexOther, Email: "ana@x.com"}, app.Form())
	assert.Len(t, v.forms, 3)
	assert.ErrorIs(t, app.Dispatch(ctx, Command{Name: CmdQuit}), ErrQuit)
}

func TestDispatch_DeleteWithID(t *testing.T) {
	app, s, v := newTestApp(ana, luis)
	ctx := context.Background()
	require.NoError(t, app.Refresh(ctx))
	v.answer = true

	require.NoError(t, app.Dispatch(ctx, Command{Name: CmdDelete, Arg: "2"}))
	assert.Equal(t, []int64{luis.ID}, s.deleted)

	err := app.Dispatch(ctx, Command{Name: CmdDelete, Arg: "abc"})
	require.Error(t, err)
	assert.Equal(t, "Invalid ID", v.last().title)
	assert.Len(t, s.deleted, 1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shell
// ─────────────────────────────────────────────────────────────────────────────

func TestShell_AddSelectDelete(t *testing.T) {
	s := &memStore{}
	in := &scriptReader{lines: []string{
		"name Ana Gomez",
		"sex Female",
		"email ana@x.com",
		"add",
		"select 1",
		"delete",
		"yes",
		"bogus",
		"",
		"quit",
		"add",
	}}
	var out bytes.Buffer
	term := NewTerminal(&out, in)
	app := NewApp(s, term, nil)

	require.NoError(t, NewShell(app, term, in, nil).Run(context.Background()))

	assert.Equal(t, 1, s.addCalls, "lines after quit are not read")
	assert.Equal(t, []int64{1}, s.deleted)
	assert.Empty(t, app.Rows())

	text := out.String()
	assert.Contains(t, text, "Employee Registration System")
	assert.Contains(t, text, "Employee registered.")
	assert.Contains(t, text, "Delete Ana Gomez (ID: 1)?")
	assert.Contains(t, text, "Employee deleted.")
	assert.Contains(t, text, "[Unknown command]")
	assert.NotContains(t, in.history, "")
	assert.Contains(t, in.history, "quit")
}

func TestShell_EOFEndsLoop(t *testing.T) {
	s := &memStore{rows: []models.Employee{ana}}
	in := &scriptReader{}
	var out bytes.Buffer
	term := NewTerminal(&out, in)
	app := NewApp(s, term, nil)

	require.NoError(t, NewShell(app, term, in, nil).Run(context.Background()))
	assert.Equal(t, 1, s.listCalls)
	assert.Contains(t, out.String(), "Ana Gomez")
}

func TestShell_StartupFailureKeepsRunning(t *testing.T) {
	s := &memStore{listErr: errors.New("refused")}
	in := &scriptReader{lines: []string{"help"}}
	var out bytes.Buffer
	term := NewTerminal(&out, in)

	require.NoError(t, NewShell(NewApp(s, term, nil), term, in, nil).Run(context.Background()))
	assert.Contains(t, out.String(), "Query error")
	assert.Contains(t, out.String(), "select <id>")
}

func TestShell_ReadError(t *testing.T) {
	boom := errors.New("tty gone")
	in := &scriptReader{err: boom}
	var out bytes.Buffer
	term := NewTerminal(&out, in)

	err := NewShell(NewApp(&memStore{}, term, nil), term, in, nil).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
