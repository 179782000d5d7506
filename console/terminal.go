package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/Skryldev/employee-registry/models"
)

// LineReader reads one line of user input after showing a prompt.
// *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Terminal is the line-oriented View: tables are drawn with tablewriter,
// notifications are coloured by severity and confirmations are yes/no
// prompts read from the same LineReader as commands.
type Terminal struct {
	out io.Writer
	in  LineReader

	info  *color.Color
	warn  *color.Color
	fail  *color.Color
	title *color.Color
}

// NewTerminal returns a Terminal writing to out and reading answers from in.
func NewTerminal(out io.Writer, in LineReader) *Terminal {
	return &Terminal{
		out:   out,
		in:    in,
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
		title: color.New(color.Bold),
	}
}

// Banner prints the application title.
func (t *Terminal) Banner() {
	t.title.Fprintln(t.out, "Employee Registration System")
	fmt.Fprintln(t.out, `Type "help" for the list of commands.`)
	fmt.Fprintln(t.out)
}

// Render draws the employee table. The selected row is marked with '>'.
func (t *Terminal) Render(rows []models.Employee, selected int64) {
	t.title.Fprintln(t.out, "Employee List")

	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"", "ID", "Full Name", "Sex", "Email"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})
	for _, e := range rows {
		mark := ""
		if e.ID == selected {
			mark = ">"
		}
		table.Append([]string{mark, strconv.FormatInt(e.ID, 10), e.Name, e.Sex.Label(), e.Email})
	}
	table.SetFooter([]string{"", "", "", "", fmt.Sprintf("%d employee(s)", len(rows))})
	table.Render()
}

// ShowForm draws the current form values.
func (t *Terminal) ShowForm(f Form) {
	t.title.Fprintln(t.out, "Add New Employee")

	table := tablewriter.NewWriter(t.out)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	table.Append([]string{"Name:", f.Name})
	table.Append([]string{"Sex:", f.Sex.Label()})
	table.Append([]string{"Email:", f.Email})
	table.Render()
}

// ShowHelp prints text verbatim.
func (t *Terminal) ShowHelp(text string) {
	fmt.Fprint(t.out, text)
}

// Notify prints a titled message coloured by level.
func (t *Terminal) Notify(level Level, title, message string) {
	c := t.info
	switch level {
	case LevelWarning:
		c = t.warn
	case LevelError:
		c = t.fail
	}
	c.Fprintf(t.out, "[%s] ", title)
	fmt.Fprintln(t.out, message)
}

// Confirm asks a yes/no question. Anything but an explicit yes, including a
// read error, counts as no.
func (t *Terminal) Confirm(title, question string) bool {
	t.warn.Fprintf(t.out, "[%s] ", title)
	fmt.Fprintln(t.out, question)
	answer, err := t.in.Prompt("[y/N] ")
	if err != nil {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

var _ View = (*Terminal)(nil)
