// Package printers renders schedctl output as colored tables.
package printers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/barsea/schedpoint/internal/client"
)

type PrettyPrint struct {
	Out    io.Writer
	ShowID bool
}

// New prints to color.Output, which handles Windows consoles.
func New() *PrettyPrint {
	return &PrettyPrint{Out: color.Output, ShowID: true}
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.Out)
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.Out, title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.Out, title)
	_, _ = c.Fprintf(pp.Out, " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.Out, " entry")
	default:
		_, _ = c.Fprintln(pp.Out, " entries")
	}
}

// Blocks prints one day's plans or actuals as a table.
func (pp *PrettyPrint) Blocks(title string, blocks []client.Block) {
	pp.TitleWithCount(title, len(blocks))
	if len(blocks) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.Out, " none\n\n")
		return
	}

	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	header := []any{bold.Sprint("Time"), bold.Sprint("Length"), bold.Sprint("Category"), bold.Sprint("Memo")}
	if pp.ShowID {
		header = append([]any{bold.Sprint("ID")}, header...)
	}
	tbl.AddRow(header...)

	for _, b := range blocks {
		row := []any{b.TimeRange(), b.Duration(), b.Category.Name, b.Memo}
		if pp.ShowID {
			row = append([]any{y.Sprint(b.ID)}, row...)
		}
		tbl.AddRow(row...)
	}
	if pp.ShowID {
		tbl.RightAlign(0)
	}
	_, _ = fmt.Fprintln(pp.Out, tbl)
	pp.NewLine()
}

// Block prints the detail view of one block.
func (pp *PrettyPrint) Block(b client.Block) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("ID"), strconv.FormatInt(b.ID, 10))
	tbl.AddRow(bold.Sprint("Kind"), b.Kind.String())
	tbl.AddRow(bold.Sprint("Start"), b.Start.Format("2006-01-02 15:04"))
	tbl.AddRow(bold.Sprint("End"), b.End.Format("2006-01-02 15:04"))
	tbl.AddRow(bold.Sprint("Length"), b.Duration())
	tbl.AddRow(bold.Sprint("Category"), b.Category.Name)
	tbl.AddRow(bold.Sprint("Memo"), b.Memo)
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(pp.Out, tbl)
}

func (pp *PrettyPrint) Categories(categories []client.Category) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Icon"))
	for _, c := range categories {
		tbl.AddRow(c.ID, c.Name, c.Icon)
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(pp.Out, tbl)
}

// Result prints msg on success and every error otherwise.
func (pp *PrettyPrint) Result(res client.Result, msg string) {
	if res.Success {
		if msg != "" {
			_, _ = color.New(color.FgGreen).Fprintln(pp.Out, msg)
		}
		return
	}
	r := color.New(color.FgRed)
	for _, e := range res.Errors {
		_, _ = r.Fprintln(pp.Out, e)
	}
}
