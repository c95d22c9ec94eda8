package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/syncer"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	createdColor = color.New(color.FgGreen)
	skippedColor = color.New(color.FgHiBlack)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func eventStyle(status entities.EventStatus) (*color.Color, string) {
	switch status {
	case entities.EventSuccess:
		return successColor, "✓"
	case entities.EventCreated:
		return createdColor, "+"
	case entities.EventSkipped:
		return skippedColor, "="
	case entities.EventWarning:
		return warningColor, "⚠"
	case entities.EventError:
		return errorColor, "✗"
	default:
		return infoColor, "ℹ"
	}
}

// EventPrinter writes progress events as they arrive.
type EventPrinter struct {
	out io.Writer
}

func NewEventPrinter(out io.Writer) *EventPrinter {
	return &EventPrinter{out: out}
}

func (p *EventPrinter) Print(ev entities.SyncEvent) {
	c, marker := eventStyle(ev.Status)
	line := c.Sprintf("%s %s", marker, ev.Title)
	if ev.Detail != "" {
		line += " " + color.New(color.Faint).Sprintf("(%s)", ev.Detail)
	}
	fmt.Fprintln(p.out, line)
}

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(title)
	style := table.StyleLight
	style.Title.Align = text.AlignCenter
	t.SetStyle(style)
	return t
}

// RenderSummary prints the counts of a finished pass.
func RenderSummary(out io.Writer, s syncer.Summary) {
	t := newTable(out, "Sync summary")
	t.AppendHeader(table.Row{"Status", "Created", "Skipped", "Failed"})
	t.AppendRow(table.Row{string(s.Status()), s.Created, s.Skipped, s.Failed})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	if s.Err != "" {
		fmt.Fprintln(out, errorColor.Sprint("✗ ")+s.Err)
	}
}

// RenderRuns prints the run history, newest first.
func RenderRuns(out io.Writer, runs []entities.SyncRun) {
	t := newTable(out, "Recent sync runs")
	t.AppendHeader(table.Row{"Run", "Trigger", "Status", "Started", "Duration", "Created", "Skipped", "Failed"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			string(r.Trigger),
			string(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			runDuration(r),
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
		})
	}
	t.Render()
}

func runDuration(r entities.SyncRun) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func disableColor() {
	color.NoColor = true
}
