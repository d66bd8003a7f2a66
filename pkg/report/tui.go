package report

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/kernelstub/bindiff/pkg/diff"
	"github.com/kernelstub/bindiff/pkg/utils"
)

// tuiRow pairs a table row with the delta it displays
type tuiRow struct {
	status string
	color  tcell.Color
	delta  *diff.FunctionDelta
}

func collectRows(result *diff.DiffResult) []tuiRow {
	rows := make([]tuiRow, 0, len(result.Modified)+len(result.Added)+len(result.Removed)+len(result.Unchanged))

	for i := range result.Modified {
		rows = append(rows, tuiRow{"modified", tcell.ColorYellow, &result.Modified[i]})
	}
	for i := range result.Added {
		rows = append(rows, tuiRow{"added", tcell.ColorBlue, &result.Added[i]})
	}
	for i := range result.Removed {
		rows = append(rows, tuiRow{"removed", tcell.ColorRed, &result.Removed[i]})
	}
	for i := range result.Unchanged {
		rows = append(rows, tuiRow{"unchanged", tcell.ColorGreen, &result.Unchanged[i]})
	}

	return rows
}

func deltaDetail(d *diff.FunctionDelta) string {
	text := fmt.Sprintf("%s\n\nkind: %s", DeltaLabel(d), d.Kind.Class)
	if d.Kind.Class == diff.MatchClass_Fuzzy {
		text += fmt.Sprintf("\nhamming: %d", d.Kind.Hamming)
	}
	if d.StartA != nil {
		text += "\nstart (A): " + utils.FormatUintHex(*d.StartA, 8)
	}
	if d.StartB != nil {
		text += "\nstart (B): " + utils.FormatUintHex(*d.StartB, 8)
	}
	if d.InsnCountA != nil {
		text += fmt.Sprintf("\ninstructions (A): %d", *d.InsnCountA)
	}
	if d.InsnCountB != nil {
		text += fmt.Sprintf("\ninstructions (B): %d", *d.InsnCountB)
	}
	if d.UnifiedDiff != nil {
		text += "\n\n" + *d.UnifiedDiff
	}

	return text
}

// ShowTUI opens an interactive read-only viewer over the result: a delta
// table on the left, the selected delta's detail (including its unified diff)
// on the right. Quit with q or Escape.
func ShowTUI(result *diff.DiffResult) error {
	rows := collectRows(result)

	table := tview.NewTable()
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)
	table.SetBorder(true)
	table.SetTitle(" functions ")

	for col, header := range []string{"status", "function"} {
		table.SetCell(0, col, tview.NewTableCell(header).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold))
	}
	for i, row := range rows {
		table.SetCell(i+1, 0, tview.NewTableCell(row.status).SetTextColor(row.color))
		table.SetCell(i+1, 1, tview.NewTableCell(DeltaLabel(row.delta)))
	}

	detail := tview.NewTextView()
	detail.SetBorder(true)
	detail.SetTitle(" detail ")

	table.SetSelectionChangedFunc(func(row, col int) {
		if row < 1 || row > len(rows) {
			detail.SetText("")
			return
		}
		detail.SetText(deltaDetail(rows[row-1].delta))
		detail.ScrollToBeginning()
	})
	if len(rows) > 0 {
		table.Select(1, 0)
		detail.SetText(deltaDetail(rows[0].delta))
	}

	app := tview.NewApplication()
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	flex := tview.NewFlex().
		AddItem(table, 0, 1, true).
		AddItem(detail, 0, 2, false)

	return app.SetRoot(flex, true).Run()
}
