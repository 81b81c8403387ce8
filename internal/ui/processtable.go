package ui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

var sortOrder = []monitor.Metric{monitor.MetricCPU, monitor.MetricMemory, monitor.MetricGPU, monitor.MetricName}

// ProcessTable displays the ranked view in an htop-like table.
type ProcessTable struct {
	app   *App
	table *tview.Table

	mu     sync.RWMutex
	sortIx int
	rows   []booster.RankedProcess
}

// NewProcessTable creates the process table.
func NewProcessTable(app *App) *ProcessTable {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetSeparator(tview.Borders.Vertical)

	table.SetBorder(true).
		SetTitle(" Processes ").
		SetBorderPadding(0, 0, 0, 0)

	pt := &ProcessTable{app: app, table: table}

	pt.setHeaders()
	return pt
}

func (pt *ProcessTable) setHeaders() {
	headers := []string{"SEL", "PID", "NAME", "USER", "CPU%", "MEM%", "GPU%", "N", "STATUS"}
	for i, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		pt.table.SetCell(0, i, cell)
	}
}

// Update replaces the table rows. Rows arrive already ranked.
func (pt *ProcessTable) Update(rows []booster.RankedProcess) {
	pt.mu.Lock()
	pt.rows = rows
	pt.mu.Unlock()

	// Clear existing rows (keep header)
	rowCount := pt.table.GetRowCount()
	for r := rowCount - 1; r >= 1; r-- {
		pt.table.RemoveRow(r)
	}

	for i, p := range rows {
		row := i + 1 // skip header

		nameColor := tcell.ColorWhite
		switch p.Verdict {
		case safety.Protected:
			nameColor = tcell.ColorGreen
		case safety.Blacklisted:
			nameColor = tcell.ColorRed
		default:
			if p.SystemOwned {
				nameColor = tcell.ColorBlue
			}
		}

		sel := ""
		if pt.app.b.IsSelected(p.Name) {
			sel = "*"
		}

		gpu := "-"
		if p.GPU != nil {
			gpu = fmt.Sprintf("%.1f", *p.GPU)
		}

		pt.table.SetCell(row, 0, tview.NewTableCell(sel).SetTextColor(tcell.ColorYellow))
		pt.table.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", p.PID)).SetTextColor(tcell.ColorWhite))
		pt.table.SetCell(row, 2, tview.NewTableCell(truncate(p.DisplayName(), 34)).SetTextColor(nameColor))
		pt.table.SetCell(row, 3, tview.NewTableCell(truncate(p.Owner, 16)).SetTextColor(tcell.ColorWhite))
		pt.table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%.1f", p.CPU)).SetTextColor(loadColor(p.CPU)))
		pt.table.SetCell(row, 5, tview.NewTableCell(fmt.Sprintf("%.1f", p.Memory)).SetTextColor(loadColor(p.Memory)))
		pt.table.SetCell(row, 6, tview.NewTableCell(gpu).SetTextColor(tcell.ColorWhite))
		pt.table.SetCell(row, 7, tview.NewTableCell(fmt.Sprintf("%d", p.Samples)).SetTextColor(tcell.ColorGray))
		pt.table.SetCell(row, 8, tview.NewTableCell(p.Verdict.String()).SetTextColor(nameColor))
	}
}

func loadColor(v float64) tcell.Color {
	switch {
	case v > 50:
		return tcell.ColorRed
	case v > 20:
		return tcell.ColorYellow
	default:
		return tcell.ColorWhite
	}
}

// Selected returns the row under the cursor.
func (pt *ProcessTable) Selected() (booster.RankedProcess, bool) {
	row, _ := pt.table.GetSelection()
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	if row < 1 || row > len(pt.rows) {
		return booster.RankedProcess{}, false
	}
	return pt.rows[row-1], true
}

// CycleSort advances to the next ranking metric.
func (pt *ProcessTable) CycleSort() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.sortIx = (pt.sortIx + 1) % len(sortOrder)
}

// Metric returns the current ranking metric.
func (pt *ProcessTable) Metric() monitor.Metric {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return sortOrder[pt.sortIx]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
