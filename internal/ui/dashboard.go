package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

// Dashboard is the top status bar.
type Dashboard struct {
	app  *App
	view *tview.TextView
}

// NewDashboard creates the dashboard widget.
func NewDashboard(app *App) *Dashboard {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorder(true).
		SetTitle(" Booster - Process Telemetry & Termination ").
		SetBorderPadding(0, 0, 1, 1)

	return &Dashboard{app: app, view: tv}
}

// Update refreshes the dashboard display.
func (d *Dashboard) Update(metrics *monitor.SystemMetrics) {
	if metrics == nil {
		return
	}

	runtime := time.Since(d.app.startTime).Truncate(time.Second)

	advStatus := "[red]OFF"
	if d.app.adv != nil {
		advStatus = "[green]ON"
	}

	session := d.app.b.Session()

	text := fmt.Sprintf(
		" [yellow]Runtime:[white] %s | [yellow]Force:[white] %s | [yellow]Advisor:[white] %s[white] | "+
			"[yellow]Procs:[white] %d (%d ranked) | [yellow]CPU:[white] %.1f%% | [yellow]Mem:[white] %.1f%% | [yellow]Load:[white] %.2f | "+
			"[yellow]Killed:[white] %d (%.1f%% CPU)",
		runtime, safety.ModeDescription(d.app.mode), advStatus,
		metrics.NumProcs, d.app.b.Monitor().Tracker().Len(), metrics.CPUPercent, metrics.MemPercent, metrics.LoadAvg1,
		session.Count(), session.TotalCPU(),
	)

	d.view.SetText(text)
}
