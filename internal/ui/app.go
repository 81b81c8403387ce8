package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/notification"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
)

const forcePage = "force"

// App is the main TUI application.
type App struct {
	tapp    *tview.Application
	pages   *tview.Pages
	b       *booster.Booster
	adv     *advisor.Advisor
	auditor *notification.Auditor
	mode    safety.ForceMode
	limit   int

	dashboard     *Dashboard
	processTable  *ProcessTable
	decisionPanel *DecisionPanel

	mu         sync.RWMutex
	sysMetrics *monitor.SystemMetrics
	startTime  time.Time

	// busy serialises long-running actions so a second F9 does not queue a
	// second prompt behind the first.
	busy sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application. adv and auditor may be nil.
func NewApp(b *booster.Booster, adv *advisor.Advisor, auditor *notification.Auditor, mode safety.ForceMode, limit int) *App {
	app := &App{
		tapp:      tview.NewApplication(),
		pages:     tview.NewPages(),
		b:         b,
		adv:       adv,
		auditor:   auditor,
		mode:      mode,
		limit:     limit,
		startTime: time.Now(),
	}

	app.ctx, app.cancel = context.WithCancel(context.Background())

	app.dashboard = NewDashboard(app)
	app.processTable = NewProcessTable(app)
	app.decisionPanel = NewDecisionPanel(app)

	return app
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	// Layout: header + process table + decision panel
	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.dashboard.view, 3, 0, false).
		AddItem(a.processTable.table, 0, 3, true).
		AddItem(a.decisionPanel.view, 10, 0, false).
		AddItem(a.createFooter(), 1, 0, false)

	a.pages.AddPage("main", mainFlex, true, true)
	a.tapp.SetRoot(a.pages, true)
	setupKeybindings(a)

	a.b.Monitor().OnUpdate(func(_ []monitor.Entry, metrics *monitor.SystemMetrics) {
		a.mu.Lock()
		a.sysMetrics = metrics
		a.mu.Unlock()
		a.refresh()
	})
	a.b.Monitor().OnError(func(err error) {
		a.status(fmt.Sprintf("[red]Poll failed: %v", err))
	})

	go a.b.Monitor().Start(a.ctx)

	defer a.cancel()
	return a.tapp.Run()
}

func (a *App) createFooter() *tview.TextView {
	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetText(" [yellow]F1[white]:Report [yellow]F2[white]:Boost [yellow]F3[white]:Cleanup [yellow]F4[white]:Tree [yellow]F5[white]:Refresh [yellow]F6[white]:Sort [yellow]F9[white]:Kill " +
			"[yellow]Space[white]:Select [yellow]K[white]:Kill selected [yellow]w/W[white]:Whitelist [yellow]b/B[white]:Blacklist [yellow]a[white]:Advise [yellow]F10[white]:Quit")
	footer.SetBackgroundColor(tcell.ColorDarkSlateGray)
	return footer
}

// refresh recomputes the ranked view and redraws it.
func (a *App) refresh() {
	rows := a.b.RankedView(booster.Query{Metric: a.processTable.Metric(), Limit: a.limit})
	metrics := a.getMetrics()
	a.tapp.QueueUpdateDraw(func() {
		a.dashboard.Update(metrics)
		a.processTable.Update(rows)
	})
}

func (a *App) status(text string) {
	a.tapp.QueueUpdateDraw(func() {
		a.decisionPanel.view.SetText(text)
	})
}

func (a *App) stop() {
	a.cancel()
	a.tapp.Stop()
}

func (a *App) getMetrics() *monitor.SystemMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sysMetrics
}

// forceDecision returns the decision used for every termination started from
// the TUI.
func (a *App) forceDecision() process.ForceDecision {
	return process.DecisionFor(a.mode, a.confirmForce)
}

// confirmForce asks the user whether to force-kill t. It is called from a
// worker goroutine and blocks until the modal is answered.
func (a *App) confirmForce(t process.Target) bool {
	answer := make(chan bool, 1)
	a.tapp.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(fmt.Sprintf("%s (PID %d) did not exit after the graceful request.\n\nForce kill it?", t.Name, t.PID)).
			AddButtons([]string{"Force kill", "Leave running"}).
			SetDoneFunc(func(idx int, _ string) {
				a.pages.RemovePage(forcePage)
				a.tapp.SetFocus(a.processTable.table)
				select {
				case answer <- idx == 0:
				default:
				}
			})
		a.pages.AddPage(forcePage, modal, true, true)
	})

	select {
	case ok := <-answer:
		return ok
	case <-a.ctx.Done():
		return false
	}
}

func (a *App) prompting() bool {
	name, _ := a.pages.GetFrontPage()
	return name == forcePage
}

// background runs fn off the UI goroutine unless another action is running.
func (a *App) background(fn func()) {
	if !a.busy.TryLock() {
		a.status("[yellow]Another action is still running")
		return
	}
	go func() {
		defer a.busy.Unlock()
		fn()
		a.refresh()
	}()
}
