package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/process"
)

func setupKeybindings(app *App) {
	app.tapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// The force prompt owns the keyboard while it is open.
		if app.prompting() {
			return event
		}

		switch event.Key() {
		case tcell.KeyF1:
			app.decisionPanel.ShowSession()
			return nil

		case tcell.KeyF2:
			app.background(func() {
				rep := app.b.Boost(app.forceDecision())
				app.tapp.QueueUpdateDraw(func() { app.decisionPanel.ShowReport(rep) })
			})
			return nil

		case tcell.KeyF3:
			app.background(func() {
				rep := app.b.Cleanup(app.forceDecision())
				app.tapp.QueueUpdateDraw(func() { app.decisionPanel.ShowReport(rep) })
			})
			return nil

		case tcell.KeyF4:
			if p, ok := app.processTable.Selected(); ok {
				go showDependencyTree(app, p)
			}
			return nil

		case tcell.KeyF5:
			go func() {
				if _, err := app.b.Poll(app.ctx); err != nil {
					app.status(fmt.Sprintf("[red]Refresh failed: %v", err))
					return
				}
				app.refresh()
			}()
			return nil

		case tcell.KeyF6:
			app.processTable.CycleSort()
			app.decisionPanel.view.SetText(fmt.Sprintf("[yellow]Sorting by: %s", app.processTable.Metric()))
			go app.refresh()
			return nil

		case tcell.KeyF9:
			if p, ok := app.processTable.Selected(); ok {
				terminateSelected(app, p)
			}
			return nil

		case tcell.KeyF10:
			app.stop()
			return nil

		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				app.stop()
				return nil
			case ' ':
				if p, ok := app.processTable.Selected(); ok {
					toggleSelection(app, p)
				}
				return nil
			case 'K':
				app.background(func() {
					rep := app.b.KillSelected(app.forceDecision())
					app.tapp.QueueUpdateDraw(func() { app.decisionPanel.ShowReport(rep) })
				})
				return nil
			case 'w':
				policyKey(app, "Whitelisted", app.b.Protect)
				return nil
			case 'W':
				policyKey(app, "Removed from whitelist", app.b.Unprotect)
				return nil
			case 'b':
				policyKey(app, "Blacklisted", app.b.Flag)
				return nil
			case 'B':
				policyKey(app, "Removed from blacklist", app.b.Unflag)
				return nil
			case 'a', 'A':
				if p, ok := app.processTable.Selected(); ok && app.adv != nil {
					go evaluateProcess(app, p)
				}
				return nil
			}
		}

		return event
	})
}

func terminateSelected(app *App, p booster.RankedProcess) {
	app.background(func() {
		app.status(fmt.Sprintf("[yellow]Terminating %s (PID %d)...", p.Name, p.PID))
		res := app.b.TerminateRequest(process.Request{PID: p.PID, ExpectedName: p.Name}, app.forceDecision())
		app.tapp.QueueUpdateDraw(func() { app.decisionPanel.ShowResult(res) })
	})
}

func toggleSelection(app *App, p booster.RankedProcess) {
	var err error
	verb := "Selected"
	if app.b.IsSelected(p.Name) {
		verb = "Deselected"
		err = app.b.Deselect(p.Name)
	} else {
		err = app.b.Select(p.Name)
	}
	if err != nil {
		app.decisionPanel.view.SetText(fmt.Sprintf("[red]Selection not saved: %v", err))
		return
	}
	app.decisionPanel.view.SetText(fmt.Sprintf("[yellow]%s %s (%d selected)", verb, p.Name, len(app.b.Selected())))
	go app.refresh()
}

func policyKey(app *App, verb string, fn func(string) (bool, error)) {
	p, ok := app.processTable.Selected()
	if !ok {
		return
	}
	changed, err := fn(p.Name)
	switch {
	case err != nil:
		app.decisionPanel.view.SetText(fmt.Sprintf("[red]Policy not saved: %v", err))
	case !changed:
		app.decisionPanel.view.SetText(fmt.Sprintf("[gray]%s: no change", p.Name))
	default:
		app.decisionPanel.view.SetText(fmt.Sprintf("[green]%s: %s", verb, p.Name))
	}
	go app.refresh()
}

func evaluateProcess(app *App, p booster.RankedProcess) {
	rec := app.adv.Evaluate(context.Background(), advisor.Candidate{
		Entry:   p.Entry(),
		Verdict: p.Verdict,
	}, app.getMetrics())

	if app.auditor != nil {
		app.auditor.LogRecommendation(rec)
	}
	app.tapp.QueueUpdateDraw(func() {
		app.decisionPanel.AddRecommendation(rec)
	})
}

func showDependencyTree(app *App, p booster.RankedProcess) {
	parents, err := process.LiveParents()
	if err != nil {
		app.status(fmt.Sprintf("[red]Process tree unavailable: %v", err))
		return
	}
	tree := process.BuildDependencyTree(parents)
	tracker := app.b.Monitor().Tracker()

	name := func(pid int) string {
		if rec, ok := tracker.Record(pid); ok {
			return rec.Name
		}
		return "?"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]Process Tree for PID %d (%s)[white]\n", p.PID, p.Name)
	fmt.Fprintf(&sb, "├─ Parent: PID %d\n", tree.ParentOf(p.PID))
	fmt.Fprintf(&sb, "├─ Status: %s\n", p.Verdict)
	fmt.Fprintf(&sb, "├─ CPU: %.1f%% | Mem: %.1f%%\n", p.CPU, p.Memory)

	descendants := tree.AllDescendants(p.PID)
	if len(descendants) == 0 {
		sb.WriteString("└─ No children\n")
	} else {
		fmt.Fprintf(&sb, "└─ Descendants (%d), killed first on force:\n", len(descendants))
		for i, pid := range descendants {
			prefix := "   ├─"
			if i == len(descendants)-1 {
				prefix = "   └─"
			}
			fmt.Fprintf(&sb, "%s PID %d: %s\n", prefix, pid, name(pid))
		}
	}

	app.status(sb.String())
}
