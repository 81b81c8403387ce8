package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/notification"
	"github.com/iamgilwell/booster/internal/process"
)

// DecisionPanel shows termination results, advisor recommendations and the
// session report.
type DecisionPanel struct {
	app  *App
	view *tview.TextView
}

// NewDecisionPanel creates the decision panel.
func NewDecisionPanel(app *App) *DecisionPanel {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)

	tv.SetBorder(true).
		SetTitle(" Decisions ").
		SetBorderPadding(0, 0, 1, 1)

	return &DecisionPanel{app: app, view: tv}
}

func resultColor(o process.Outcome) string {
	switch o {
	case process.Killed:
		return "[green]"
	case process.AlreadyGone:
		return "[gray]"
	case process.Protected, process.UserDeclinedForce:
		return "[yellow]"
	default:
		return "[red]"
	}
}

// ShowResult displays one termination result.
func (dp *DecisionPanel) ShowResult(r process.Result) {
	text := fmt.Sprintf("%s%-18s[white] %s", resultColor(r.Outcome), r.Outcome, notification.FormatResult(r))
	if r.Advisory != "" {
		text += "\n[yellow]" + r.Advisory
	}
	dp.view.SetText(text)
}

// ShowReport displays the outcome of a bulk action.
func (dp *DecisionPanel) ShowReport(rep booster.Report) {
	dp.view.Clear()
	fmt.Fprintf(dp.view, "[yellow]%s[white]\n", rep.Summary())
	for _, r := range rep.Results {
		fmt.Fprintf(dp.view, "%s%-18s[white] %s\n", resultColor(r.Outcome), r.Outcome, notification.FormatResult(r))
		if r.Advisory != "" {
			fmt.Fprintf(dp.view, "  [yellow]%s[white]\n", r.Advisory)
		}
	}
	dp.view.ScrollToBeginning()
}

// AddRecommendation appends an advisor recommendation to the panel.
func (dp *DecisionPanel) AddRecommendation(r *advisor.Recommendation) {
	var color string
	switch r.Action {
	case advisor.ActionFlag:
		color = "[red]"
	case advisor.ActionProtect:
		color = "[blue]"
	default:
		color = "[green]"
	}

	cached := ""
	if r.FromCache {
		cached = " [gray](cached)"
	}

	fmt.Fprintf(dp.view, "[white]%s %s%-8s[white] PID=%-7d %-20s conf=%.2f %s%s\n",
		notification.FormatTimestamp(r.Timestamp), color, string(r.Action),
		r.PID, r.Name, r.Confidence, r.Reason, cached)
	dp.view.ScrollToEnd()
}

// ShowSession displays what this session has reclaimed.
func (dp *DecisionPanel) ShowSession() {
	s := dp.app.b.Session()
	dp.view.Clear()

	text := fmt.Sprintf(
		"[yellow]Session Report[white]\n"+
			"─────────────────────────────────────\n"+
			"Processes Killed:   %d\n"+
			"CPU Reclaimed:      [green]%.1f%%[white]\n"+
			"Memory Reclaimed:   [green]%.1f%%[white]\n"+
			"Session Duration:   %s\n\n",
		s.Count(), s.TotalCPU(), s.TotalMemory(), s.Duration().Truncate(1e9),
	)

	recent := s.Recent(5)
	if len(recent) > 0 {
		text += "[yellow]Recent:[white]\n"
		for _, e := range recent {
			text += fmt.Sprintf("  %s  %-20s PID=%-7d cpu=%.1f%% mem=%.1f%%  %s\n",
				notification.FormatTimestamp(e.Timestamp),
				e.ProcessName, e.PID, e.CPU, e.Memory, e.Reason)
		}
	}

	if dp.app.adv != nil {
		if history := dp.app.adv.History(); len(history) > 0 {
			text += fmt.Sprintf("\n[yellow]Advisor:[white] %d recommendations this session\n", len(history))
		}
	}

	dp.view.SetText(text)
}
