package ui

import (
	"context"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

type staticSource []monitor.Observation

func (s staticSource) Sample(context.Context) (iter.Seq[monitor.Observation], error) {
	return slices.Values([]monitor.Observation(s)), nil
}

type noopEngine struct{}

func (noopEngine) Terminate(req process.Request, _ process.ForceDecision) process.Result {
	return process.Result{Outcome: process.AlreadyGone, PID: req.PID, Name: req.ExpectedName}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	st := store.NewMemory(map[string][]string{store.KeyBlacklist: {"bloat.exe"}})
	policy, err := safety.NewPolicy(st, []string{"csrss.exe"})
	require.NoError(t, err)

	src := staticSource{
		{Record: monitor.ProcessRecord{PID: 1, Name: "game.exe", CreateTime: 1}, Sample: &monitor.UsageSample{CPU: 70, Memory: 5}},
		{Record: monitor.ProcessRecord{PID: 2, Name: "bloat.exe", CreateTime: 1}, Sample: &monitor.UsageSample{CPU: 10, Memory: 40}},
	}
	mon := monitor.NewProcessMonitor(src, monitor.NewTracker(3), time.Second)
	b, err := booster.New(booster.Deps{Monitor: mon, Policy: policy, Engine: noopEngine{}, Selection: st}, booster.DefaultOptions())
	require.NoError(t, err)
	_, err = b.Poll(context.Background())
	require.NoError(t, err)

	return NewApp(b, nil, nil, safety.ForceAsk, 50)
}

func TestProcessTableSelection(t *testing.T) {
	app := newTestApp(t)
	pt := app.processTable

	rows := app.b.RankedView(booster.Query{Metric: pt.Metric()})
	require.Len(t, rows, 2)
	pt.Update(rows)

	assert.Equal(t, 3, pt.table.GetRowCount())
	assert.Equal(t, "game.exe", pt.table.GetCell(1, 2).Text)
	assert.Equal(t, "Blacklisted", pt.table.GetCell(2, 8).Text)

	pt.table.Select(2, 0)
	p, ok := pt.Selected()
	require.True(t, ok)
	assert.Equal(t, 2, p.PID)

	pt.Update(nil)
	_, ok = pt.Selected()
	assert.False(t, ok)
}

func TestProcessTableMarksSelectedNames(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.b.Select("GAME.EXE"))

	app.processTable.Update(app.b.RankedView(booster.Query{}))
	assert.Equal(t, "*", app.processTable.table.GetCell(1, 0).Text)
	assert.Equal(t, "", app.processTable.table.GetCell(2, 0).Text)
}

func TestCycleSortWraps(t *testing.T) {
	pt := newTestApp(t).processTable

	var seen []monitor.Metric
	for range sortOrder {
		seen = append(seen, pt.Metric())
		pt.CycleSort()
	}
	assert.Equal(t, sortOrder, seen)
	assert.Equal(t, monitor.MetricCPU, pt.Metric())
}

func TestConfirmForceDeclinesAfterQuit(t *testing.T) {
	app := newTestApp(t)
	app.cancel()
	assert.False(t, app.confirmForce(process.Target{PID: 1, Name: "game.exe"}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ééé…", truncate("éééééé", 4))
}
