package api

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

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

// stuckHandle never exits on a graceful request.
type stuckHandle struct{ name string }

func (h stuckHandle) Name() string           { return h.name }
func (stuckHandle) Terminate() error         { return nil }
func (stuckHandle) IsRunning() (bool, error) { return true, nil }

type stuckController map[int]string

func (stuckController) Elevated() bool { return true }

func (c stuckController) Open(pid int) (process.Handle, error) {
	name, ok := c[pid]
	if !ok {
		return nil, process.ErrNotFound
	}
	return stuckHandle{name: name}, nil
}

type okKiller struct{}

func (okKiller) Name() string   { return "test-kill" }
func (okKiller) Kill(int) error { return nil }

func observation(pid int, name string, cpu float64) monitor.Observation {
	return monitor.Observation{
		Record: monitor.ProcessRecord{PID: pid, Name: name, CreateTime: 1},
		Sample: &monitor.UsageSample{CPU: cpu, Memory: 2},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	st := store.NewMemory(map[string][]string{store.KeyBlacklist: {"bloat.exe"}})
	policy, err := safety.NewPolicy(st, []string{"csrss.exe"})
	require.NoError(t, err)

	src := staticSource{
		observation(10, "game.exe", 60),
		observation(11, "bloat.exe", 5),
		observation(12, "csrss.exe", 1),
	}
	mon := monitor.NewProcessMonitor(src, monitor.NewTracker(3), time.Second)
	_, err = mon.Poll(context.Background())
	require.NoError(t, err)

	ctl := stuckController{10: "game.exe", 11: "bloat.exe", 12: "csrss.exe"}
	engine := process.NewEngine(ctl, policy, []process.Killer{okKiller{}}, process.Options{
		Timeout:   20 * time.Millisecond,
		PollEvery: 2 * time.Millisecond,
	})

	b, err := booster.New(booster.Deps{Monitor: mon, Policy: policy, Engine: engine, Selection: st}, booster.DefaultOptions())
	require.NoError(t, err)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h := NewHandler(b, hub, 10, nil)
	r := mux.NewRouter()
	RegisterRoutes(r, h)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, h
}

func do(t *testing.T, method, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestListProcesses(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, "GET", srv.URL+"/api/processes?metric=cpu&limit=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), gjson.Get(body, "#").Int())
	assert.Equal(t, "game.exe", gjson.Get(body, "0.name").String())
	assert.Equal(t, "Neutral", gjson.Get(body, "0.verdict").String())

	code, body = do(t, "GET", srv.URL+"/api/processes?blacklisted=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bloat.exe", gjson.Get(body, "0.name").String())
	assert.Equal(t, int64(1), gjson.Get(body, "#").Int())

	code, _ = do(t, "GET", srv.URL+"/api/processes?metric=disk")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTerminateWithoutForceDeclines(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, "POST", srv.URL+"/api/processes/10/terminate")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UserDeclinedForce", gjson.Get(body, "outcome").String())
	assert.Equal(t, "game.exe", gjson.Get(body, "name").String())
}

func TestTerminateWithForceKills(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, "POST", srv.URL+"/api/processes/10/terminate?force=true")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Killed", gjson.Get(body, "outcome").String())
	assert.Equal(t, "test-kill", gjson.Get(body, "method").String())
}

func TestTerminateProtected(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := do(t, "POST", srv.URL+"/api/processes/12/terminate?force=true")
	assert.Equal(t, "Protected", gjson.Get(body, "outcome").String())

	_, body = do(t, "POST", srv.URL+"/api/processes/99/terminate?name=MpDefenderCoreService.exe")
	assert.Equal(t, "Protected", gjson.Get(body, "outcome").String())
	assert.Contains(t, gjson.Get(body, "advisory").String(), "NOT RECOMMENDED")
}

func TestPolicyRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, "PUT", srv.URL+"/api/policy/whitelist/steam.exe")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, gjson.Get(body, "changed").Bool())

	_, body = do(t, "PUT", srv.URL+"/api/policy/whitelist/STEAM.EXE")
	assert.False(t, gjson.Get(body, "changed").Bool())

	_, body = do(t, "DELETE", srv.URL+"/api/policy/blacklist/bloat.exe")
	assert.True(t, gjson.Get(body, "changed").Bool())

	_, body = do(t, "GET", srv.URL+"/api/policy")
	assert.Equal(t, `["steam.exe"]`, gjson.Get(body, "whitelist").Raw)
	assert.Equal(t, `[]`, gjson.Get(body, "blacklist").Raw)
	assert.Equal(t, `["csrss.exe"]`, gjson.Get(body, "critical").Raw)

	code, _ = do(t, "PUT", srv.URL+"/api/policy/greylist/x.exe")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBoostRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, "POST", srv.URL+"/api/boost?force=true")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), gjson.Get(body, "killed").Int())
	assert.Equal(t, "boost", gjson.Get(body, "action").String())
}

func TestWebSocketReceivesView(t *testing.T) {
	srv, h := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration is asynchronous; publish until the client sees a message.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make(chan []byte, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- data
		}
		close(got)
	}()

	deadline := time.After(2 * time.Second)
	for {
		h.PublishView()
		select {
		case data, ok := <-got:
			require.True(t, ok, "no message received")
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, "processes", msg.Type)
			assert.Equal(t, "game.exe", gjson.GetBytes(data, "data.0.name").String())
			return
		case <-deadline:
			t.Fatal("timed out waiting for websocket message")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
