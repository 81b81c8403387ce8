// Package api exposes booster over HTTP and streams ranked views over a
// WebSocket.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
)

// Handler serves the HTTP API.
type Handler struct {
	b            *booster.Booster
	hub          *Hub
	defaultLimit int
	log          booster.Logger
}

// NewHandler creates the API handler. limit is the default view size.
func NewHandler(b *booster.Booster, hub *Hub, limit int, log booster.Logger) *Handler {
	return &Handler{b: b, hub: hub, defaultLimit: limit, log: log}
}

// RegisterRoutes registers every API route on r.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/api/processes", h.ListProcessesHandler).Methods("GET")
	r.HandleFunc("/api/processes/{pid:[0-9]+}/terminate", h.TerminateHandler).Methods("POST")

	r.HandleFunc("/api/policy", h.GetPolicyHandler).Methods("GET")
	r.HandleFunc("/api/policy/{list}/{name}", h.AddPolicyHandler).Methods("PUT")
	r.HandleFunc("/api/policy/{list}/{name}", h.RemovePolicyHandler).Methods("DELETE")

	r.HandleFunc("/api/boost", h.BoostHandler).Methods("POST")
	r.HandleFunc("/api/cleanup", h.CleanupHandler).Methods("POST")

	r.HandleFunc("/api/selection", h.GetSelectionHandler).Methods("GET")
	r.HandleFunc("/api/selection/{name}", h.SelectHandler).Methods("PUT")
	r.HandleFunc("/api/selection/{name}", h.DeselectHandler).Methods("DELETE")
	r.HandleFunc("/api/selection/kill", h.KillSelectedHandler).Methods("POST")

	r.HandleFunc("/api/system", h.SystemHandler).Methods("GET")
	r.HandleFunc("/api/report", h.ReportHandler).Methods("GET")

	r.HandleFunc("/ws", h.WebSocketHandler)
}

// PublishView pushes the default ranked view to every WebSocket client.
func (h *Handler) PublishView() {
	view := h.b.RankedView(booster.Query{Metric: monitor.MetricCPU, Limit: h.defaultLimit})
	if err := h.hub.Publish("processes", view); err != nil && h.log != nil {
		h.log.Debug(err.Error())
	}
}

// ListProcessesHandler returns the ranked view.
func (h *Handler) ListProcessesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric, err := monitor.ParseMetric(q.Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := h.defaultLimit
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	view := h.b.RankedView(booster.Query{
		Metric:          metric,
		Limit:           limit,
		Filter:          q.Get("filter"),
		BlacklistedOnly: isTrue(q.Get("blacklisted")),
	})
	if view == nil {
		view = []booster.RankedProcess{}
	}
	writeJSON(w, http.StatusOK, view)
}

// TerminateHandler terminates one pid. Force escalation happens only when
// force=true; otherwise a process that ignores the graceful request is
// reported as UserDeclinedForce.
func (h *Handler) TerminateHandler(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.Atoi(mux.Vars(r)["pid"])
	if err != nil || pid <= 0 {
		http.Error(w, "invalid pid", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()

	res := h.b.TerminateRequest(process.Request{
		PID:          pid,
		ExpectedName: strings.TrimSpace(q.Get("name")),
		ForceAllowed: isTrue(q.Get("force")),
	}, process.DeclineForce)
	writeJSON(w, http.StatusOK, res)
}

type policyResponse struct {
	Critical  []string `json:"critical"`
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
}

// GetPolicyHandler returns the three policy lists.
func (h *Handler) GetPolicyHandler(w http.ResponseWriter, r *http.Request) {
	p := h.b.Policy()
	writeJSON(w, http.StatusOK, policyResponse{
		Critical:  p.Critical(),
		Whitelist: p.Whitelist(),
		Blacklist: p.Blacklist(),
	})
}

type changeResponse struct {
	Changed bool `json:"changed"`
}

// AddPolicyHandler adds a name to the whitelist or blacklist.
func (h *Handler) AddPolicyHandler(w http.ResponseWriter, r *http.Request) {
	h.policyChange(w, r, h.b.Protect, h.b.Flag)
}

// RemovePolicyHandler removes a name from the whitelist or blacklist.
func (h *Handler) RemovePolicyHandler(w http.ResponseWriter, r *http.Request) {
	h.policyChange(w, r, h.b.Unprotect, h.b.Unflag)
}

func (h *Handler) policyChange(w http.ResponseWriter, r *http.Request, white, black func(string) (bool, error)) {
	vars := mux.Vars(r)
	var fn func(string) (bool, error)
	switch vars["list"] {
	case "whitelist":
		fn = white
	case "blacklist":
		fn = black
	default:
		http.Error(w, "unknown list "+vars["list"], http.StatusNotFound)
		return
	}
	changed, err := fn(vars["name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, changeResponse{Changed: changed})
}

// BoostHandler runs a one-click boost.
func (h *Handler) BoostHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.b.Boost(forceDecision(r)))
}

// CleanupHandler removes the configured background apps.
func (h *Handler) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.b.Cleanup(forceDecision(r)))
}

// GetSelectionHandler returns the selected names.
func (h *Handler) GetSelectionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.b.Selected())
}

// SelectHandler adds a name to the selection.
func (h *Handler) SelectHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.b.Select(mux.Vars(r)["name"]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.b.Selected())
}

// DeselectHandler removes a name from the selection.
func (h *Handler) DeselectHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.b.Deselect(mux.Vars(r)["name"]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.b.Selected())
}

// KillSelectedHandler terminates every selected process.
func (h *Handler) KillSelectedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.b.KillSelected(forceDecision(r)))
}

// SystemHandler returns the latest system metrics.
func (h *Handler) SystemHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.b.Monitor().SystemMetrics())
}

type reportResponse struct {
	Kills       int     `json:"kills"`
	CPU         float64 `json:"cpu_reclaimed"`
	Memory      float64 `json:"memory_reclaimed"`
	DurationSec float64 `json:"duration_sec"`
}

// ReportHandler returns the session totals.
func (h *Handler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	s := h.b.Session()
	writeJSON(w, http.StatusOK, reportResponse{
		Kills:       s.Count(),
		CPU:         s.TotalCPU(),
		Memory:      s.TotalMemory(),
		DurationSec: s.Duration().Seconds(),
	})
}

// WebSocketHandler upgrades to the ranked-view stream.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if err := ServeWs(h.hub, w, r); err != nil && h.log != nil {
		h.log.Debug("websocket: " + err.Error())
	}
}

func forceDecision(r *http.Request) process.ForceDecision {
	if isTrue(r.URL.Query().Get("force")) {
		return process.AcceptForce
	}
	return process.DeclineForce
}

func isTrue(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
