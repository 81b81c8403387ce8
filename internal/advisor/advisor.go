// Package advisor asks Claude for a second opinion on heavy processes.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

// completeFunc sends one system+user prompt and returns the text answer.
type completeFunc func(ctx context.Context, system, prompt string) (string, error)

// Advisor recommends flag, keep or protect for ranked processes.
type Advisor struct {
	complete         completeFunc
	cache            *Cache
	confidenceThresh float64

	mu         sync.RWMutex
	history    []*Recommendation
	maxHistory int
}

// New creates an advisor backed by the Anthropic Messages API.
func New(apiKey, model string, cache *Cache, confidenceThresh float64) *Advisor {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	m := anthropic.Model(model)

	complete := func(ctx context.Context, system, prompt string) (string, error) {
		msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     m,
			MaxTokens: 1024,
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", err
		}
		for _, block := range msg.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", errors.New("response carried no text block")
	}

	return newAdvisor(complete, cache, confidenceThresh)
}

func newAdvisor(complete completeFunc, cache *Cache, confidenceThresh float64) *Advisor {
	if cache == nil {
		cache = NewCache(256, 10*time.Minute)
	}
	return &Advisor{
		complete:         complete,
		cache:            cache,
		confidenceThresh: confidenceThresh,
		maxHistory:       100,
	}
}

// Evaluate recommends an action for c. Protected processes are answered
// locally; API or parse failures fall back to keep.
func (a *Advisor) Evaluate(ctx context.Context, c Candidate, state *monitor.SystemMetrics) *Recommendation {
	if c.Verdict == safety.Protected {
		rec := &Recommendation{
			PID:        c.Entry.Record.PID,
			Name:       c.Entry.Record.Name,
			Action:     ActionKeep,
			Confidence: 1,
			Reason:     "already protected by policy",
			Timestamp:  time.Now(),
		}
		a.addToHistory(rec)
		return rec
	}

	sig := Signature(c)
	if cached, ok := a.cache.Get(sig); ok {
		cached.PID = c.Entry.Record.PID
		a.addToHistory(cached)
		return cached
	}

	text, err := a.complete(ctx, systemPrompt(), buildPrompt(c, state))
	if err != nil {
		return a.fallback(c, fmt.Errorf("API call failed: %w", err))
	}
	rec, err := parseResponse(text, c)
	if err != nil {
		return a.fallback(c, err)
	}
	if rec.Action != ActionKeep && rec.Confidence < a.confidenceThresh {
		rec.Reason = fmt.Sprintf("%s (confidence %.2f below %.2f, keeping)", rec.Reason, rec.Confidence, a.confidenceThresh)
		rec.Action = ActionKeep
	}

	a.cache.Put(sig, rec)
	a.addToHistory(rec)
	return rec
}

// History returns recent recommendations.
func (a *Advisor) History() []*Recommendation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	result := make([]*Recommendation, len(a.history))
	copy(result, a.history)
	return result
}

func (a *Advisor) addToHistory(r *Recommendation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, r)
	if len(a.history) > a.maxHistory {
		a.history = a.history[len(a.history)-a.maxHistory:]
	}
}

func systemPrompt() string {
	return `You are Booster, a process advisor for a desktop performance tool. You review running processes and recommend whether the user should flag them for termination, keep them, or protect them from termination.

RULES:
- Never recommend flagging operating system, security, anti-malware or driver processes
- Recommend "protect" for processes the user most likely depends on (shells, editors, the foreground game or application)
- Recommend "flag" only for background processes that are clearly wasteful given their CPU and memory use
- Provide a confidence score between 0.0 and 1.0

Respond ONLY with valid JSON in this exact format:
{
  "action": "flag|keep|protect",
  "confidence": 0.0-1.0,
  "reason": "brief explanation"
}`
}

func buildPrompt(c Candidate, state *monitor.SystemMetrics) string {
	r := c.Entry.Record
	u := c.Entry.Usage

	var sb strings.Builder
	sb.WriteString("Evaluate this process:\n\n")
	sb.WriteString(fmt.Sprintf("Process: %s (PID: %d)\n", r.Name, r.PID))
	if r.Owner != "" {
		sb.WriteString(fmt.Sprintf("Owner: %s\n", r.Owner))
	}
	if r.ExePath != "" {
		sb.WriteString(fmt.Sprintf("Executable: %s\n", r.ExePath))
	}
	sb.WriteString(fmt.Sprintf("System owned: %t\n", r.SystemOwned))
	sb.WriteString(fmt.Sprintf("CPU (avg of %d samples): %.1f%% of one core\n", u.Samples, u.CPU))
	sb.WriteString(fmt.Sprintf("Memory: %.1f%%\n", u.Memory))
	if u.GPU != nil {
		sb.WriteString(fmt.Sprintf("GPU: %.1f%%\n", *u.GPU))
	}
	sb.WriteString(fmt.Sprintf("Current policy verdict: %s\n", c.Verdict))

	if state != nil {
		sb.WriteString("\nSystem State:\n")
		sb.WriteString(fmt.Sprintf("CPU Usage: %.1f%% across %d cores\n", state.CPUPercent, state.Cores))
		sb.WriteString(fmt.Sprintf("Memory Usage: %.1f%% (%.0f MB used / %.0f MB total)\n",
			state.MemPercent, state.MemUsedMB, state.MemTotalMB))
		sb.WriteString(fmt.Sprintf("Total Processes: %d\n", state.NumProcs))
	}
	return sb.String()
}

func parseResponse(text string, c Candidate) (*Recommendation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw struct {
		Action     string  `json:"action"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON response: %w", err)
	}

	return &Recommendation{
		PID:        c.Entry.Record.PID,
		Name:       c.Entry.Record.Name,
		Action:     ParseAction(raw.Action),
		Confidence: raw.Confidence,
		Reason:     raw.Reason,
		Timestamp:  time.Now(),
	}, nil
}

func (a *Advisor) fallback(c Candidate, err error) *Recommendation {
	rec := &Recommendation{
		PID:       c.Entry.Record.PID,
		Name:      c.Entry.Record.Name,
		Action:    ActionKeep,
		Reason:    fmt.Sprintf("advisor unavailable (%v) - defaulting to keep", err),
		Timestamp: time.Now(),
	}
	a.addToHistory(rec)
	return rec
}
