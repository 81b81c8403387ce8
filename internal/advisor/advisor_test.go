package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

func candidate(pid int, name string, cpu, mem float64) Candidate {
	return Candidate{
		Entry: monitor.Entry{
			Record: monitor.ProcessRecord{PID: pid, Name: name, Owner: "alice"},
			Usage:  monitor.Usage{CPU: cpu, Memory: mem, Samples: 3},
		},
		Verdict: safety.Neutral,
	}
}

func TestSignature(t *testing.T) {
	sig1 := Signature(candidate(1, "firefox", 23, 12))
	sig2 := Signature(candidate(2, "Firefox", 24, 13)) // same buckets
	sig3 := Signature(candidate(1, "chrome", 23, 12))

	if sig1 != sig2 {
		t.Error("similar processes should have same signature")
	}
	if sig1 == sig3 {
		t.Error("different processes should have different signatures")
	}
}

func TestCache(t *testing.T) {
	cache := NewCache(3, 5*time.Minute)
	rec := &Recommendation{PID: 100, Name: "test", Action: ActionKeep, Confidence: 0.8}

	cache.Put("key1", rec)
	got, ok := cache.Get("key1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.FromCache {
		t.Error("cached recommendation should have FromCache=true")
	}
	if rec.FromCache {
		t.Error("stored value must not be mutated")
	}

	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("expected cache miss")
	}

	cache.Put("key2", rec)
	cache.Put("key3", rec)
	cache.Get("key1") // key2 becomes least recently used
	cache.Put("key4", rec)

	if _, ok := cache.Get("key2"); ok {
		t.Error("key2 should have been evicted")
	}
	if _, ok := cache.Get("key1"); !ok {
		t.Error("key1 was recently used and should survive")
	}
	if cache.Size() != 3 {
		t.Errorf("size = %d, want 3", cache.Size())
	}
}

func TestCacheTTL(t *testing.T) {
	cache := NewCache(3, 20*time.Millisecond)
	cache.Put("k", &Recommendation{Action: ActionFlag})
	if _, ok := cache.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Error("expired entry should miss")
	}

	cache.Put("k", &Recommendation{})
	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("size after clear = %d, want 0", cache.Size())
	}
}

func TestEvaluateParsesAndCaches(t *testing.T) {
	calls := 0
	a := newAdvisor(func(_ context.Context, system, prompt string) (string, error) {
		calls++
		if !strings.Contains(prompt, "updater.exe") {
			t.Errorf("prompt missing process name: %s", prompt)
		}
		return "Sure.\n{\"action\":\"FLAG\",\"confidence\":0.9,\"reason\":\"idle updater\"}", nil
	}, nil, 0.5)

	rec := a.Evaluate(context.Background(), candidate(7, "updater.exe", 40, 2), nil)
	if rec.Action != ActionFlag {
		t.Fatalf("action = %q, want flag", rec.Action)
	}

	again := a.Evaluate(context.Background(), candidate(8, "updater.exe", 41, 2), nil)
	if !again.FromCache || again.PID != 8 {
		t.Errorf("expected cached answer for pid 8, got %+v", again)
	}
	if calls != 1 {
		t.Errorf("API called %d times, want 1", calls)
	}
	if len(a.History()) != 2 {
		t.Errorf("history = %d, want 2", len(a.History()))
	}
}

func TestEvaluateLowConfidenceKeeps(t *testing.T) {
	a := newAdvisor(func(context.Context, string, string) (string, error) {
		return `{"action":"flag","confidence":0.2,"reason":"maybe"}`, nil
	}, nil, 0.7)

	rec := a.Evaluate(context.Background(), candidate(1, "x.exe", 50, 1), nil)
	if rec.Action != ActionKeep {
		t.Errorf("action = %q, want keep", rec.Action)
	}
}

func TestEvaluateFallsBackToKeep(t *testing.T) {
	tests := []struct {
		name string
		fn   completeFunc
	}{
		{"api error", func(context.Context, string, string) (string, error) { return "", errors.New("401") }},
		{"no json", func(context.Context, string, string) (string, error) { return "no idea", nil }},
		{"bad json", func(context.Context, string, string) (string, error) { return "{action:}", nil }},
	}
	for _, tt := range tests {
		a := newAdvisor(tt.fn, nil, 0.5)
		rec := a.Evaluate(context.Background(), candidate(1, "x.exe", 50, 1), nil)
		if rec.Action != ActionKeep {
			t.Errorf("%s: action = %q, want keep", tt.name, rec.Action)
		}
	}
}

func TestEvaluateProtectedSkipsAPI(t *testing.T) {
	a := newAdvisor(func(context.Context, string, string) (string, error) {
		t.Fatal("protected processes must not reach the API")
		return "", nil
	}, nil, 0.5)

	c := candidate(1, "csrss.exe", 90, 1)
	c.Verdict = safety.Protected
	if rec := a.Evaluate(context.Background(), c, nil); rec.Action != ActionKeep {
		t.Errorf("action = %q, want keep", rec.Action)
	}
}
