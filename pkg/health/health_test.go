package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fixed(status Status) CheckFunc {
	return func() Check { return Check{Status: status} }
}

func TestNewChecker(t *testing.T) {
	c := NewChecker()

	if c.readyChecks == nil || c.liveChecks == nil {
		t.Fatal("check maps not initialized")
	}
	if resp := c.Readiness(); resp.Status != StatusHealthy || len(resp.Checks) != 0 {
		t.Errorf("empty readiness = %+v, want healthy with no checks", resp)
	}
}

func TestReadinessAndLivenessAreSeparate(t *testing.T) {
	c := NewChecker()

	readyCalled, liveCalled := false, false
	c.RegisterReadiness("ready", func() Check {
		readyCalled = true
		return Check{Status: StatusHealthy}
	})
	c.RegisterLiveness("live", func() Check {
		liveCalled = true
		return Check{Status: StatusHealthy}
	})

	c.Readiness()
	if !readyCalled || liveCalled {
		t.Errorf("Readiness ran ready=%v live=%v, want only ready", readyCalled, liveCalled)
	}

	readyCalled = false
	c.Liveness()
	if readyCalled || !liveCalled {
		t.Errorf("Liveness ran ready=%v live=%v, want only live", readyCalled, liveCalled)
	}
}

func TestAllMergesChecks(t *testing.T) {
	c := NewChecker()
	c.RegisterReadiness("shutdown", fixed(StatusHealthy))
	c.RegisterLiveness("memory", fixed(StatusDegraded))

	resp := c.All()
	if len(resp.Checks) != 2 {
		t.Fatalf("got %d checks, want 2", len(resp.Checks))
	}
	if resp.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", resp.Status)
	}
}

func TestWorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for i, s := range tt.statuses {
				c.RegisterReadiness(string(rune('a'+i)), fixed(s))
			}
			if got := c.Readiness().Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckNameAndTimingFilledIn(t *testing.T) {
	c := NewChecker()
	c.RegisterReadiness("workers", fixed(StatusHealthy))

	check := c.Readiness().Checks["workers"]
	if check.Name != "workers" {
		t.Errorf("name = %q, want workers", check.Name)
	}
	if check.LastChecked.IsZero() {
		t.Error("LastChecked not set")
	}
}

func TestShutdownCheck(t *testing.T) {
	closing := false
	check := ShutdownCheck(func() bool { return closing })

	if got := check().Status; got != StatusHealthy {
		t.Errorf("running: status = %s, want healthy", got)
	}
	closing = true
	if got := check().Status; got != StatusUnhealthy {
		t.Errorf("closing: status = %s, want unhealthy", got)
	}
}

func TestWorkerPoolCheck(t *testing.T) {
	closed := false
	check := WorkerPoolCheck(4, func() bool { return closed })

	got := check()
	if got.Status != StatusHealthy {
		t.Errorf("open pool: status = %s, want healthy", got.Status)
	}
	if got.Details["workers"] != 4 {
		t.Errorf("workers detail = %v, want 4", got.Details["workers"])
	}

	closed = true
	if got := check().Status; got != StatusUnhealthy {
		t.Errorf("closed pool: status = %s, want unhealthy", got)
	}
}

func TestStreamCheck(t *testing.T) {
	tests := []struct {
		name   string
		active int64
		limit  int64
		want   Status
	}{
		{"no limit", 5000, 0, StatusHealthy},
		{"under limit", 10, 100, StatusHealthy},
		{"at limit", 100, 100, StatusHealthy},
		{"over limit", 101, 100, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StreamCheck(func() int64 { return tt.active }, tt.limit)()
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
			if got.Details["active"] != tt.active {
				t.Errorf("active detail = %v, want %d", got.Details["active"], tt.active)
			}
		})
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name       string
		alloc, sys uint64
		want       Status
	}{
		{"normal", 100, 1000, StatusHealthy},
		{"high", 950, 1000, StatusDegraded},
		{"no sys reading", 100, 0, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MemoryCheck(func() (uint64, uint64) { return tt.alloc, tt.sys })()
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestRuntimeMemory(t *testing.T) {
	alloc, sys := RuntimeMemory()
	if alloc == 0 || sys == 0 {
		t.Errorf("RuntimeMemory() = %d, %d; want non-zero", alloc, sys)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		wantStatus int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusServiceUnavailable},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.RegisterReadiness("component", fixed(tt.status))

			w := httptest.NewRecorder()
			c.ReadinessHandler()(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("code = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("body status = %s, want %s", resp.Status, tt.status)
			}
		})
	}
}

func TestLivenessHandlerToleratesDegraded(t *testing.T) {
	c := NewChecker()
	c.RegisterLiveness("memory", fixed(StatusDegraded))

	w := httptest.NewRecorder()
	c.LivenessHandler()(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", w.Code)
	}

	c.RegisterLiveness("broken", fixed(StatusUnhealthy))
	w = httptest.NewRecorder()
	c.LivenessHandler()(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", w.Code)
	}
}

func TestHandlerMethods(t *testing.T) {
	c := NewChecker()

	w := httptest.NewRecorder()
	c.ReadinessHandler()(w, httptest.NewRequest(http.MethodHead, "/health/ready", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD: code = %d, body = %q; want 200 with no body", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	c.ReadinessHandler()(w, httptest.NewRequest(http.MethodPost, "/health/ready", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: code = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q", got)
	}
}
