package cluster_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/nabbar/x0d/cluster"
	"github.com/nabbar/x0d/duration"
	"github.com/nabbar/x0d/reqctx"
)

func upstreamPortOf(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestControllerSchedulesToHealthyMember(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer upstream.Close()

	cfg := &cluster.Config{
		Director: cluster.DirectorConfig{
			Name: "web", Enabled: true, MaxRetryCount: 1,
			QueueTimeout: duration.Duration(100 * time.Millisecond),
		},
		Buckets: map[string]cluster.BucketConfig{},
		Backends: map[string]cluster.MemberConfig{
			"origin": {Name: "origin", Host: "127.0.0.1", Port: upstreamPortOf(t, upstream), Capacity: 2, Enabled: true},
		},
	}

	ctrl, err := cluster.NewController("web", cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	origin, ok := ctrl.Member("origin")
	if !ok {
		t.Fatal("expected origin member to be registered")
	}
	origin.SetOnline(true)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(req.Context(), req, rec, 10)
	defer rc.Close()

	if err := ctrl.Schedule("/", "", "", rc); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Fatalf("expected body %q, got %q", "hello", rec.Body.String())
	}
}

func TestControllerDisabledIsImmediately503(t *testing.T) {
	cfg := &cluster.Config{
		Director: cluster.DirectorConfig{Name: "web", Enabled: false},
		Buckets:  map[string]cluster.BucketConfig{},
		Backends: map[string]cluster.MemberConfig{},
	}
	ctrl, err := cluster.NewController("web", cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(req.Context(), req, rec, 10)
	defer rc.Close()

	if err := ctrl.Schedule("/", "", "", rc); err == nil {
		t.Fatal("expected an error for a disabled cluster")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

// TestControllerNoUsableMemberIsImmediately503 covers §8 Scenario 4: a
// director that is itself enabled but whose only member is disabled, with
// enqueue_on_unavailable=false, must fail fast with 503/Retry-After/
// Cluster-Bucket rather than enqueueing and later timing out with a 504.
func TestControllerNoUsableMemberIsImmediately503(t *testing.T) {
	cfg := &cluster.Config{
		Director: cluster.DirectorConfig{
			Name: "web", Enabled: true, MaxRetryCount: 1,
			EnqueueOnUnavailable: false,
			RetryAfter:           duration.Duration(5 * time.Second),
			QueueTimeout:         duration.Duration(time.Minute),
		},
		Buckets: map[string]cluster.BucketConfig{},
		Backends: map[string]cluster.MemberConfig{
			"origin": {Name: "origin", Host: "127.0.0.1", Port: 1, Capacity: 2, Enabled: false},
		},
	}
	ctrl, err := cluster.NewController("web", cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(req.Context(), req, rec, 10)
	defer rc.Close()

	done := make(chan struct{})
	var scheduleErr error
	go func() {
		scheduleErr = ctrl.Schedule("/", "", "", rc)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected immediate 503, but Schedule blocked (request was enqueued instead of rejected)")
	}

	if scheduleErr == nil {
		t.Fatal("expected an error when no member is usable and enqueue_on_unavailable is false")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("expected Retry-After: 5, got %q", got)
	}
	if got := rec.Header().Get("Cluster-Bucket"); got != "web" {
		t.Fatalf("expected Cluster-Bucket: web, got %q", got)
	}
}
