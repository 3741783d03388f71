package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/ratelimit"
)

func TestHTTPRequestNodeSynchronous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":true}`))
	}))
	defer srv.Close()

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(describeHTTPRequest, newHTTPRequest(srv.Client(), ratelimit.New())))

	n, proc, err := reg.Create("HTTPRequestNode", "")
	require.NoError(t, err)
	n.SetInput("url", srv.URL)
	n.SetInput("body", map[string]any{})

	out, err := proc.Process(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, int64(200), out["status"].Get())
	assert.Equal(t, map[string]any{"echo": true}, out["response"].Get())
}

// HTTPRequestNode acquires its configured service's concurrency slot
// before dialing out and releases it once the call returns (§5); a
// MaxConcurrent of 1 must serialize two otherwise-concurrent calls.
func TestHTTPRequestNodeHonorsServiceConcurrencyLimit(t *testing.T) {
	var inFlight, maxObserved int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&maxObserved)
			if cur <= observed || atomic.CompareAndSwapInt32(&maxObserved, observed, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	limiter := ratelimit.New()
	limiter.Configure("capped", ratelimit.Policy{MaxConcurrent: 1})

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(describeHTTPRequest, newHTTPRequest(srv.Client(), limiter)))

	run := func() error {
		n, proc, err := reg.Create("HTTPRequestNode", "")
		require.NoError(t, err)
		n.SetInput("url", srv.URL)
		n.SetInput("service_name", "capped")
		_, err = proc.Process(context.Background(), n)
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, run())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxObserved))
}

func TestHTTPRequestNodeNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(describeHTTPRequest, newHTTPRequest(srv.Client(), ratelimit.New())))

	n, proc, err := reg.Create("HTTPRequestNode", "")
	require.NoError(t, err)
	n.SetInput("url", srv.URL)

	_, err = proc.Process(context.Background(), n)
	require.ErrorIs(t, err, ErrRemoteService)
}

// Scenario 5 (§8): an async remote node registers with the coordinator and
// resumes once the fixture's webhook delivery arrives.
func TestAsyncEchoServiceNodeResumesOnCallback(t *testing.T) {
	coord := coordinator.New(zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"J1","pod_url":"http://pod"}`))
	}))
	defer srv.Close()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = coord.Handle(coordinator.Payload{
			"id":        "J1",
			"status":    "completed",
			"localUrls": []any{"f.mp4"},
		})
	}()

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(describeAsyncEchoService, newAsyncEchoService(srv.Client(), coord, "http://this-service/webhook", ratelimit.New(), zap.NewNop())))

	n, proc, err := reg.Create("AsyncEchoServiceNode", "")
	require.NoError(t, err)
	n.SetInput("url", srv.URL)
	n.SetInput("timeout_seconds", int64(5))

	out, err := proc.Process(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "f.mp4", out["output_url"].Get())
	assert.Equal(t, "completed", out["status"].Get())
}

// Scenario 6 (§8): cancellation cascade -- the coordinator wait is
// cancelled, and the node best-effort POSTs the remote cancel endpoint.
func TestAsyncEchoServiceNodeCancellationPostsRemoteCancel(t *testing.T) {
	coord := coordinator.New(zap.NewNop())

	var cancelReceived bool
	cancelSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cancel/J2" {
			cancelReceived = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer cancelSrv.Close()

	immediateBody, err := json.Marshal(map[string]any{"id": "J2", "pod_url": cancelSrv.URL})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(immediateBody)
	}))
	defer srv.Close()

	reg := node.NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(describeAsyncEchoService, newAsyncEchoService(srv.Client(), coord, "http://this-service/webhook", ratelimit.New(), zap.NewNop())))

	n, proc, err := reg.Create("AsyncEchoServiceNode", "")
	require.NoError(t, err)
	n.SetInput("url", srv.URL)
	n.SetInput("timeout_seconds", int64(5))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = proc.Process(ctx, n)
	require.Error(t, err)
	assert.Eventually(t, func() bool { return cancelReceived }, time.Second, 10*time.Millisecond)
}
