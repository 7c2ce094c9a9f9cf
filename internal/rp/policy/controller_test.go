package policy

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idsim/internal/backend"
	"idsim/internal/rp/metrics"
	"idsim/internal/rp/models"
)

func ptr(b bool) *bool { return &b }

func allAuto(requestID string) models.RequestPolicy {
	return models.RequestPolicy{
		RequestID:                requestID,
		MinIdP:                   1,
		AutoClose:                true,
		AutoRemoveData:           true,
		AutoRemovePrivateMessage: true,
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		event backend.RequestStatus
		want  bool
	}{
		{"mode 1 ignores validity list", backend.RequestStatus{Mode: 1, ResponseValidList: []backend.ResponseValid{{ValidSignature: ptr(false)}}}, true},
		{"mode 3 all valid", backend.RequestStatus{Mode: 3, ResponseValidList: []backend.ResponseValid{{ValidSignature: ptr(true), ValidIAL: ptr(true)}}}, true},
		{"mode 3 invalid signature", backend.RequestStatus{Mode: 3, ResponseValidList: []backend.ResponseValid{{ValidSignature: ptr(false), ValidIAL: ptr(true)}}}, false},
		{"mode 2 invalid ial", backend.RequestStatus{Mode: 2, ResponseValidList: []backend.ResponseValid{{ValidSignature: ptr(true), ValidIAL: ptr(false)}}}, false},
		{"unevaluated fields count as valid", backend.RequestStatus{Mode: 3, ResponseValidList: []backend.ResponseValid{{IdPID: "idp1"}}}, true},
		{"empty list", backend.RequestStatus{Mode: 3}, true},
		{"one bad responder among good ones", backend.RequestStatus{Mode: 3, ResponseValidList: []backend.ResponseValid{
			{ValidSignature: ptr(true), ValidIAL: ptr(true)},
			{ValidSignature: ptr(false), ValidIAL: ptr(true)},
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.event))
		})
	}
}

func TestEvaluate(t *testing.T) {
	rejected := backend.RequestStatus{
		RequestID:        "r1",
		Mode:             3,
		Status:           backend.StatusRejected,
		MinIdP:           1,
		AnsweredIdPCount: 1,
		ResponseValidList: []backend.ResponseValid{
			{IdPID: "idp1", ValidSignature: ptr(true), ValidIAL: ptr(true)},
		},
	}

	t.Run("valid rejected request at min_idp closes", func(t *testing.T) {
		a := Evaluate(allAuto("r1"), rejected)
		assert.True(t, a.Close)
		assert.False(t, a.RemoveData)
		assert.False(t, a.Dispose)
	})

	t.Run("complicated closes too", func(t *testing.T) {
		ev := rejected
		ev.Status = backend.StatusComplicated
		assert.True(t, Evaluate(allAuto("r1"), ev).Close)
	})

	t.Run("invalid signature does not close", func(t *testing.T) {
		ev := rejected
		ev.ResponseValidList = []backend.ResponseValid{{IdPID: "idp1", ValidSignature: ptr(false), ValidIAL: ptr(true)}}
		a := Evaluate(allAuto("r1"), ev)
		assert.False(t, a.Valid)
		assert.False(t, a.Close)
		assert.False(t, a.Any())
	})

	t.Run("confirmed does not close", func(t *testing.T) {
		ev := rejected
		ev.Status = backend.StatusConfirmed
		assert.False(t, Evaluate(allAuto("r1"), ev).Close)
	})

	t.Run("answers below min_idp do not close", func(t *testing.T) {
		ev := rejected
		ev.MinIdP = 2
		assert.False(t, Evaluate(allAuto("r1"), ev).Close)
	})

	t.Run("policy min_idp used when event omits it", func(t *testing.T) {
		ev := rejected
		ev.MinIdP = 0
		p := allAuto("r1")
		p.MinIdP = 1
		assert.True(t, Evaluate(p, ev).Close)
	})

	t.Run("auto close disabled", func(t *testing.T) {
		p := allAuto("r1")
		p.AutoClose = false
		assert.False(t, Evaluate(p, rejected).Close)
	})

	t.Run("closed request is cleaned up and disposed", func(t *testing.T) {
		ev := rejected
		ev.Closed = true
		a := Evaluate(allAuto("r1"), ev)
		assert.False(t, a.Close)
		assert.True(t, a.RemoveData)
		assert.True(t, a.RemovePrivateMessages)
		assert.True(t, a.Dispose)
	})

	t.Run("timed out follows the flags", func(t *testing.T) {
		ev := backend.RequestStatus{RequestID: "r1", Mode: 1, Status: backend.StatusPending, TimedOut: true}
		p := allAuto("r1")
		p.AutoRemoveData = false
		a := Evaluate(p, ev)
		assert.False(t, a.RemoveData)
		assert.True(t, a.RemovePrivateMessages)
		assert.True(t, a.Dispose)
	})
}

func TestController(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewController(NewInMemory(), WithMetrics(m), WithAwait(20*time.Millisecond, 5*time.Millisecond))

	t.Run("request id is required", func(t *testing.T) {
		assert.Error(t, c.OnRequestCreated(ctx, models.RequestPolicy{}))
	})

	require.NoError(t, c.OnRequestCreated(ctx, models.RequestPolicy{
		RequestID: "r1", MinIdP: 1, AutoClose: true, AutoRemoveData: true, CreatedAt: time.Now(),
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Policies))

	t.Run("unknown request yields no actions", func(t *testing.T) {
		a, err := c.OnStatusUpdate(ctx, backend.RequestStatus{RequestID: "nope", Mode: 3, Closed: true})
		require.NoError(t, err)
		assert.False(t, a.Known)
		assert.False(t, a.Any())
		assert.False(t, a.Dispose)
	})

	t.Run("known request is evaluated", func(t *testing.T) {
		a, err := c.OnStatusUpdate(ctx, backend.RequestStatus{RequestID: "r1", Mode: 3, Closed: true})
		require.NoError(t, err)
		assert.True(t, a.Known)
		assert.True(t, a.RemoveData)
		assert.False(t, a.RemovePrivateMessages)
	})

	t.Run("dispose is idempotent", func(t *testing.T) {
		require.NoError(t, c.Dispose(ctx, "r1"))
		require.NoError(t, c.Dispose(ctx, "r1"))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.Policies))

		a, err := c.OnStatusUpdate(ctx, backend.RequestStatus{RequestID: "r1", Mode: 3, Closed: true})
		require.NoError(t, err)
		assert.False(t, a.Known)
	})
}

func TestControllerAwaitsLatePolicy(t *testing.T) {
	ctx := context.Background()
	c := NewController(NewInMemory(), WithAwait(time.Second, 5*time.Millisecond))

	saved := make(chan error, 1)
	go func() {
		time.Sleep(30 * time.Millisecond)
		saved <- c.OnRequestCreated(ctx, allAuto("late"))
	}()

	a, err := c.OnStatusUpdate(ctx, backend.RequestStatus{RequestID: "late", Mode: 3, Closed: true})
	require.NoError(t, err)
	require.NoError(t, <-saved)
	assert.True(t, a.Known, "status arriving before the policy is stored still finds it")
	assert.True(t, a.RemoveData)
	assert.True(t, a.Dispose)

	t.Run("no wait when disabled", func(t *testing.T) {
		c := NewController(NewInMemory(), WithAwait(0, 0))
		start := time.Now()
		a, err := c.OnStatusUpdate(ctx, backend.RequestStatus{RequestID: "never", Mode: 3})
		require.NoError(t, err)
		assert.False(t, a.Known)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}
