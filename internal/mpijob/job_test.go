package mpijob

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

func TestJob_RefreshReplacesSnapshot(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 2)
	ctx := context.Background()

	j := c.Job("pi", "")
	if j.Raw() != nil || j.Status() != nil || j.Phase() != PhaseUnknown {
		t.Fatalf("fresh handle should have no snapshot")
	}
	before := testutil.ToFloat64(refreshTotal.WithLabelValues("ok"))
	if err := j.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := testutil.ToFloat64(refreshTotal.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("refresh counter = %v, want %v", got, before+1)
	}
	if j.Phase() != PhaseUnknown {
		t.Fatalf("job without status should be Unknown, got %v", j.Phase())
	}

	setStatus(t, mem, "default", "pi", statusWith(cond(types.JobCreated, "True"), cond(types.JobRunning, "True")))
	if j.Phase() != PhaseUnknown {
		t.Fatalf("snapshot must not change before Refresh")
	}
	if err := j.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !j.IsRunning() || j.IsCompleted() {
		t.Fatalf("expected running, got %v", j.Phase())
	}

	// A later snapshot without status clears everything derived from it.
	setStatus(t, mem, "default", "pi", nil)
	if err := j.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if j.Status() != nil || j.Phase() != PhaseUnknown {
		t.Fatalf("status should be replaced wholesale, got %+v", j.Status())
	}
}

func TestJob_RefreshErrors(t *testing.T) {
	c, mem := newTestClient(t)
	j := c.Job("ghost", "team")
	err := j.Refresh(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	nf := err.(*NotFoundError)
	if nf.Name != "ghost" || nf.Namespace != "team" {
		t.Fatalf("unexpected not found detail: %+v", nf)
	}

	boom := &store.RemoteError{Status: 503, Reason: "ServiceUnavailable"}
	mem.FailOn(store.OpGet, boom)
	if err := j.Refresh(context.Background()); err != boom {
		t.Fatalf("remote errors must propagate unchanged, got %v", err)
	}
}

func TestJob_ReplicaCounters(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 4)
	setStatus(t, mem, "default", "pi", map[string]any{
		"conditions": []any{cond(types.JobRunning, "True")},
		"replicaStatuses": map[string]any{
			"Worker":   map[string]any{"active": int64(3), "succeeded": int64(1)},
			"Launcher": map[string]any{"active": int64(1)},
		},
	})
	j, err := c.Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.WorkersRunning() != 3 || j.WorkersSucceeded() != 1 || j.WorkersFailed() != 0 {
		t.Fatalf("worker counters = %+v", j.ReplicaCounters(types.RoleWorker))
	}
	if got := j.ReplicaCounters(types.RoleLauncher); got.Active != 1 {
		t.Fatalf("launcher counters = %+v", got)
	}
	if got := j.ReplicaCounters("Evaluator"); got != (types.ReplicaCounters{}) {
		t.Fatalf("missing role should be zero, got %+v", got)
	}
}

func TestJob_CountersDefaultToZero(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 2)
	setStatus(t, mem, "default", "pi", statusWith(cond(types.JobCreated, "True")))
	j, err := c.Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.WorkersRunning() != 0 || j.WorkersSucceeded() != 0 || j.WorkersFailed() != 0 {
		t.Fatalf("expected zero counters without replicaStatuses")
	}
}

func TestJob_MalformedStatusIsNil(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 1)
	setStatus(t, mem, "default", "pi", map[string]any{"conditions": "not-a-list"})
	j, err := c.Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.Status() != nil {
		t.Fatalf("malformed status should decode to nil")
	}
	if j.Phase() != PhaseUnknown || j.WorkersRunning() != 0 {
		t.Fatalf("malformed status should behave as absent")
	}
}

func TestJob_StatusReport(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 4)
	setStatus(t, mem, "default", "pi", map[string]any{
		"conditions":      []any{cond(types.JobSucceeded, "True")},
		"startTime":       "2024-01-01T00:00:00Z",
		"completionTime":  "2024-01-01T01:00:00Z",
		"replicaStatuses": map[string]any{"Worker": map[string]any{"succeeded": int64(4)}},
	})
	j, err := c.Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	r := j.StatusReport()
	if r.Phase != "Succeeded" || r.Replicas[types.RoleWorker].Succeeded != 4 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.WorkerResources != "500m CPU, 2Gi Memory, 1 GPU (nvidia.com/gpu)" {
		t.Fatalf("worker resources = %q", r.WorkerResources)
	}
	if r.TotalResources != "2.0 CPU, 8Gi Memory, 4 GPU (nvidia.com/gpu)" {
		t.Fatalf("total resources = %q", r.TotalResources)
	}
	if r.CompletionTime == "" || len(r.Conditions) != 1 {
		t.Fatalf("status fields missing: %+v", r)
	}

	s := j.Summary()
	if s.Workers != 4 || s.Phase != "Succeeded" || s.Name != "pi" {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestJob_Document(t *testing.T) {
	c, mem := newTestClient(t)
	seedJob(t, mem, "default", "pi", 2)
	j, err := c.Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	doc, err := j.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	w := doc.Spec.MPIReplicaSpecs[types.RoleWorker]
	if w.Replicas == nil || *w.Replicas != 2 {
		t.Fatalf("worker replicas = %v", w.Replicas)
	}
	if got := w.Template.Spec.Containers[0].Name; got != "mpi-worker" {
		t.Fatalf("container name = %q", got)
	}
	if _, err := c.Job("other", "").Document(); !IsNotFound(err) {
		t.Fatalf("document without snapshot should be not found, got %v", err)
	}
}
