package mpijob

import (
	"testing"
	"time"

	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// newTestClient returns a client over an empty in-memory store.
func newTestClient(t *testing.T) (*Client, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, "default"), mem
}

func workerTemplate(replicas int32) *types.ReplicaTemplate {
	return &types.ReplicaTemplate{
		Replicas: replicas,
		Image:    "registry.local/train:latest",
		Resources: types.ResourceRequirements{
			Requests: types.ResourceList{"cpu": "500m", "memory": "2Gi", "nvidia.com/gpu": "1"},
			Limits:   types.ResourceList{"cpu": "500m", "memory": "2Gi", "nvidia.com/gpu": "1"},
		},
		Command: []string{"python", "train.py"},
	}
}

// seedJob stores a valid job built from workerTemplate.
func seedJob(t *testing.T, mem *store.Memory, namespace, name string, workers int32) {
	t.Helper()
	obj, err := Builder{Name: name, Namespace: namespace, Worker: *workerTemplate(workers)}.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	mem.Put(obj)
}

// cond renders one condition record as the operator writes it.
func cond(typ types.ConditionType, status string) map[string]any {
	return map[string]any{
		"type":               string(typ),
		"status":             status,
		"lastTransitionTime": "2024-01-01T00:00:00Z",
	}
}

// statusWith builds a status object from condition records.
func statusWith(conds ...map[string]any) map[string]any {
	list := make([]any, 0, len(conds))
	for _, c := range conds {
		list = append(list, c)
	}
	return map[string]any{"conditions": list}
}

func setStatus(t *testing.T, mem *store.Memory, namespace, name string, status map[string]any) {
	t.Helper()
	if err := mem.SetStatus(namespace, name, status); err != nil {
		t.Fatalf("set status: %v", err)
	}
}

// shortDeletePoll speeds up waited deletes for the duration of a test.
func shortDeletePoll(t *testing.T) {
	t.Helper()
	prev := deletePollInterval
	deletePollInterval = time.Millisecond
	t.Cleanup(func() { deletePollInterval = prev })
}
