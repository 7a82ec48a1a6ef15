package mpijob

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/clock"

	"mpijobctl/internal/resources"
	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// Job is a handle on one MPIJob. It caches the last fetched document;
// every accessor reads that snapshot and only Refresh talks to the store.
type Job struct {
	name      string
	namespace string
	raw       *unstructured.Unstructured

	store store.Store
	clock clock.Clock
	log   zerolog.Logger
}

func (c *Client) newJob(name, namespace string, raw *unstructured.Unstructured) *Job {
	return &Job{
		name:      name,
		namespace: namespace,
		raw:       raw,
		store:     c.store,
		clock:     c.clock,
		log:       c.log.With().Str("job", name).Str("namespace", namespace).Logger(),
	}
}

func (j *Job) Name() string      { return j.name }
func (j *Job) Namespace() string { return j.namespace }

// Raw returns the cached document, or nil before the first fetch.
func (j *Job) Raw() *unstructured.Unstructured { return j.raw }

// Refresh fetches the job and replaces the cached snapshot wholesale.
func (j *Job) Refresh(ctx context.Context) error {
	obj, err := j.store.Get(ctx, j.namespace, j.name)
	refreshTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		if store.IsNotFound(err) {
			return &NotFoundError{Name: j.name, Namespace: j.namespace}
		}
		return err
	}
	j.raw = obj
	return nil
}

// Status returns the typed status of the snapshot, or nil when the
// snapshot has no status or it cannot be decoded.
func (j *Job) Status() *types.JobStatus {
	if j.raw == nil {
		return nil
	}
	m, ok, err := unstructured.NestedMap(j.raw.Object, "status")
	if err != nil || !ok {
		return nil
	}
	var st types.JobStatus
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(m, &st); err != nil {
		j.log.Debug().Err(err).Msg("malformed status")
		return nil
	}
	return &st
}

// Phase derives the lifecycle phase from the snapshot's conditions.
func (j *Job) Phase() Phase {
	st := j.Status()
	if st == nil {
		return PhaseUnknown
	}
	return DerivePhase(st.Conditions)
}

func (j *Job) IsRunning() bool   { return j.Phase().IsRunning() }
func (j *Job) IsCompleted() bool { return j.Phase().IsCompleted() }
func (j *Job) IsSucceeded() bool { return j.Phase().IsSucceeded() }
func (j *Job) IsFailed() bool    { return j.Phase().IsFailed() }

// ReplicaCounters returns the pod counters of role. A missing status or
// role yields zero counters.
func (j *Job) ReplicaCounters(role string) types.ReplicaCounters {
	st := j.Status()
	if st == nil {
		return types.ReplicaCounters{}
	}
	rs, ok := st.ReplicaStatuses[role]
	if !ok {
		return types.ReplicaCounters{}
	}
	return types.ReplicaCounters{Active: rs.Active, Succeeded: rs.Succeeded, Failed: rs.Failed}
}

func (j *Job) WorkersRunning() int32   { return j.ReplicaCounters(types.RoleWorker).Active }
func (j *Job) WorkersSucceeded() int32 { return j.ReplicaCounters(types.RoleWorker).Succeeded }
func (j *Job) WorkersFailed() int32    { return j.ReplicaCounters(types.RoleWorker).Failed }

// Replicas returns the desired replica count of role from the snapshot's
// spec, or 0 when unset.
func (j *Job) Replicas(role string) int32 {
	if j.raw == nil {
		return 0
	}
	n, ok, err := unstructured.NestedInt64(j.raw.Object, "spec", "mpiReplicaSpecs", role, "replicas")
	if err != nil || !ok {
		return 0
	}
	return int32(n)
}

// Created returns the creation timestamp of the snapshot, or the zero time.
func (j *Job) Created() time.Time {
	if j.raw == nil {
		return time.Time{}
	}
	return j.raw.GetCreationTimestamp().Time
}

// Document decodes the whole snapshot into the typed view.
func (j *Job) Document() (*types.MPIJob, error) {
	if j.raw == nil {
		return nil, &NotFoundError{Name: j.name, Namespace: j.namespace}
	}
	return decodeDocument(j.raw)
}

// Resources returns the per-replica resources of role's first container.
func (j *Job) Resources(role string) (resources.Spec, bool) {
	if j.raw == nil {
		return resources.Spec{}, false
	}
	containers, ok, err := unstructured.NestedSlice(j.raw.Object, "spec", "mpiReplicaSpecs", role, "template", "spec", "containers")
	if err != nil || !ok || len(containers) == 0 {
		return resources.Spec{}, false
	}
	c, ok := containers[0].(map[string]any)
	if !ok {
		return resources.Spec{}, false
	}
	req := types.ResourceRequirements{
		Requests: resourceList(c, "requests"),
		Limits:   resourceList(c, "limits"),
	}
	spec, err := resources.FromRequirements(req)
	if err != nil {
		return resources.Spec{}, false
	}
	return spec, true
}

// Summary renders the list row for this job.
func (j *Job) Summary() types.JobSummary {
	s := types.JobSummary{
		Name:      j.name,
		Namespace: j.namespace,
		Phase:     j.Phase().String(),
		Workers:   j.Replicas(types.RoleWorker),
	}
	if t := j.Created(); !t.IsZero() {
		s.Created = t.UTC().Format(time.RFC3339)
	}
	return s
}

// StatusReport renders the detailed status view of this job.
func (j *Job) StatusReport() types.JobStatusResponse {
	out := types.JobStatusResponse{
		Name:      j.name,
		Namespace: j.namespace,
		Phase:     j.Phase().String(),
		Replicas: map[string]types.ReplicaCounters{
			types.RoleLauncher: j.ReplicaCounters(types.RoleLauncher),
			types.RoleWorker:   j.ReplicaCounters(types.RoleWorker),
		},
	}
	if st := j.Status(); st != nil {
		out.Conditions = st.Conditions
		out.StartTime = st.StartTime
		out.CompletionTime = st.CompletionTime
	}
	if spec, ok := j.Resources(types.RoleWorker); ok {
		out.WorkerResources = spec.String()
		out.TotalResources = spec.Scale(int64(j.Replicas(types.RoleWorker))).String()
	}
	return out
}

// resourceList reads resources.<section> of a container, accepting bare
// numbers as well as strings.
func resourceList(container map[string]any, section string) types.ResourceList {
	m, ok, err := unstructured.NestedMap(container, "resources", section)
	if err != nil || !ok {
		return nil
	}
	out := make(types.ResourceList, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
