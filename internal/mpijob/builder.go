package mpijob

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"mpijobctl/internal/resources"
	"mpijobctl/pkg/types"
)

// Launcher defaults used when no launcher template is given.
const (
	DefaultLauncherCPU    = "1"
	DefaultLauncherMemory = "1Gi"
)

// Builder composes an MPIJob document from replica templates.
type Builder struct {
	Name      string
	Namespace string
	Labels    map[string]string
	Worker    types.ReplicaTemplate
	// Launcher defaults to one replica of the worker image with
	// DefaultLauncherCPU and DefaultLauncherMemory requests.
	Launcher *types.ReplicaTemplate
	// MPIImplementation defaults to OpenMPI.
	MPIImplementation string
	// SlotsPerWorker defaults to 1.
	SlotsPerWorker int32
	RunPolicy      *types.RunPolicy
	NetworkPolicy  *types.NetworkPolicy
}

// DefaultLauncher returns the launcher synthesized for worker.
func DefaultLauncher(worker types.ReplicaTemplate) types.ReplicaTemplate {
	return types.ReplicaTemplate{
		Replicas: 1,
		Image:    worker.Image,
		Resources: types.ResourceRequirements{
			Requests: types.ResourceList{"cpu": DefaultLauncherCPU, "memory": DefaultLauncherMemory},
		},
	}
}

// Build renders the job document. It does not validate it.
func (b Builder) Build() (*unstructured.Unstructured, error) {
	launcher := DefaultLauncher(b.Worker)
	if b.Launcher != nil {
		launcher = *b.Launcher
	}
	impl := b.MPIImplementation
	if impl == "" {
		impl = types.MPIImplementationOpenMPI
	}
	slots := b.SlotsPerWorker
	if slots == 0 {
		slots = 1
	}

	metadata := map[string]any{"name": b.Name, "namespace": b.Namespace}
	if len(b.Labels) > 0 {
		metadata["labels"] = b.Labels
	}
	spec := map[string]any{
		"slotsPerWorker":    slots,
		"mpiImplementation": impl,
		"mpiReplicaSpecs": map[string]any{
			types.RoleWorker:   replicaSpec(types.RoleWorker, b.Worker),
			types.RoleLauncher: replicaSpec(types.RoleLauncher, launcher),
		},
	}
	if b.RunPolicy != nil {
		spec["runPolicy"] = b.RunPolicy
	}
	if b.NetworkPolicy != nil {
		spec["networkPolicy"] = b.NetworkPolicy
	}
	doc, err := normalize(map[string]any{
		"apiVersion": types.APIVersion,
		"kind":       types.Kind,
		"metadata":   metadata,
		"spec":       spec,
	})
	if err != nil {
		return nil, err
	}
	return &unstructured.Unstructured{Object: doc}, nil
}

// replicaSpec renders one role as a single-container pod template.
// Optional container fields are copied only when non-empty.
func replicaSpec(role string, t types.ReplicaTemplate) map[string]any {
	container := map[string]any{
		"name":      "mpi-" + strings.ToLower(role),
		"image":     t.Image,
		"resources": requirements(t.Resources),
	}
	if len(t.Command) > 0 {
		container["command"] = t.Command
	}
	if len(t.Args) > 0 {
		container["args"] = t.Args
	}
	if len(t.Env) > 0 {
		container["env"] = t.Env
	}
	if t.WorkingDir != "" {
		container["workingDir"] = t.WorkingDir
	}
	if len(t.VolumeMounts) > 0 {
		container["volumeMounts"] = t.VolumeMounts
	}
	podSpec := map[string]any{"containers": []any{container}}
	if len(t.Volumes) > 0 {
		podSpec["volumes"] = t.Volumes
	}
	return map[string]any{
		"replicas": t.Replicas,
		"template": map[string]any{"spec": podSpec},
	}
}

func requirements(r types.ResourceRequirements) map[string]any {
	out := map[string]any{}
	if len(r.Requests) > 0 {
		out["requests"] = r.Requests
	}
	if len(r.Limits) > 0 {
		out["limits"] = r.Limits
	}
	return out
}

// TotalResources reports the worker resources scaled by the worker
// replica count. It is for display only; the submitted document keeps
// per-replica values.
func (b Builder) TotalResources() (resources.Spec, error) {
	spec, err := resources.FromRequirements(b.Worker.Resources)
	if err != nil {
		return resources.Spec{}, err
	}
	return spec.Scale(int64(b.Worker.Replicas)), nil
}
