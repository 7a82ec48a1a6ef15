package types

// ResourceList maps a resource name (cpu, memory, nvidia.com/gpu) to its
// quantity string.
type ResourceList map[string]string

// ResourceRequirements mirrors the requests/limits pair of a container.
type ResourceRequirements struct {
	// Resources reserved for the container.
	// example: {"cpu":"4","memory":"16Gi","nvidia.com/gpu":"2"}
	Requests ResourceList `json:"requests,omitempty" yaml:"requests,omitempty"`
	// Upper bounds for the container.
	Limits ResourceList `json:"limits,omitempty" yaml:"limits,omitempty"`
}

// EnvVar is a container environment variable. ValueFrom is passed to the
// pod template verbatim (secretKeyRef, configMapKeyRef, fieldRef, ...).
type EnvVar struct {
	Name      string         `json:"name" yaml:"name"`
	Value     string         `json:"value,omitempty" yaml:"value,omitempty"`
	ValueFrom map[string]any `json:"valueFrom,omitempty" yaml:"valueFrom,omitempty"`
}

// ReplicaTemplate is the high-level description of one replica role from
// which a job document is built.
type ReplicaTemplate struct {
	// Number of replicas for this role.
	// example: 4
	Replicas int32 `json:"replicas" yaml:"replicas" example:"4"`
	// Container image.
	// example: myregistry.com/training:horovod-latest
	Image string `json:"image" yaml:"image" example:"myregistry.com/training:horovod-latest"`
	// Resource requests and limits.
	Resources ResourceRequirements `json:"resources" yaml:"resources"`
	// Command to run in the container.
	// example: ["python","/workspace/train.py"]
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`
	// Arguments to the command.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
	// Environment variables.
	Env []EnvVar `json:"env,omitempty" yaml:"env,omitempty"`
	// Working directory in the container.
	WorkingDir string `json:"workingDir,omitempty" yaml:"workingDir,omitempty"`
	// Pod volumes, passed through verbatim.
	Volumes []map[string]any `json:"volumes,omitempty" yaml:"volumes,omitempty"`
	// Container volume mounts, passed through verbatim.
	VolumeMounts []map[string]any `json:"volumeMounts,omitempty" yaml:"volumeMounts,omitempty"`
}

// CreateJobRequest is the body of POST /api/v1/namespaces/{namespace}/mpijobs.
// Exactly one of Worker or Document must be set.
type CreateJobRequest struct {
	// Job name; required with Worker.
	// example: resnet-horovod
	Name string `json:"name,omitempty" example:"resnet-horovod"`
	// Worker template.
	Worker *ReplicaTemplate `json:"worker,omitempty"`
	// Optional launcher template; defaults to one replica of the worker image.
	Launcher *ReplicaTemplate `json:"launcher,omitempty"`
	// example: OpenMPI
	MPIImplementation string `json:"mpiImplementation,omitempty" example:"OpenMPI"`
	// example: 1
	SlotsPerWorker int32          `json:"slotsPerWorker,omitempty" example:"1"`
	RunPolicy      *RunPolicy     `json:"runPolicy,omitempty"`
	NetworkPolicy  *NetworkPolicy `json:"networkPolicy,omitempty"`
	// Full MPIJob document, used instead of Worker.
	Document map[string]any `json:"document,omitempty"`
	// Validate on the server without persisting.
	DryRun bool `json:"dryRun,omitempty"`
}

// ReplicaCounters counts the pods of one replica role.
type ReplicaCounters struct {
	// example: 4
	Active int32 `json:"active" example:"4"`
	// example: 0
	Succeeded int32 `json:"succeeded" example:"0"`
	// example: 0
	Failed int32 `json:"failed" example:"0"`
}

// JobSummary is one row of GET .../mpijobs.
type JobSummary struct {
	// example: resnet-horovod
	Name string `json:"name" example:"resnet-horovod"`
	// example: default
	Namespace string `json:"namespace" example:"default"`
	// Derived lifecycle phase.
	// example: Running
	Phase string `json:"phase" example:"Running"`
	// Desired worker replicas.
	// example: 4
	Workers int32 `json:"workers" example:"4"`
	// example: 2024-01-01T00:00:00Z
	Created string `json:"created,omitempty" example:"2024-01-01T00:00:00Z"`
}

// JobListResponse wraps GET .../mpijobs.
type JobListResponse struct {
	Items []JobSummary `json:"items"`
}

// JobStatusResponse is returned by GET .../mpijobs/{name}/status.
type JobStatusResponse struct {
	// example: resnet-horovod
	Name string `json:"name" example:"resnet-horovod"`
	// example: default
	Namespace string `json:"namespace" example:"default"`
	// example: Running
	Phase string `json:"phase" example:"Running"`
	// Per-role pod counters.
	Replicas map[string]ReplicaCounters `json:"replicas"`
	// Raw condition records.
	Conditions     []JobCondition `json:"conditions,omitempty"`
	StartTime      string         `json:"startTime,omitempty"`
	CompletionTime string         `json:"completionTime,omitempty"`
	// Per-worker resources, e.g. "4 CPU, 16Gi Memory, 2 GPU (nvidia.com/gpu)".
	WorkerResources string `json:"workerResources,omitempty"`
	// Worker resources scaled by the worker replica count.
	TotalResources string `json:"totalResources,omitempty"`
}

// LogsResponse maps pod names to their logs. A pod whose logs could not be
// read carries an "Error getting logs: ..." string instead.
type LogsResponse struct {
	Logs map[string]string `json:"logs"`
}

// DeleteResponse is returned by DELETE .../mpijobs/{name}.
type DeleteResponse struct {
	// False when a waited delete timed out.
	// example: true
	Deleted bool `json:"deleted" example:"true"`
	// example: MPIJob resnet-horovod deleted
	Message string `json:"message,omitempty" example:"MPIJob resnet-horovod deleted"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: MPIJob resnet-horovod not found in namespace default
	Error string `json:"error" example:"MPIJob resnet-horovod not found in namespace default"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// PhaseEvent is one NDJSON line of GET .../mpijobs/{name}/events, emitted
// for every distinct phase observed.
type PhaseEvent struct {
	// example: resnet-horovod
	Name string `json:"name" example:"resnet-horovod"`
	// example: Running
	Phase  string    `json:"phase" example:"Running"`
	Status JobStatus `json:"status"`
}
