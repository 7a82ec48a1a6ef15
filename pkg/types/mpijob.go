package types

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Group, version and resource of the MPIJob custom resource.
const (
	Group      = "kubeflow.org"
	Version    = "v2"
	Plural     = "mpijobs"
	Kind       = "MPIJob"
	APIVersion = Group + "/" + Version
)

// Replica roles.
const (
	RoleLauncher = "Launcher"
	RoleWorker   = "Worker"
)

// MPI implementations supported by the operator.
const (
	MPIImplementationOpenMPI  = "OpenMPI"
	MPIImplementationIntelMPI = "IntelMPI"
	MPIImplementationMPICH    = "MPICH"
)

// Clean pod policies.
const (
	CleanPodPolicyAll     = "All"
	CleanPodPolicyRunning = "Running"
	CleanPodPolicyNone    = "None"
)

// Network policy templates.
const (
	NetworkPolicyDefault    = "Default"
	NetworkPolicyRestricted = "Restricted"
)

// ConditionType is the type of a job condition record.
type ConditionType string

const (
	JobCreated    ConditionType = "Created"
	JobRunning    ConditionType = "Running"
	JobRestarting ConditionType = "Restarting"
	JobSucceeded  ConditionType = "Succeeded"
	JobFailed     ConditionType = "Failed"
)

// MPIJob is the typed view of a job document.
type MPIJob struct {
	APIVersion string            `json:"apiVersion,omitempty"`
	Kind       string            `json:"kind,omitempty"`
	Metadata   metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec       MPIJobSpec        `json:"spec"`
	Status     *JobStatus        `json:"status,omitempty"`
}

// MPIJobSpec is the desired state of a job.
type MPIJobSpec struct {
	SlotsPerWorker    *int32                 `json:"slotsPerWorker,omitempty"`
	MPIImplementation string                 `json:"mpiImplementation,omitempty"`
	RunPolicy         *RunPolicy             `json:"runPolicy,omitempty"`
	MPIReplicaSpecs   map[string]ReplicaSpec `json:"mpiReplicaSpecs"`
	NetworkPolicy     *NetworkPolicy         `json:"networkPolicy,omitempty"`
}

// RunPolicy controls cleanup, deadlines and scheduling of a job.
type RunPolicy struct {
	CleanPodPolicy          string            `json:"cleanPodPolicy,omitempty" yaml:"cleanPodPolicy,omitempty"`
	TTLSecondsAfterFinished *int32            `json:"ttlSecondsAfterFinished,omitempty" yaml:"ttlSecondsAfterFinished,omitempty"`
	ActiveDeadlineSeconds   *int64            `json:"activeDeadlineSeconds,omitempty" yaml:"activeDeadlineSeconds,omitempty"`
	BackoffLimit            *int32            `json:"backoffLimit,omitempty" yaml:"backoffLimit,omitempty"`
	SchedulingPolicy        *SchedulingPolicy `json:"schedulingPolicy,omitempty" yaml:"schedulingPolicy,omitempty"`
}

// SchedulingPolicy carries gang-scheduling hints.
type SchedulingPolicy struct {
	MinAvailable           *int32            `json:"minAvailable,omitempty" yaml:"minAvailable,omitempty"`
	Queue                  string            `json:"queue,omitempty" yaml:"queue,omitempty"`
	MinResources           map[string]string `json:"minResources,omitempty" yaml:"minResources,omitempty"`
	PriorityClass          string            `json:"priorityClass,omitempty" yaml:"priorityClass,omitempty"`
	ScheduleTimeoutSeconds *int32            `json:"scheduleTimeoutSeconds,omitempty" yaml:"scheduleTimeoutSeconds,omitempty"`
}

// NetworkPolicy selects a network policy template for the job pods.
type NetworkPolicy struct {
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// ReplicaSpec describes one replica role.
type ReplicaSpec struct {
	Replicas      *int32                 `json:"replicas,omitempty"`
	RestartPolicy string                 `json:"restartPolicy,omitempty"`
	Template      corev1.PodTemplateSpec `json:"template"`
}

// JobStatus is the observed state of a job as written by the operator.
type JobStatus struct {
	Conditions      []JobCondition           `json:"conditions,omitempty"`
	StartTime       string                   `json:"startTime,omitempty"`
	CompletionTime  string                   `json:"completionTime,omitempty"`
	ReplicaStatuses map[string]ReplicaStatus `json:"replicaStatuses,omitempty"`
}

// JobCondition is one lifecycle record. Timestamps are kept as the
// operator wrote them.
type JobCondition struct {
	Type               ConditionType `json:"type"`
	Status             string        `json:"status"`
	Reason             string        `json:"reason,omitempty"`
	Message            string        `json:"message,omitempty"`
	LastTransitionTime string        `json:"lastTransitionTime,omitempty"`
	LastUpdateTime     string        `json:"lastUpdateTime,omitempty"`
}

// ReplicaStatus counts pods of one role.
type ReplicaStatus struct {
	Active    int32 `json:"active,omitempty"`
	Succeeded int32 `json:"succeeded,omitempty"`
	Failed    int32 `json:"failed,omitempty"`
}
