package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Pod labels set by the operator on every job pod.
const (
	LabelJobName      = "training.kubeflow.org/job-name"
	LabelReplicaType  = "training.kubeflow.org/replica-type"
	LabelReplicaIndex = "training.kubeflow.org/replica-index"
)

// Store is the system of record for job documents and pod logs.
// Every call is a blocking round trip.
type Store interface {
	Create(ctx context.Context, namespace string, obj *unstructured.Unstructured, dryRun bool) (*unstructured.Unstructured, error)
	Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error)
	// List returns the jobs matching labelSelector. An empty namespace lists
	// across all namespaces.
	List(ctx context.Context, namespace, labelSelector string) ([]unstructured.Unstructured, error)
	Delete(ctx context.Context, namespace, name string) error
	// ListPods returns the names of pods matching labelSelector.
	ListPods(ctx context.Context, namespace, labelSelector string) ([]string, error)
	ReadPodLog(ctx context.Context, namespace, pod string, opts PodLogOptions) (string, error)
}

// PodLogOptions narrows a pod log read.
type PodLogOptions struct {
	// Container defaults to the pod's only container when empty.
	Container string
	// TailLines limits output to the last N lines when positive.
	TailLines int64
}

// RemoteError is any failure reported by the store. Status is the HTTP
// status of the failed call, or 0 for transport failures.
type RemoteError struct {
	Status  int
	Reason  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("store unavailable: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("store error %d (%s)", e.Status, e.Reason)
	}
	return fmt.Sprintf("store error %d (%s): %s", e.Status, e.Reason, e.Message)
}

// NotFound builds the RemoteError for a missing object.
func NotFound(kind, namespace, name string) *RemoteError {
	return &RemoteError{
		Status:  http.StatusNotFound,
		Reason:  "NotFound",
		Message: fmt.Sprintf("%s %q not found in namespace %q", kind, name, namespace),
	}
}

// IsNotFound reports whether err is a RemoteError with status 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// ReasonOf returns the reason of a RemoteError, or err.Error() otherwise.
func ReasonOf(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	return err.Error()
}
