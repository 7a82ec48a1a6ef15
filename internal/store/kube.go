package store

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/utils/ptr"

	"mpijobctl/pkg/types"
)

// MPIJobResource is the resource served by the operator.
var MPIJobResource = schema.GroupVersionResource{Group: types.Group, Version: types.Version, Resource: types.Plural}

// Kube talks to a Kubernetes API server: the dynamic client for the job
// custom resource and the typed clientset for pods and their logs.
type Kube struct {
	dyn      dynamic.Interface
	core     kubernetes.Interface
	resource schema.GroupVersionResource
}

// NewKube wires existing clients. Tests pass client-go fakes here.
func NewKube(dyn dynamic.Interface, core kubernetes.Interface) *Kube {
	return &Kube{dyn: dyn, core: core, resource: MPIJobResource}
}

// NewKubeForConfig builds both clients from a REST config.
func NewKubeForConfig(cfg *rest.Config) (*Kube, error) {
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("dynamic client: %w", err)
	}
	core, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("core client: %w", err)
	}
	return NewKube(dyn, core), nil
}

func (k *Kube) jobs(namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return k.dyn.Resource(k.resource)
	}
	return k.dyn.Resource(k.resource).Namespace(namespace)
}

func (k *Kube) Create(ctx context.Context, namespace string, obj *unstructured.Unstructured, dryRun bool) (*unstructured.Unstructured, error) {
	opts := metav1.CreateOptions{}
	if dryRun {
		opts.DryRun = []string{metav1.DryRunAll}
	}
	out, err := k.dyn.Resource(k.resource).Namespace(namespace).Create(ctx, obj, opts)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (k *Kube) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	out, err := k.dyn.Resource(k.resource).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (k *Kube) List(ctx context.Context, namespace, labelSelector string) ([]unstructured.Unstructured, error) {
	list, err := k.jobs(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, translate(err)
	}
	return list.Items, nil
}

func (k *Kube) Delete(ctx context.Context, namespace, name string) error {
	policy := metav1.DeletePropagationForeground
	err := k.dyn.Resource(k.resource).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &policy})
	return translate(err)
}

func (k *Kube) ListPods(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	pods, err := k.core.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, translate(err)
	}
	names := make([]string, 0, len(pods.Items))
	for _, p := range pods.Items {
		names = append(names, p.Name)
	}
	return names, nil
}

func (k *Kube) ReadPodLog(ctx context.Context, namespace, pod string, opts PodLogOptions) (string, error) {
	lo := &corev1.PodLogOptions{Container: opts.Container}
	if opts.TailLines > 0 {
		lo.TailLines = ptr.To(opts.TailLines)
	}
	b, err := k.core.CoreV1().Pods(namespace).GetLogs(pod, lo).DoRaw(ctx)
	if err != nil {
		return "", translate(err)
	}
	return string(b), nil
}

// translate maps API server failures onto RemoteError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		s := status.Status()
		return &RemoteError{Status: int(s.Code), Reason: string(s.Reason), Message: s.Message}
	}
	return &RemoteError{Reason: "Unavailable", Message: err.Error()}
}
