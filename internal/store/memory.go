package store

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"

	"mpijobctl/pkg/types"
)

// Store operation names used by Memory.Calls and Memory.FailOn.
const (
	OpCreate     = "create"
	OpGet        = "get"
	OpList       = "list"
	OpDelete     = "delete"
	OpListPods   = "listPods"
	OpReadPodLog = "readPodLog"
)

type memPod struct {
	labels labels.Set
	log    string
	err    error
}

// Memory is an in-process Store. It backs tests and local previews.
type Memory struct {
	mu      sync.Mutex
	objs    map[string]*unstructured.Unstructured
	pods    map[string]map[string]*memPod // namespace -> pod name -> pod
	calls   map[string]int
	fail    map[string]error
	linger  map[string]int
	lingerN int
	seq     int

	// BeforeGet runs before every Get with the 1-based call count, outside
	// the store lock. Tests use it to script status changes.
	BeforeGet func(namespace, name string, n int)
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		objs:   make(map[string]*unstructured.Unstructured),
		pods:   make(map[string]map[string]*memPod),
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		linger: make(map[string]int),
	}
}

func key(namespace, name string) string { return namespace + "/" + name }

// Put stores obj as-is, replacing any previous object with the same name.
func (m *Memory) Put(obj *unstructured.Unstructured) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key(obj.GetNamespace(), obj.GetName())] = obj.DeepCopy()
}

// SetStatus replaces the status of a stored job.
func (m *Memory) SetStatus(namespace, name string, status map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objs[key(namespace, name)]
	if !ok {
		return NotFound(types.Kind, namespace, name)
	}
	if status == nil {
		unstructured.RemoveNestedField(obj.Object, "status")
		return nil
	}
	return unstructured.SetNestedMap(obj.Object, status, "status")
}

// AddPod registers a pod and the log it serves.
func (m *Memory) AddPod(namespace, name string, podLabels map[string]string, log string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pods[namespace] == nil {
		m.pods[namespace] = make(map[string]*memPod)
	}
	m.pods[namespace][name] = &memPod{labels: labels.Set(podLabels), log: log}
}

// FailPodLog makes log reads of one pod fail with err.
func (m *Memory) FailPodLog(namespace, name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.pods[namespace][name]; p != nil {
		p.err = err
	}
}

// FailOn makes every call of op return err until cleared with a nil err.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// LingerAfterDelete keeps deleted objects visible to the next n Gets, the
// way finalizers delay removal on a real API server.
func (m *Memory) LingerAfterDelete(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lingerN = n
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) enter(op string) error {
	m.calls[op]++
	return m.fail[op]
}

func (m *Memory) Create(ctx context.Context, namespace string, obj *unstructured.Unstructured, dryRun bool) (*unstructured.Unstructured, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreate); err != nil {
		return nil, err
	}
	out := obj.DeepCopy()
	out.SetNamespace(namespace)
	if out.GetName() == "" {
		if out.GetGenerateName() == "" {
			return nil, &RemoteError{Status: http.StatusUnprocessableEntity, Reason: "Invalid", Message: "metadata.name or metadata.generateName is required"}
		}
		m.seq++
		out.SetName(fmt.Sprintf("%s%05d", out.GetGenerateName(), m.seq))
	}
	k := key(namespace, out.GetName())
	if _, exists := m.objs[k]; exists {
		return nil, &RemoteError{Status: http.StatusConflict, Reason: "AlreadyExists", Message: fmt.Sprintf("%s %q already exists", types.Kind, out.GetName())}
	}
	out.SetCreationTimestamp(metav1.NewTime(time.Now().UTC().Truncate(time.Second)))
	if dryRun {
		return out, nil
	}
	m.objs[k] = out.DeepCopy()
	return out, nil
}

func (m *Memory) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	m.mu.Lock()
	if err := m.enter(OpGet); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	n := m.calls[OpGet]
	hook := m.BeforeGet
	m.mu.Unlock()

	if hook != nil {
		hook(namespace, name, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(namespace, name)
	if obj, ok := m.objs[k]; ok {
		return obj.DeepCopy(), nil
	}
	if left, ok := m.linger[k]; ok && left > 0 {
		m.linger[k] = left - 1
		return &unstructured.Unstructured{Object: map[string]any{
			"apiVersion": types.APIVersion,
			"kind":       types.Kind,
			"metadata":   map[string]any{"name": name, "namespace": namespace},
		}}, nil
	}
	return nil, NotFound(types.Kind, namespace, name)
}

func (m *Memory) List(ctx context.Context, namespace, labelSelector string) ([]unstructured.Unstructured, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	sel, err := labels.Parse(labelSelector)
	if err != nil {
		return nil, &RemoteError{Status: http.StatusBadRequest, Reason: "BadRequest", Message: err.Error()}
	}
	keys := make([]string, 0, len(m.objs))
	for k, obj := range m.objs {
		if namespace != "" && obj.GetNamespace() != namespace {
			continue
		}
		if !sel.Matches(labels.Set(obj.GetLabels())) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]unstructured.Unstructured, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m.objs[k].DeepCopy())
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, namespace, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	k := key(namespace, name)
	if _, ok := m.objs[k]; !ok {
		return NotFound(types.Kind, namespace, name)
	}
	delete(m.objs, k)
	if m.lingerN > 0 {
		m.linger[k] = m.lingerN
	}
	return nil
}

func (m *Memory) ListPods(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListPods); err != nil {
		return nil, err
	}
	sel, err := labels.Parse(labelSelector)
	if err != nil {
		return nil, &RemoteError{Status: http.StatusBadRequest, Reason: "BadRequest", Message: err.Error()}
	}
	var names []string
	for name, p := range m.pods[namespace] {
		if sel.Matches(p.labels) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) ReadPodLog(ctx context.Context, namespace, pod string, opts PodLogOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpReadPodLog); err != nil {
		return "", err
	}
	p := m.pods[namespace][pod]
	if p == nil {
		return "", NotFound("Pod", namespace, pod)
	}
	if p.err != nil {
		return "", p.err
	}
	return tail(p.log, opts.TailLines), nil
}

// tail keeps the last n lines of s when n is positive.
func tail(s string, n int64) string {
	if n <= 0 {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if int64(len(lines)) <= n {
		return s
	}
	return strings.Join(lines[int64(len(lines))-n:], "")
}
