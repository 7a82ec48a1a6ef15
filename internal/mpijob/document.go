package mpijob

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utiljson "k8s.io/apimachinery/pkg/util/json"

	"mpijobctl/internal/common/fsutil"
	"mpijobctl/pkg/types"
)

// DecodeDocument parses a YAML or JSON job document.
func DecodeDocument(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrValidation("job document is empty")
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ErrValidation("decode job document: %v", err)
	}
	if doc == nil {
		return nil, ErrValidation("job document is not a mapping")
	}
	return normalize(doc)
}

// ReadDocumentFile reads and decodes a YAML or JSON job document. A
// leading ~ in path expands to the home directory.
func ReadDocumentFile(path string) (map[string]any, error) {
	data, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job document: %w", err)
	}
	return DecodeDocument(data)
}

// normalize converts v into the JSON-compatible shapes unstructured
// objects require: map[string]any, []any, string, bool, int64, float64.
func normalize(v any) (map[string]any, error) {
	b, err := utiljson.Marshal(v)
	if err != nil {
		return nil, ErrValidation("encode job document: %v", err)
	}
	var out map[string]any
	if err := utiljson.Unmarshal(b, &out); err != nil {
		return nil, ErrValidation("encode job document: %v", err)
	}
	return out, nil
}

// applyDocumentDefaults fills apiVersion, kind and metadata.namespace when
// the document leaves them out.
func applyDocumentDefaults(u *unstructured.Unstructured, namespace string) {
	if u.GetAPIVersion() == "" {
		u.SetAPIVersion(types.APIVersion)
	}
	if u.GetKind() == "" {
		u.SetKind(types.Kind)
	}
	if u.GetNamespace() == "" {
		u.SetNamespace(namespace)
	}
}

// decodeDocument converts an unstructured job into the typed view.
func decodeDocument(u *unstructured.Unstructured) (*types.MPIJob, error) {
	var job types.MPIJob
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, &job); err != nil {
		return nil, ErrValidation("decode job document: %v", err)
	}
	return &job, nil
}
