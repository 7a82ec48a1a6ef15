package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendKube   = "kube"
	BackendMemory = "memory"
)

// Open builds the Store named by backend. An empty backend means kube.
func Open(backend, kubeconfig, context string) (Store, error) {
	switch backend {
	case "", BackendKube:
		cfg, err := LoadRESTConfig(kubeconfig, context)
		if err != nil {
			return nil, err
		}
		return NewKubeForConfig(cfg)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
