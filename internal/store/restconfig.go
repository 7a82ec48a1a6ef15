package store

import (
	"errors"
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"mpijobctl/internal/common/fsutil"
)

// ErrNoKubeconfig is returned when no connection settings can be found.
var ErrNoKubeconfig = errors.New("could not load kubeconfig: specify a valid path or run from within a Kubernetes cluster")

// LoadRESTConfig resolves connection settings. An explicit kubeconfig path
// must load. Without one, the default loading rules ($KUBECONFIG,
// ~/.kube/config) are tried first and the in-cluster service account last.
func LoadRESTConfig(kubeconfig, context string) (*rest.Config, error) {
	if kubeconfig != "" {
		path, err := fsutil.RegularFile(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig %s: %w", kubeconfig, err)
		}
		cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: path},
			&clientcmd.ConfigOverrides{CurrentContext: context},
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig %s: %w", kubeconfig, err)
		}
		return cfg, nil
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{CurrentContext: context},
	).ClientConfig()
	if err == nil {
		return cfg, nil
	}
	if cfg, ierr := rest.InClusterConfig(); ierr == nil {
		return cfg, nil
	}
	return nil, ErrNoKubeconfig
}
