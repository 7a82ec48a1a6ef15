// Package fsutil resolves the user-supplied paths of config files,
// kubeconfigs and job documents.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/.kube/config
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// RegularFile expands path and checks that it names a regular file. The
// returned path is the expanded one.
func RegularFile(path string) (string, error) {
	p, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", p)
	}
	return p, nil
}

// ReadFile reads the file at path after expanding a leading '~'.
func ReadFile(path string) ([]byte, error) {
	p, err := RegularFile(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
