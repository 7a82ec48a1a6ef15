// Package store is the system of record for MPIJob documents and pod logs.
//
//   - store.go: Store interface, RemoteError and helpers.
//   - kube.go: Kube, backed by the client-go dynamic client and clientset.
//   - restconfig.go: LoadRESTConfig (explicit path, default rules, in-cluster).
//   - memory.go: Memory, an in-process Store with hooks for tests.
//   - open.go: Open, which picks a backend by name.
//
// Every failure leaves the package as a *RemoteError so callers can map
// status codes without importing apimachinery.
package store
