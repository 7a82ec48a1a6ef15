// Package resources parses, scales and formats the CPU, memory and
// accelerator quantities attached to MPIJob replicas.
//
// Totals are for display. Submitted job documents always carry the
// user's original strings.
package resources
