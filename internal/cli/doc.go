// Package cli implements the mpijobctl command tree on cobra.
//
// Every command resolves its configuration in the root PersistentPreRunE
// and opens the store lazily, so help and completion work without a
// cluster. Process streams, environment, store and clock arrive through
// Deps.
package cli
