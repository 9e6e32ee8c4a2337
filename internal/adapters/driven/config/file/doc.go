// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - SearcherConfigStore: TOML-based searcher configuration with hot reload
package file
