// Package connectors provides implementations of the Searcher interface
// for the supported OSINT sources. Each connector knows how to query one
// upstream API and normalize its records into the canonical entity graph.
//
// Shared plumbing lives at this level: the sequential term/page fetch loop
// with its partial-failure policy, and a thin JSON API client used by the
// key-authenticated sources. Connectors are registered with the searcher
// registry at startup.
package connectors
