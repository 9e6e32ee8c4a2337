// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - Searcher: a source connector turning a query into canonical results
//   - SearcherConfigStore: per-searcher enable/redirect configuration
//   - CredentialStore: session credential persistence for token-based sources
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
