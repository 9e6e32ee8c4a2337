// Package domain defines the core types of the search-connector service.
//
// This package is the hexagonal architecture's innermost layer. It holds
// the canonical output vocabulary and the request/response shapes:
//
//   - Entity: a node (or relationship edge) in the canonical graph
//   - Attribute: the closed attribute vocabulary entities may carry
//   - SearchResult / SearchResponse: the wire shapes returned to callers
//   - Searcher / SearcherConfig: the catalogue and per-source configuration
//   - ParseTerms: the shared forgiving query grammar
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, uuid
//   - Cannot Import: Any internal/ package
package domain
