package domain

// Searcher describes a search source in the catalogue exposed to the
// downstream tool. The tool renders one data-source option per descriptor.
type Searcher struct {
	ID      string `json:"id" toml:"id"`
	Name    string `json:"name" toml:"name"`
	Hint    string `json:"hint,omitempty" toml:"hint"`
	Tooltip string `json:"tooltip,omitempty" toml:"tooltip"`
}

// SearcherConfig is the per-searcher configuration entry. A searcher that is
// not Enabled is hidden from the catalogue and refuses searches. A non-empty
// Redirect points to an externally-hosted connector that dispatch proxies to
// instead of calling a local connector.
type SearcherConfig struct {
	Searcher
	Enabled  bool              `json:"-" toml:"enabled"`
	Redirect string            `json:"-" toml:"redirect"`
	Settings map[string]string `json:"-" toml:"settings"`
}
