// Copyright Precisionmatics Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "structure-finder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SearchURL is the RCSB search endpoint. Overridable for tests.
	SearchURL string `json:"search_url" yaml:"search_url"`

	// CacheSize bounds the per-query memoization cache (default 128).
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// CacheTTL is how long a memoized result stays valid (default 15m).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// EnrichConfig holds settings for the metadata enrichment stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataURL is the base of the RCSB data API (entry and polymer_entity
	// resources hang off it). Overridable for tests.
	DataURL string `json:"data_url" yaml:"data_url"`

	// Concurrency is the worker pool size for per-entry fetch chains.
	// Clamped to the 1..20 range.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// AcquisitionConfig holds settings for the structure file download stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// FilesURL is the base of the structure file download endpoint.
	FilesURL string `json:"files_url" yaml:"files_url"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// StructuresDir is the base directory for structures (contains raw/, metadata/).
	StructuresDir string `json:"structures_dir" yaml:"structures_dir"`
}

// ArchiveConfig holds settings for zip bundle assembly.
type ArchiveConfig struct {
	HTTPConfig `yaml:",inline"`

	// FilesURL is the base of the structure file download endpoint.
	FilesURL string `json:"files_url" yaml:"files_url"`

	// LocalDir, when set, is consulted for already-acquired .pdb files
	// before going to the network.
	LocalDir string `json:"local_dir" yaml:"local_dir"`
}

// LibraryConfig holds settings for the local structure catalog.
type LibraryConfig struct {
	// LibraryDir is the base directory for the catalog (contains index/).
	LibraryDir string `json:"library_dir" yaml:"library_dir"`

	// StructuresDir is the base directory the catalog indexes.
	StructuresDir string `json:"structures_dir" yaml:"structures_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the dashboard API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxResolution bounds the resolution ceiling accepted from clients.
	MaxResolution float64 `json:"max_resolution" yaml:"max_resolution"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Enrich      EnrichConfig      `json:"enrich" yaml:"enrich"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Archive     ArchiveConfig     `json:"archive" yaml:"archive"`
	Library     LibraryConfig     `json:"library" yaml:"library"`
	Server      ServerConfig      `json:"server" yaml:"server"`
}
