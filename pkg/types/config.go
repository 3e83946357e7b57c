// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "edinet-facts/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// EdinetConfig holds settings for the EDINET API client.
type EdinetConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root (default https://api.edinet-fsa.go.jp/api/v2).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the EDINET subscription key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestInterval is the minimum spacing between API calls (default 1s).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`

	// MaxRetries bounds retries on rate limiting, server errors and dropped connections (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// AcquisitionConfig holds settings for the fetch stage.
type AcquisitionConfig struct {
	// ZipDir receives downloaded <secCode>_<docID>.zip archives.
	ZipDir string `json:"zip_dir" yaml:"zip_dir" mapstructure:"zip_dir"`
}

// UnpackConfig holds settings for archive extraction.
type UnpackConfig struct {
	// ZipDir is scanned for archives.
	ZipDir string `json:"zip_dir" yaml:"zip_dir" mapstructure:"zip_dir"`

	// CSVDir receives the extracted filing exports.
	CSVDir string `json:"csv_dir" yaml:"csv_dir" mapstructure:"csv_dir"`

	// MemberPrefix selects the archive member to extract (default "XBRL_TO_CSV/jpcrp").
	MemberPrefix string `json:"member_prefix" yaml:"member_prefix" mapstructure:"member_prefix"`

	// KeepArchives disables deletion of archives after extraction.
	KeepArchives bool `json:"keep_archives" yaml:"keep_archives" mapstructure:"keep_archives"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// CSVDir is scanned for filing exports.
	CSVDir string `json:"csv_dir" yaml:"csv_dir" mapstructure:"csv_dir"`

	// JSONDir receives the per-company JSON records.
	JSONDir string `json:"json_dir" yaml:"json_dir" mapstructure:"json_dir"`

	// RegistryFile replaces the built-in concept table when set.
	RegistryFile string `json:"registry_file,omitempty" yaml:"registry_file,omitempty" mapstructure:"registry_file"`
}

// IndexBackend selects the security-code index implementation.
type IndexBackend string

const (
	IndexJSON   IndexBackend = "json"
	IndexSQLite IndexBackend = "sqlite"
	IndexMemory IndexBackend = "memory"
)

// IndexConfig holds settings for the security-code index.
type IndexConfig struct {
	// Backend is json, sqlite or memory.
	Backend IndexBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the index file (JSON) or database (SQLite).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ChartConfig holds settings for chart rendering.
type ChartConfig struct {
	// Enabled renders a chart for every processed filing.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir receives rendered PNG files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Width and Height are the image size in pixels.
	Width  int `json:"width" yaml:"width" mapstructure:"width"`
	Height int `json:"height" yaml:"height" mapstructure:"height"`

	// FontFile is a TrueType font with Japanese glyphs. The built-in
	// face is used when empty.
	FontFile string `json:"font_file,omitempty" yaml:"font_file,omitempty" mapstructure:"font_file"`
}

// ServerConfig holds settings for the web front end.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ChartTTL is how long a rendered chart stays available (default 5m).
	ChartTTL time.Duration `json:"chart_ttl" yaml:"chart_ttl" mapstructure:"chart_ttl"`

	// AllowOrigins lists CORS origins.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`

	// MaxUploadBytes caps uploaded filing exports.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LogConfig selects the logger mode.
type LogConfig struct {
	// Mode is "development" or "production".
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// Config groups all stage configurations.
type Config struct {
	Edinet      EdinetConfig      `json:"edinet" yaml:"edinet" mapstructure:"edinet"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Unpack      UnpackConfig      `json:"unpack" yaml:"unpack" mapstructure:"unpack"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Index       IndexConfig       `json:"index" yaml:"index" mapstructure:"index"`
	Chart       ChartConfig       `json:"chart" yaml:"chart" mapstructure:"chart"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when no config file is present.
// The directory names follow the project layout created by `mage init`.
func DefaultConfig() Config {
	return Config{
		Edinet: EdinetConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "edinet-facts/0.1",
			},
			BaseURL:         "https://api.edinet-fsa.go.jp/api/v2",
			RequestInterval: time.Second,
			MaxRetries:      3,
		},
		Acquisition: AcquisitionConfig{ZipDir: "zips"},
		Unpack: UnpackConfig{
			ZipDir:       "zips",
			CSVDir:       "csv",
			MemberPrefix: "XBRL_TO_CSV/jpcrp",
		},
		Extraction: ExtractionConfig{
			CSVDir:  "csv",
			JSONDir: "json_file",
		},
		Index: IndexConfig{
			Backend: IndexJSON,
			Path:    "index/sec_codes.json",
		},
		Chart: ChartConfig{
			Dir:    "charts",
			Width:  900,
			Height: 700,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ChartTTL:       5 * time.Minute,
			AllowOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			MaxUploadBytes: 64 << 20,
		},
		Log: LogConfig{Mode: "development"},
	}
}
