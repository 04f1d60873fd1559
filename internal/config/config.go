package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMaxPages is the page budget of a crawl.
	DefaultMaxPages = 10

	// DefaultTopK is the number of keywords kept per page.
	DefaultTopK = 10

	// DefaultMaxNGram is the longest phrase, in words, that is considered.
	DefaultMaxNGram = 2

	// DefaultDedupThreshold is the similarity above which a lower-ranked
	// phrase is dropped as a near duplicate.
	DefaultDedupThreshold = 0.3

	// DefaultWorkers fetches one page at a time.
	DefaultWorkers = 1

	// DefaultDelay is the minimum interval between two requests.
	DefaultDelay = 1 * time.Second

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps the bytes read from one response.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultOutputFile is where the ranking is written.
	DefaultOutputFile = "keywords.csv"

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "sitekeywords/1.0 (+https://github.com/nao1215/sitekeywords)"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitekeywords"
)

// Output formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats.
var Formats = []string{FormatCSV, FormatJSON, FormatMarkdown}

// Config holds all options of one crawl. It is populated from CLI flags and
// the configuration file and passed down explicitly.
type Config struct {
	// Seed is the URL the crawl starts from.
	Seed string

	// MaxPages is the maximum number of pages visited.
	MaxPages int

	// TopK is the number of keywords extracted per page.
	TopK int

	// MaxNGram is the longest candidate phrase in words.
	MaxNGram int

	// DedupThreshold is the similarity above which a candidate is dropped.
	// It must lie in [0, 1].
	DedupThreshold float64

	// Workers is the number of pages fetched concurrently.
	Workers int

	// Delay is the minimum interval between requests. Zero disables
	// throttling.
	Delay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of response bytes read per page.
	MaxBodySize int64

	// Format selects the report writer.
	Format string

	// OutputFile is the report path. "-" writes to stdout.
	OutputFile string

	// Verbose enables debug logging.
	Verbose bool

	// Quiet disables the progress spinner.
	Quiet bool

	// ConfigFilePath is an explicit configuration file path.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings of the configuration file.
	SiteConfigs *File

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores the finished crawl in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxPages:       DefaultMaxPages,
		TopK:           DefaultTopK,
		MaxNGram:       DefaultMaxNGram,
		DedupThreshold: DefaultDedupThreshold,
		Workers:        DefaultWorkers,
		Delay:          DefaultDelay,
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		Format:         FormatCSV,
		OutputFile:     DefaultOutputFile,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory of the application.
// On Linux: ~/.local/share/sitekeywords
// On macOS: ~/Library/Application Support/sitekeywords
// On Windows: %LOCALAPPDATA%\sitekeywords
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Site returns the configuration file settings that apply to the seed.
// It returns the zero SiteConfig when no file was loaded.
func (c *Config) Site() SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(HostOf(c.Seed))
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}

	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}

	if c.TopK < 1 {
		return ErrInvalidTopK
	}

	if c.MaxNGram < 1 {
		return ErrInvalidNGram
	}

	if c.DedupThreshold < 0 || c.DedupThreshold > 1 {
		return ErrInvalidDedupThreshold
	}

	if c.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if !slices.Contains(Formats, c.Format) {
		return ErrUnknownFormat
	}

	return nil
}
