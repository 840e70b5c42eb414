package model

import "time"

const (
	// DefaultWikidataEndpoint is the Wikidata action API
	DefaultWikidataEndpoint = "https://www.wikidata.org/w/api.php"
	// DefaultWikipediaEndpoint is the English Wikipedia action API
	DefaultWikipediaEndpoint = "https://en.wikipedia.org/w/api.php"
)

// Config holds the complete wikiqid configuration
type Config struct {
	HTTP      HTTPConfig     `yaml:"http" mapstructure:"http"`
	Wikidata  EndpointConfig `yaml:"wikidata" mapstructure:"wikidata"`
	Wikipedia EndpointConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	Resolve   ResolveConfig  `yaml:"resolve" mapstructure:"resolve"`
	Output    OutputConfig   `yaml:"output" mapstructure:"output"`
	Tracing   TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
}

// HTTPConfig configures the outbound HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`               // Per-request timeout
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`         // Wikimedia rejects requests without one
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"` // Max response bytes to read
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
}

// EndpointConfig points a client at an action API
type EndpointConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// ResolveConfig selects the resolution variant
type ResolveConfig struct {
	FollowRedirects bool `yaml:"follow_redirects" mapstructure:"follow_redirects"` // false = direct variant
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// TracingConfig controls OpenTelemetry span export
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint,omitempty" mapstructure:"otlp_endpoint"` // Empty exports to stderr
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "wikiqid/0.1 (+https://github.com/ppiankov/wikiqid)",
			MaxBodyBytes: 2_000_000,
		},
		Wikidata: EndpointConfig{
			Endpoint: DefaultWikidataEndpoint,
		},
		Wikipedia: EndpointConfig{
			Endpoint: DefaultWikipediaEndpoint,
		},
		Resolve: ResolveConfig{
			FollowRedirects: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
	}
}

// Variant returns the resolution variant selected by the config
func (c *Config) Variant() Variant {
	if c.Resolve.FollowRedirects {
		return VariantFollow
	}
	return VariantDirect
}
