package models

// Config represents the service configuration (config.yaml plus environment
// overrides applied in cmd/server).
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	Parser ParserConfig `yaml:"parser"`
	AI     AIConfig     `yaml:"ai"`
}

// ParserConfig tunes the deterministic extraction pipeline.
type ParserConfig struct {
	// UnconditionalActivityCodes are economic-activity codes accepted even
	// without nearby activity keywords. Historically "6201" appears in RUT
	// text without context, so it ships as the default.
	UnconditionalActivityCodes []string `yaml:"unconditional_activity_codes"`
}

// AIConfig configures the optional LLM fallback extractor. Disabled by
// default; the deterministic pipeline is always primary.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}
