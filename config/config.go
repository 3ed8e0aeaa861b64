package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/vinodismyname/peerxcel/pkg/validation"
)

// EnvPrefix is the prefix for every environment variable read by Load.
const EnvPrefix = "PEERXCEL"

// Config is the complete runtime configuration for one engine instance.
type Config struct {
	DataDir     string   `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	AllowedDirs []string `yaml:"allowed_dirs" envconfig:"ALLOWED_DIRS"`
	LogLevel    string   `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error disabled"`

	// ProviderFile is an optional YAML table served as the metric provider.
	ProviderFile string `yaml:"provider_file" envconfig:"PROVIDER_FILE"`

	Layout    LayoutConfig    `yaml:"layout" envconfig:"LAYOUT"`
	Matching  MatchingConfig  `yaml:"matching" envconfig:"MATCHING"`
	Aggregate AggregateConfig `yaml:"aggregate" envconfig:"AGGREGATE"`
	Limits    LimitsConfig    `yaml:"limits" envconfig:"LIMITS"`
}

// LayoutConfig names the columns that carry identity and categories.
type LayoutConfig struct {
	HeaderScanRows    int      `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"min=1,max=100"`
	IdentifierColumn  string   `yaml:"identifier_column" envconfig:"IDENTIFIER_COLUMN" validate:"required"`
	PrimaryName       string   `yaml:"primary_name" envconfig:"PRIMARY_NAME" validate:"required"`
	SecondaryName     string   `yaml:"secondary_name" envconfig:"SECONDARY_NAME"`
	PrimaryCategory   string   `yaml:"primary_category" envconfig:"PRIMARY_CATEGORY" validate:"required"`
	SecondaryCategory string   `yaml:"secondary_category" envconfig:"SECONDARY_CATEGORY"`
	SectorSeparator   string   `yaml:"sector_separator" envconfig:"SECTOR_SEPARATOR"`
	SheetFilter       []string `yaml:"sheet_filter" envconfig:"SHEET_FILTER"`
	PriorityCategory  string   `yaml:"priority_category" envconfig:"PRIORITY_CATEGORY"`
}

// MatchingConfig controls column and entity matching heuristics.
type MatchingConfig struct {
	HeaderKeywords     []string `yaml:"header_keywords" envconfig:"HEADER_KEYWORDS"`
	Sentinels          []string `yaml:"sentinels" envconfig:"SENTINELS"`
	MinNameQueryLen    int      `yaml:"min_name_query_len" envconfig:"MIN_NAME_QUERY_LEN" validate:"min=1"`
	MaxShortNameLen    int      `yaml:"max_short_name_len" envconfig:"MAX_SHORT_NAME_LEN" validate:"min=0"`
	ForceIncludeOrigin bool     `yaml:"force_include_origin" envconfig:"FORCE_INCLUDE_ORIGIN"`
	ProviderFieldTag   string   `yaml:"provider_field_tag" envconfig:"PROVIDER_FIELD_TAG"`
}

// AggregateConfig holds the outlier-trimming thresholds.
type AggregateConfig struct {
	LowerPercentile float64 `yaml:"lower_percentile" envconfig:"LOWER_PERCENTILE" validate:"gte=0,lt=1"`
	UpperPercentile float64 `yaml:"upper_percentile" envconfig:"UPPER_PERCENTILE" validate:"gt=0,lte=1,gtfield=LowerPercentile"`
	MinGroupSample  int     `yaml:"min_group_sample" envconfig:"MIN_GROUP_SAMPLE" validate:"min=1"`
	MinSectorSample int     `yaml:"min_sector_sample" envconfig:"MIN_SECTOR_SAMPLE" validate:"min=1"`
}

// LimitsConfig bounds resource usage.
type LimitsConfig struct {
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" envconfig:"MAX_CONCURRENT_REQUESTS" validate:"min=1"`
	MaxOpenWorkbooks      int `yaml:"max_open_workbooks" envconfig:"MAX_OPEN_WORKBOOKS" validate:"min=1"`
}

// Default returns a Config populated with the package defaults.
func Default() Config {
	return Config{
		DataDir:  "data/excel_data",
		LogLevel: "info",
		Layout: LayoutConfig{
			HeaderScanRows:    DefaultHeaderScanRows,
			IdentifierColumn:  DefaultIdentifierColumn,
			PrimaryName:       DefaultPrimaryName,
			SecondaryName:     DefaultSecondaryName,
			PrimaryCategory:   DefaultPrimaryCategory,
			SecondaryCategory: DefaultSecondaryCategory,
			SectorSeparator:   DefaultSectorSeparator,
			SheetFilter:       append([]string(nil), DefaultSheetFilter...),
		},
		Matching: MatchingConfig{
			HeaderKeywords:     append([]string(nil), DefaultHeaderKeywords...),
			Sentinels:          append([]string(nil), DefaultSentinels...),
			MinNameQueryLen:    DefaultMinNameQueryLen,
			MaxShortNameLen:    DefaultMaxShortNameLen,
			ForceIncludeOrigin: true,
			ProviderFieldTag:   DefaultProviderFieldTag,
		},
		Aggregate: AggregateConfig{
			LowerPercentile: DefaultLowerPercentile,
			UpperPercentile: DefaultUpperPercentile,
			MinGroupSample:  DefaultMinGroupSample,
			MinSectorSample: DefaultMinSectorSample,
		},
		Limits: LimitsConfig{
			MaxConcurrentRequests: DefaultMaxConcurrentRequests,
			MaxOpenWorkbooks:      DefaultMaxOpenWorkbooks,
		},
	}
}

// Load reads configuration from the environment and, when
// PEERXCEL_CONFIG_FILE names an existing file, from YAML. Environment values
// take precedence over the file.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: load file %q: %w", path, err)
		}
	}

	// Fields without a matching variable keep their default or file value.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg.fillLists()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints using the validator tags.
func (c *Config) Validate() error {
	if err := validation.Validator().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) fillLists() {
	if len(c.Matching.HeaderKeywords) == 0 {
		c.Matching.HeaderKeywords = append([]string(nil), DefaultHeaderKeywords...)
	}
	if len(c.Matching.Sentinels) == 0 {
		c.Matching.Sentinels = append([]string(nil), DefaultSentinels...)
	}
}
