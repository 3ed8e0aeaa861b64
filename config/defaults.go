package config

import "time"

// Default corpus layout, matching and aggregation settings. These values
// reflect the manually maintained company workbooks the engine was built
// for and can be overridden through Load (env or YAML).

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 4
	DefaultMaxOpenWorkbooks      = 2

	// Corpus layout
	DefaultHeaderScanRows    = 10
	DefaultIdentifierColumn  = "RIC"
	DefaultPrimaryName       = "Holding"
	DefaultSecondaryName     = "Universe"
	DefaultPrimaryCategory   = "Sub-Industry"
	DefaultSecondaryCategory = "Focus"
	DefaultSectorSeparator   = " - "

	// Entity matching
	DefaultMinNameQueryLen  = 4
	DefaultMaxShortNameLen  = 2
	DefaultPlaceholderName  = "Company_"
	DefaultPeerPageSize     = 50
	DefaultProviderFieldTag = "TR."
)

const (
	// Outlier trimming
	DefaultLowerPercentile = 0.05
	DefaultUpperPercentile = 0.95
	DefaultMinGroupSample  = 2
	DefaultMinSectorSample = 5
)

const (
	// Timeouts
	DefaultOperationTimeout      = 2 * time.Minute
	DefaultAcquireRequestTimeout = 2 * time.Second
)

// DefaultSheetFilter lists sheet-name substrings that can hold peer tables.
var DefaultSheetFilter = []string{"equity", "financial", "growth"}

// DefaultHeaderKeywords are tokens that promote a decorative cell above the
// header row to a column name when the header cell itself is empty.
var DefaultHeaderKeywords = []string{
	"ISIN", "FLOAT", "FREE", "MARKET", "CURRENCY",
	"P/E", "P/B", "ROE", "ROA", "EBIT", "EBITDA",
}

// DefaultSentinels are cell texts that mean "no data" (compared case-insensitively).
var DefaultSentinels = []string{
	"the record could not be found",
	"record could not be found",
	"n/a",
	"#n/a",
	"na",
	"nan",
	"null",
	"none",
	"error code: 0",
	"#value!",
	"#ref!",
	"#div/0!",
}
