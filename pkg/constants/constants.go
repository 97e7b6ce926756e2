// Package constants provides shared constants for the deal-calculator application.
package constants

// DateTimeLayout is the month format used for mortgage schedule labels.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CurrencyDecimalPlaces is the number of decimal places kept after
	// rounding currency amounts (whole shekels)
	CurrencyDecimalPlaces = 0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// FullShare is the share percentage of a sole owner
	FullShare = 100.0

	// MaxTermMonths is the longest mortgage term accepted, 50 years
	MaxTermMonths = 600

	// CurrencyTolerance is the tolerance for currency comparisons
	CurrencyTolerance = 0.01

	// ShareTolerance is the tolerance used when checking that buyer shares sum to 100
	ShareTolerance = 0.01

	// DefaultVATRate is used when the VAT rate source is unavailable (18%)
	DefaultVATRate = 0.18

	// CurrencySymbol prefixes formatted currency amounts
	CurrencySymbol = "₪"
)

// Property types
const (
	// PropertyTypeResidential applies the eligibility-based bracket tables
	PropertyTypeResidential = "residential"
	// PropertyTypeLand taxes every buyer under the flat land table
	PropertyTypeLand = "land"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"
	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
	// OutputFormatHTML is the printable HTML report
	OutputFormatHTML = "html"
	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default deal file name
	DefaultConfigFile = "deal.yaml"
	// ExampleConfigFile is the example deal file name
	ExampleConfigFile = "deal.yaml.example"
	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
	// EnvPrefix is the prefix for environment overrides of deal file values
	EnvPrefix = "DEAL"
	// DefaultEnvFile is the dotenv file read before the deal file
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"
	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
	// DefaultMetricsPath is where Prometheus metrics are exposed
	DefaultMetricsPath = "/metrics"
	// DefaultVATTimeoutSeconds bounds a single VAT rate lookup
	DefaultVATTimeoutSeconds = 5
)
