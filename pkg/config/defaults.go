package config

// Storage defaults.
const (
	DefaultStoragePath     = "tree.bin"
	DefaultStorageCompress = false
	DefaultStorageMaxNodes = 0
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = FormatText
)

// Metrics defaults.
const DefaultMetricsAddr = ":9464"

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultEnvironment  = ""
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)
