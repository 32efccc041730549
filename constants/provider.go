package constants

// ProviderKind identifies a concrete backend family. Discovery is the only
// place that maps a discovered model name or credential to a kind.
type ProviderKind string

const (
	// ProviderLlamaCpp runs generation over weight files on the local disk.
	ProviderLlamaCpp ProviderKind = "llamacpp"
	// ProviderOllama talks to a local-network generation endpoint.
	ProviderOllama ProviderKind = "ollama"
	// ProviderGemini talks to the hosted API under a free-tier quota.
	ProviderGemini ProviderKind = "gemini"
)

// StrategyName identifies a provider-sequencing strategy.
type StrategyName string

const (
	StrategyAuto   StrategyName = "auto"
	StrategyLocal  StrategyName = "local"
	StrategyCloud  StrategyName = "cloud"
	StrategyHybrid StrategyName = "hybrid"
)

// AllowedExtensions holds the file extensions the ingest watcher picks up.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
	"heif": {},
}
