package llm

// LLMRegistry is the registry surface used by the generator and daemon
type LLMRegistry interface {
	// List returns all registered provider names
	List() []string

	// Default returns the default provider
	Default() (Provider, error)

	// Get retrieves a provider by name
	Get(name string) (Provider, error)
}

var _ LLMRegistry = (*Registry)(nil)
