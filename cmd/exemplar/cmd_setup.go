package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/config"
)

// cmdInit initializes Exemplar for first-time use
func cmdInit() error {
	fmt.Println("Exemplar - First-Time Setup")
	fmt.Println("===========================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Creating ~/.exemplar directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("LLM Provider Setup")
	fmt.Println("------------------")
	fmt.Println("Generation uses DeepSeek, Claude, OpenAI or Ollama (local).")
	fmt.Println("Extraction works without any provider.")
	fmt.Println()

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, name := range []string{"deepseek", "claude"} {
		provider := cfg.LLM.Providers[name]
		if provider == nil {
			continue
		}
		if provider.APIKey != "" {
			fmt.Printf("%s API key: already configured ✓\n", name)
			continue
		}

		fmt.Printf("Enter %s API key (or press Enter to skip): ", name)
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if err := saveProviderKey(cfg, name, key); err != nil {
			fmt.Printf("  ⚠ Failed to save: %v\n", err)
		} else {
			fmt.Println("  ✓ Saved")
		}
	}

	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println("===============")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. exemplar extract problem.txt   # Extract cases locally")
	fmt.Println("  2. exemplar start                 # Start the daemon")
	fmt.Println("  3. exemplar generate \"...\"        # Generate a problem")
	fmt.Println()
	fmt.Println("For editor integration, configure MCP with the 'exemplar mcp' command.")

	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Exemplar Configuration")

	fmt.Println("\nDaemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nLLM:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	for _, name := range providerNames(cfg) {
		provider := cfg.LLM.Providers[name]
		if !provider.Enabled {
			continue
		}
		keyStatus := "✗"
		if provider.APIKey != "" || name == "ollama" {
			keyStatus = "✓"
		}
		fmt.Printf("  %s: model=%s key=%s\n", name, provider.Model, keyStatus)
	}

	fmt.Println("\nGenerator:")
	fmt.Printf("  max_tokens: %d\n", cfg.Generator.MaxTokens)
	fmt.Printf("  temperature: %.2f\n", cfg.Generator.Temperature)

	fmt.Println("\nStorage:")
	fmt.Printf("  backend: %s\n", cfg.Storage.Backend)

	fmt.Println("\nQueue:")
	fmt.Printf("  enabled: %t\n", cfg.Queue.Enabled)
	if cfg.Queue.Enabled {
		fmt.Printf("  workers: %d\n", cfg.Queue.Workers)
	}

	if len(cfg.Extraction.Strategies) > 0 {
		fmt.Println("\nExtraction:")
		fmt.Printf("  strategies: %s\n", strings.Join(cfg.Extraction.Strategies, ", "))
	}

	dir, _ := config.Dir()
	fmt.Printf("\nConfig path: %s\n", filepath.Join(dir, "config.yaml"))

	return nil
}

// cmdProvider manages LLM provider API keys
func cmdProvider(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Provider management commands:

  exemplar provider list              List configured providers
  exemplar provider set-key <name>    Set API key for a provider`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProviderList()
	case "set-key":
		if len(args) < 2 {
			return fmt.Errorf("provider name required")
		}
		return cmdProviderSetKey(args[1])
	default:
		return fmt.Errorf("unknown provider command: %s", args[0])
	}
}

func cmdProviderList() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configured LLM Providers:")
	for _, name := range providerNames(cfg) {
		provider := cfg.LLM.Providers[name]
		status := "disabled"
		if provider.Enabled {
			if provider.APIKey != "" || name == "ollama" {
				status = "ready"
			} else {
				status = "needs API key"
			}
		}

		isDefault := ""
		if name == cfg.LLM.DefaultProvider {
			isDefault = " (default)"
		}

		fmt.Printf("  %s%s\n", name, isDefault)
		fmt.Printf("    status: %s\n", status)
		fmt.Printf("    model:  %s\n", provider.Model)
		if provider.URL != "" {
			fmt.Printf("    url:    %s\n", provider.URL)
		}
		fmt.Println()
	}

	return nil
}

func cmdProviderSetKey(provider string) error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, ok := cfg.LLM.Providers[provider]; !ok {
		return fmt.Errorf("unknown provider: %s (valid: %s)", provider, strings.Join(providerNames(cfg), ", "))
	}
	if provider == "ollama" {
		fmt.Println("Ollama doesn't require an API key.")
		return nil
	}

	fmt.Printf("Enter %s API key: ", provider)
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := saveProviderKey(cfg, provider, key); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}

	fmt.Printf("✓ API key saved for %s\n", provider)
	fmt.Println("Restart the daemon for changes to take effect.")
	return nil
}

// saveProviderKey writes key for name while keeping the other saved keys
func saveProviderKey(cfg *config.LocalConfig, name, key string) error {
	secrets := make(map[string]string)
	for n, p := range cfg.LLM.Providers {
		if p.APIKey != "" {
			secrets[n] = p.APIKey
		}
	}
	secrets[name] = key
	if err := config.SaveSecrets(secrets); err != nil {
		return err
	}
	cfg.LLM.Providers[name].APIKey = key
	return nil
}

func providerNames(cfg *config.LocalConfig) []string {
	names := make([]string, 0, len(cfg.LLM.Providers))
	for name := range cfg.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
