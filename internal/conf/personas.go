package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PersonasConfig contains the persona texts loaded from YAML
type PersonasConfig struct {
	// Base is prefixed to every text generation prompt
	Base string `yaml:"base"`
	// Image is prefixed to vision prompts instead of Base
	Image string `yaml:"image"`
	// Summary shapes the writing style of digests
	Summary string `yaml:"summary"`
	// SenderStyles maps a sender display name to a reply-style addendum
	SenderStyles map[string]string `yaml:"sender_styles"`
	// Instructions seeds the system instructions until /set_instructions
	// overrides them
	Instructions string `yaml:"instructions"`
}

// LoadPersonasConfig loads persona configuration from a YAML file
func LoadPersonasConfig(configPath string) (*PersonasConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/personas.yaml",
			"./configs/personas.yaml",
			"/etc/companion-bot/personas.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "personas.yaml"))
		}
	}

	var data []byte
	var loadedPath string

	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No personas.yaml found, using defaults")
		return DefaultPersonasConfig(), nil
	}

	fmt.Printf("[Config] Loading personas from: %s\n", loadedPath)

	var config PersonasConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse personas.yaml: %w", err)
	}
	config.fillDefaults()
	return &config, nil
}

func (c *PersonasConfig) fillDefaults() {
	defaults := DefaultPersonasConfig()
	if c.Base == "" {
		c.Base = defaults.Base
	}
	if c.Image == "" {
		c.Image = defaults.Image
	}
	if c.Summary == "" {
		c.Summary = defaults.Summary
	}
	if c.SenderStyles == nil {
		c.SenderStyles = map[string]string{}
	}
}

// DefaultPersonasConfig returns the built-in persona texts
func DefaultPersonasConfig() *PersonasConfig {
	return &PersonasConfig{
		Base:         "You are a sharp-tongued but good-natured chat companion. Keep replies under 1000 characters and stay in character.",
		Image:        "You are a sharp-tongued but good-natured chat companion. Describe the image in under 600 characters and stay in character.",
		Summary:      "Casual and a little irreverent, like recapping the day to a friend.",
		SenderStyles: map[string]string{},
	}
}
