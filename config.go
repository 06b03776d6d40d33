package main

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// uiConfig is the operator-local configuration. A missing or broken file
// falls back to defaults without complaint.
type uiConfig struct {
	Theme        string   `yaml:"theme,omitempty"`
	Language     string   `yaml:"language,omitempty"`
	UserID       string   `yaml:"user_id,omitempty"`
	FormsctlPath string   `yaml:"formsctl_path,omitempty"`
	ExportDir    string   `yaml:"export_dir,omitempty"`
	DefaultForm  string   `yaml:"default_form,omitempty"`
	Pinned       []string `yaml:"pinned,omitempty"`
}

func loadUIConfig() (*uiConfig, string) {
	configDir := resolveConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return &uiConfig{}, filepath.Join(configDir, "ui.yaml")
	}
	path := filepath.Join(configDir, "ui.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return &uiConfig{}, path
	}
	var cfg uiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &uiConfig{}, path
	}
	return &cfg, path
}

func saveUIConfig(cfg *uiConfig, path string) error {
	if cfg == nil {
		cfg = &uiConfig{}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *uiConfig) IsPinned(form string) bool {
	if c == nil {
		return false
	}
	for _, pinned := range c.Pinned {
		if pinned == form {
			return true
		}
	}
	return false
}

func (c *uiConfig) TogglePinned(form string) {
	if c == nil || strings.TrimSpace(form) == "" {
		return
	}
	for i, pinned := range c.Pinned {
		if pinned == form {
			c.Pinned = append(c.Pinned[:i], c.Pinned[i+1:]...)
			return
		}
	}
	c.Pinned = append(c.Pinned, form)
}

func (c *uiConfig) ResolvedExportDir() string {
	if c != nil && strings.TrimSpace(c.ExportDir) != "" {
		return c.ExportDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(home, "formdeck-exports")
}

func (c *uiConfig) ResolvedFormsctl() string {
	if c != nil && strings.TrimSpace(c.FormsctlPath) != "" {
		return c.FormsctlPath
	}
	return "formsctl"
}

func resolveConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "formdeck")
}
