// Package config loads user settings and the registry of accounts, projects
// and linked local repositories.
//
// Settings are layered (highest wins):
//  1. Defaults
//  2. Global file ($XDG_CONFIG_HOME/vsts-cli/config.json or ~/.config/vsts-cli/config.json),
//     or the file given with --config instead
//  3. Project file (.vsts.json in the repository work tree)
//  4. Environment (VSTS_CLI_TOKEN, VSTS_CLI_FULL_NAME, BROWSER)
//
// Accounts live only in the global file. Files are JSON with comments and
// trailing commas allowed.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

const (
	// ProjectFileName is looked up in the repository work tree.
	ProjectFileName = ".vsts.json"

	DefaultTargetBranch = "master"
	DefaultCacheSize    = 64

	EnvToken    = "VSTS_CLI_TOKEN"
	EnvFullName = "VSTS_CLI_FULL_NAME"
	EnvBrowser  = "BROWSER"

	dirPerms  = 0o700
	filePerms = 0o600
)

// Settings are the tunables that may appear in any config file.
type Settings struct {
	// TargetBranch is the default target of new pull requests.
	TargetBranch string `json:"target_branch,omitempty"`
	// Browser is the command used to open pages. Empty means the system
	// default.
	Browser string `json:"browser,omitempty"`
	// CacheSize is the number of API responses kept per run. Negative
	// disables the cache.
	CacheSize int `json:"cache_size,omitempty"`
}

// DefaultSettings returns the settings used when no file says otherwise.
func DefaultSettings() Settings {
	return Settings{
		TargetBranch: DefaultTargetBranch,
		CacheSize:    DefaultCacheSize,
	}
}

// Sources tracks which files were loaded.
type Sources struct {
	Global  string // Path to the global (or explicit) file if loaded
	Project string // Path to the project file if loaded
	Env     []string
}

// Config is the effective configuration of one run.
type Config struct {
	Settings

	Accounts []Account

	// Token and FullName come from the environment and take precedence
	// over stored account credentials.
	Token    string
	FullName string

	// Path is where Save writes the accounts registry.
	Path string

	EffectiveCwd string
	Sources      Sources

	// global keeps the settings of the global file alone, so saving does
	// not copy project or environment overrides into it.
	global Settings
}

// fileData is the on-disk shape of a config file.
type fileData struct {
	Settings

	Accounts []Account `json:"accounts,omitempty"`
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ProjectDir string            // repository work tree; if empty, WorkDir is used
	ConfigPath string            // -c/--config flag value; replaces the global file
	Env        map[string]string // environment variables
}

// GlobalPath returns the default location of the global file, or "" if
// neither XDG_CONFIG_HOME nor HOME is set.
func GlobalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "vsts-cli", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "vsts-cli", "config.json")
	}

	return ""
}

// Load reads all config layers. A missing global or project file is not an
// error; a missing explicit --config file is.
func Load(input LoadInput) (*Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := &Config{Settings: DefaultSettings(), EffectiveCwd: workDir}

	globalPath, mustExist := GlobalPath(input.Env), false
	if input.ConfigPath != "" {
		globalPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(globalPath) {
			globalPath = filepath.Join(workDir, globalPath)
		}

		if _, err := os.Stat(globalPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	cfg.Path = globalPath

	if globalPath != "" {
		data, loaded, err := loadFile(globalPath, mustExist)
		if err != nil {
			return nil, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg.global = data.Settings
			cfg.Settings = mergeSettings(cfg.Settings, data.Settings)
			cfg.Accounts = data.Accounts
		}
	}

	projectDir := input.ProjectDir
	if projectDir == "" {
		projectDir = workDir
	}

	projectPath := filepath.Join(projectDir, ProjectFileName)

	data, loaded, err := loadFile(projectPath, false)
	if err != nil {
		return nil, err
	}

	if loaded {
		cfg.Sources.Project = projectPath
		cfg.Settings = mergeSettings(cfg.Settings, data.Settings)
	}

	applyEnv(cfg, input.Env)

	return cfg, nil
}

func applyEnv(cfg *Config, env map[string]string) {
	if v := env[EnvToken]; v != "" {
		cfg.Token = v
		cfg.Sources.Env = append(cfg.Sources.Env, EnvToken)
	}

	if v := env[EnvFullName]; v != "" {
		cfg.FullName = v
		cfg.Sources.Env = append(cfg.Sources.Env, EnvFullName)
	}

	if v := env[EnvBrowser]; v != "" {
		cfg.Browser = v
		cfg.Sources.Env = append(cfg.Sources.Env, EnvBrowser)
	}
}

// loadFile reads one config file. If mustExist is false, a missing file
// returns loaded=false without error.
func loadFile(path string, mustExist bool) (fileData, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return fileData{}, false, nil
		}

		return fileData{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	data, err := parse(raw)
	if err != nil {
		return fileData{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return data, true, nil
}

// parse decodes a config file. Comments and trailing commas are accepted.
// An empty file is an empty config; an explicitly empty target_branch is
// rejected.
func parse(raw []byte) (fileData, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fileData{}, nil
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return fileData{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var data fileData

	if err := json.Unmarshal(standardized, &data); err != nil {
		return fileData{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var fields map[string]any

	_ = json.Unmarshal(standardized, &fields)

	if val, exists := fields["target_branch"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return fileData{}, ErrTargetBranchEmpty
		}
	}

	for i, acct := range data.Accounts {
		if acct.AccountName == "" {
			return fileData{}, fmt.Errorf("accounts[%d]: %w", i, ErrAccountFieldEmpty)
		}
	}

	return data, nil
}

func mergeSettings(base, overlay Settings) Settings {
	if overlay.TargetBranch != "" {
		base.TargetBranch = overlay.TargetBranch
	}

	if overlay.Browser != "" {
		base.Browser = overlay.Browser
	}

	if overlay.CacheSize != 0 {
		base.CacheSize = overlay.CacheSize
	}

	return base
}
