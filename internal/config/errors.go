package config

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrTargetBranchEmpty  = errors.New("target_branch cannot be empty")
	ErrNoConfigPath       = errors.New("no config location (set HOME, XDG_CONFIG_HOME or pass --config)")
	ErrAccountNotFound    = errors.New("account not configured")
	ErrAccountFieldEmpty  = errors.New("account name cannot be empty")
)
