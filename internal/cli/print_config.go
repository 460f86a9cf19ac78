package cli

import (
	"context"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

func printConfigCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			execPrintConfig(io, s)

			return nil
		},
	}
}

func execPrintConfig(io *IO, s *session) {
	cfg := s.cfg

	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("target_branch=" + cfg.TargetBranch)

	if cfg.Browser != "" {
		io.Println("browser=" + cfg.Browser)
	}

	io.Println("cache_size=" + strconv.Itoa(cfg.CacheSize))
	io.Println("accounts=" + strconv.Itoa(len(cfg.Accounts)))

	if s.repo.GitDir != "" {
		io.Println("git_dir=" + s.repo.GitDir)
	}

	if s.repo.Host != "" {
		io.Println("account=" + s.repo.Host)

		if acct, ok := cfg.Account(s.repo.Host); ok {
			if project, ok := acct.CurrentProject(s.repo.GitDir); ok {
				io.Println("project=" + project.Name)
			}
		}
	}

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" && len(cfg.Sources.Env) == 0 {
		io.Println("(defaults only)")

		return
	}

	if cfg.Sources.Global != "" {
		io.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		io.Println("project_config=" + cfg.Sources.Project)
	}

	if len(cfg.Sources.Env) > 0 {
		io.Println("env=" + strings.Join(cfg.Sources.Env, ","))
	}
}
