// Package main provides vsts, a command line client for Visual Studio Team
// Services git repositories.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/calvinalkan/vsts-cli/internal/cli"
)

func main() {
	// Values from a .env file in the working directory fill in what the
	// process environment leaves unset.
	env, err := godotenv.Read()
	if err != nil {
		env = make(map[string]string)
	}

	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
