package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/browser"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vsts-cli/internal/names"
	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

// browseCmd returns the browse command.
func browseCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("browse", flag.ContinueOnError),
		Usage: "browse [dashboard]",
		Short: "Open the project in the browser",
		Long: "Open a project dashboard in the browser. Dashboards are code, builds, releases,\n" +
			"workitems, pullrequests, testmanagement and dashboard. Defaults to code.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execBrowse(ctx, io, s, args)
		},
	}
}

// codeCmd returns the code command.
func codeCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("code", flag.ContinueOnError),
		Usage: "code",
		Short: "Open the current branch in the browser",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			if ok, err := s.start(ctx, io); !ok {
				return err
			}

			return s.browse(io, s.branchURL())
		},
	}
}

func execBrowse(ctx context.Context, io *IO, s *session, args []string) error {
	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	dashboard := ""
	if len(args) > 0 {
		dashboard = names.NormalizeCommand(args[0])
	}

	return s.browse(io, s.dashboardURL(dashboard))
}

// browse opens target with the configured browser command, or the system
// default when none is set.
func (s *session) browse(io *IO, target string) error {
	b := browser.New(s.cfg.Browser, io.Out(), io.ErrOut())

	if err := b.Browse(target); err != nil {
		return fmt.Errorf("opening %s: %w", target, err)
	}

	return nil
}

func (s *session) webURL(path string) string {
	base := s.env[EnvAPIURL]
	if base == "" {
		base = vsts.AccountURL(s.repo.Host)
	}

	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(s.projectName) + path
}

func (s *session) repoPath() string {
	return "/_git/" + url.PathEscape(s.repo.Name)
}

func (s *session) dashboardURL(dashboard string) string {
	switch dashboard {
	case names.CommandBuilds:
		return s.webURL("/_build?_a=allDefinitions")
	case names.CommandReleases:
		return s.webURL("/_release")
	case names.CommandWorkItems:
		return s.webURL("/_backlogs")
	case names.CommandPullRequests:
		return s.webURL(s.repoPath() + "/pullrequests?_a=active")
	case names.CommandTestManagement:
		return s.webURL("/_testManagement")
	case names.CommandDashboard:
		return s.webURL("")
	default:
		return s.webURL(s.repoPath())
	}
}

func (s *session) branchURL() string {
	if s.repo.Branch == "" {
		return s.webURL(s.repoPath())
	}

	return s.webURL(s.repoPath() + "?version=GB" + url.QueryEscape(s.repo.Branch) + "&_a=contents")
}

func (s *session) workItemURL(id int) string {
	return s.webURL("/_workitems?id=" + strconv.Itoa(id))
}

func (s *session) pullRequestURL(id int) string {
	return s.webURL(s.repoPath() + "/pullrequest/" + strconv.Itoa(id))
}
