package cli

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vsts-cli/internal/gitrepo"
	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

var (
	ErrPullRequestTitleMissing = errors.New("pull request title missing")
	ErrSourceBranchUnknown     = errors.New("source branch unknown (detached HEAD), use --source")
)

func pullRequestsCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("pullrequests", flag.ContinueOnError),
		Usage: "pullrequests [id]",
		Short: "List pull requests or open one in the browser",
		Long: "List the pull requests of the current repository by creation date. With an id,\n" +
			"open that pull request in the browser.",
		Subcommands: []*Command{pullRequestsCreateCmd(s)},
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execPullRequests(ctx, io, s, args)
		},
	}
}

func execPullRequests(ctx context.Context, io *IO, s *session, args []string) error {
	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	if len(args) > 0 {
		if id, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			return s.browse(io, s.pullRequestURL(id))
		}
	}

	prs, err := s.client.PullRequests(ctx, s.repoID)
	if err != nil {
		return err
	}

	sort.SliceStable(prs, func(i, j int) bool {
		return prs[i].CreationDate.Before(prs[j].CreationDate)
	})

	for _, pr := range prs {
		printPullRequest(io, pr)
	}

	return nil
}

func printPullRequest(io *IO, pr vsts.PullRequest) {
	io.Printf("#%d %s by %s\n", pr.PullRequestID, pr.Title, pr.CreatedBy.DisplayName)
}

func pullRequestsCreateCmd(s *session) *Command {
	flags := flag.NewFlagSet("pullrequests create", flag.ContinueOnError)
	flags.StringP("title", "t", "", "Pull request title (default: first line of the last commit)")
	flags.StringP("description", "d", "", "Pull request description (default: the last commit message)")
	flags.StringP("source", "s", "", "Source branch (default: the current branch)")
	flags.String("target", "", "Target branch (default: target_branch from the config)")
	flags.BoolP("yes", "y", false, "Submit without asking for confirmation")

	return &Command{
		Flags: flags,
		Usage: "pullrequests create [flags]",
		Short: "Create a pull request from the current branch",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execPullRequestsCreate(ctx, io, s, flags)
		},
	}
}

func execPullRequestsCreate(ctx context.Context, io *IO, s *session, flags *flag.FlagSet) error {
	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	source, _ := flags.GetString("source")
	target, _ := flags.GetString("target")
	yes, _ := flags.GetBool("yes")

	if !flags.Changed("title") || !flags.Changed("description") {
		message, err := gitrepo.LastCommitMessage(ctx, s.repo.WorkTree)
		if err != nil && !flags.Changed("title") {
			return err
		}

		if !flags.Changed("title") {
			title, _, _ = strings.Cut(message, "\n")
		}

		if !flags.Changed("description") {
			description = message
		}
	}

	if strings.TrimSpace(title) == "" {
		return ErrPullRequestTitleMissing
	}

	if source == "" {
		source = s.repo.Branch
	}

	if source == "" {
		return ErrSourceBranchUnknown
	}

	if target == "" {
		target = s.cfg.TargetBranch
	}

	io.Colorln(colorDim, "Create New Pull Request")
	io.Colorln(colorDim, "-----------------------")
	io.Colorln(colorDim, "Title: "+title)
	io.Colorln(colorDim, "From: "+source)
	io.Colorln(colorDim, "To: "+target)
	io.Colorln(colorDim, "Description: "+description)

	if !yes {
		submit, err := confirm(s.prompt, "Submit this pull request y/[n] ", false)
		if err != nil || !submit {
			return err
		}
	}

	pr, err := s.client.CreatePullRequest(ctx, s.repoID, vsts.NewPullRequest{
		Title:         title,
		Description:   description,
		SourceRefName: source,
		TargetRefName: target,
	})
	if err != nil {
		return err
	}

	printPullRequest(io, pr)

	return nil
}
