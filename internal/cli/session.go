package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/vsts-cli/internal/config"
	"github.com/calvinalkan/vsts-cli/internal/gitrepo"
	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

// EnvAPIURL overrides the account address derived from the origin remote.
// It is meant for on-premises servers and tests.
const EnvAPIURL = "VSTS_CLI_API_URL"

// session is the state shared by the commands of one run: the discovered
// repository, the loaded config and, once start succeeded, an API client
// bound to the linked project.
type session struct {
	stdin   io.Reader
	env     map[string]string
	verbose bool
	now     func() time.Time

	cwd     string
	cfg     *config.Config
	repo    gitrepo.Info
	repoErr error

	out    *IO
	prompt prompter
	client *vsts.Client

	projectID   string
	projectName string
	repoID      string
	fullName    string
}

// start runs the setup every service command needs. It reports false when
// the run should end with exit code 0 after a message was printed.
func (s *session) start(ctx context.Context, o *IO) (bool, error) {
	if s.client != nil {
		return true, nil
	}

	s.out = o

	if s.prompt == nil {
		s.prompt = newPrompter(s.stdin, o)
	}

	if ok := s.checkRepository(o); !ok {
		return false, s.repoErrUnlessMissing()
	}

	ok, err := s.checkAccessToken(ctx, o)
	if !ok || err != nil {
		return ok, err
	}

	return s.checkRemoteLink(ctx, o)
}

func (s *session) repoErrUnlessMissing() error {
	if s.repoErr == nil || errors.Is(s.repoErr, gitrepo.ErrNotRepository) || errors.Is(s.repoErr, gitrepo.ErrNoOrigin) {
		return nil
	}

	return s.repoErr
}

func (s *session) checkRepository(o *IO) bool {
	if s.repoErr != nil && s.repoErrUnlessMissing() != nil {
		return false
	}

	if s.repo.GitDir != "" && s.repo.Origin != "" && !s.repo.IsVSTS() && s.env[EnvAPIURL] == "" {
		o.Printf("Found a non-VSTS git repo at %s pointing to %s\n", s.repo.WorkTree, s.repo.Origin)

		return false
	}

	if strings.TrimSpace(s.repo.Name) == "" || strings.TrimSpace(s.repo.Host) == "" {
		o.Printf("Could not find an existing VSTS git repo in the current %s directory or parent directories\n", s.cwd)

		return false
	}

	return true
}

func (s *session) newClient(token string) (*vsts.Client, error) {
	base := s.env[EnvAPIURL]
	if base == "" {
		base = vsts.AccountURL(s.repo.Host)
	}

	opts := []vsts.Option{vsts.WithCacheSize(max(s.cfg.CacheSize, 0))}

	if s.verbose {
		opts = append(opts, vsts.WithTrace(s.trace))
	}

	return vsts.New(base, token, opts...)
}

func (s *session) trace(method, url string, status int) {
	if s.out != nil {
		s.out.ErrPrintln(method, url, "->", status)
	}
}

// checkAccessToken asks for credentials when neither the registry nor the
// environment has a token for the account, verifies them and stores them.
func (s *session) checkAccessToken(ctx context.Context, o *IO) (bool, error) {
	token, fullName, ok := s.cfg.Credentials(s.repo.Host)
	if ok {
		client, err := s.newClient(token)
		if err != nil {
			return false, err
		}

		s.client, s.fullName = client, fullName

		return true, nil
	}

	fullName, err := s.prompt.Prompt(colorGreen, "Please enter name as recorded in your VSTS account: ")
	if err != nil {
		return false, err
	}

	token, err = s.prompt.Secret(colorGreen, "Please enter your personal access token: ")
	if err != nil {
		return false, err
	}

	fullName, token = strings.TrimSpace(fullName), strings.TrimSpace(token)

	client, err := s.newClient(token)
	if err != nil {
		return false, err
	}

	repos, err := client.Repositories(ctx)
	if err != nil {
		if vsts.IsUnauthorized(err) {
			return false, fmt.Errorf("personal access token rejected by %s: %w", client.BaseURL(), err)
		}

		return false, err
	}

	if len(repos) == 0 {
		o.Colorln(colorYellow, "Could not find an existing VSTS git repo that matches with the current git repo "+s.repo.Name)

		return false, nil
	}

	if _, err := s.cfg.SetAccountInfo(s.repo.Host, token, fullName); err != nil {
		return false, err
	}

	if err := s.cfg.Save(); err != nil {
		return false, fmt.Errorf("saving account: %w", err)
	}

	s.client, s.fullName = client, fullName

	return true, nil
}

// checkRemoteLink links the local repository to a remote one the first
// time it is seen.
func (s *session) checkRemoteLink(ctx context.Context, o *IO) (bool, error) {
	if acct, ok := s.cfg.Account(s.repo.Host); ok {
		if project, ok := acct.CurrentProject(s.repo.GitDir); ok {
			s.projectID, s.projectName = project.ID, project.Name
			s.repoID, _ = project.RepositoryID(s.repo.GitDir)

			return true, nil
		}
	}

	repos, err := s.client.Repositories(ctx)
	if err != nil {
		return false, err
	}

	var matches []vsts.Repository

	for _, r := range repos {
		if strings.EqualFold(r.Name, s.repo.Name) {
			matches = append(matches, r)
		}
	}

	if len(matches) == 0 {
		o.Colorln(colorYellow, "Could not find an existing VSTS git repo that matches with the current git repo "+s.repo.Name)

		return false, nil
	}

	selected, ok, err := s.selectRepository(o, matches)
	if !ok || err != nil {
		return false, err
	}

	if _, ok := s.cfg.Account(s.repo.Host); !ok {
		// Token came from the environment; register the account without it.
		if _, err := s.cfg.SetAccountInfo(s.repo.Host, "", s.fullName); err != nil {
			return false, err
		}
	}

	err = s.cfg.LinkRepository(s.repo.Host, selected.Project.ID, selected.Project.Name, config.Repository{
		ID:        selected.ID,
		Name:      selected.Name,
		Directory: s.repo.GitDir,
	})
	if err != nil {
		return false, err
	}

	if err := s.cfg.Save(); err != nil {
		return false, fmt.Errorf("saving repository link: %w", err)
	}

	s.projectID, s.projectName, s.repoID = selected.Project.ID, selected.Project.Name, selected.ID

	return true, nil
}

func (s *session) selectRepository(o *IO, matches []vsts.Repository) (vsts.Repository, bool, error) {
	if len(matches) == 1 {
		o.Colorln(colorOrange, fmt.Sprintf("This is the first time seeing the %s repository.", s.repo.Name))

		add, err := confirm(s.prompt, "Add this to the configuration? [Yes]/No ", true)
		if err != nil || !add {
			return vsts.Repository{}, false, err
		}

		return matches[0], true, nil
	}

	o.Colorln(colorOrange, "Multiple projects contain repositories that match your current git repository "+s.repo.Name)

	choices := make([]string, len(matches))

	for i, r := range matches {
		o.Printf(" - %d) the %s repository exists in the %s project\n", i+1, r.Name, r.Project.Name)
		choices[i] = strconv.Itoa(i + 1)
	}

	answer, err := s.prompt.Prompt(colorYellow, fmt.Sprintf("Select the project you want to link to this local repository [%s]: ", strings.Join(choices, ",")))
	if err != nil {
		return vsts.Repository{}, false, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(matches) {
		o.Colorln(colorRed, "Invalid selection")

		return vsts.Repository{}, false, fmt.Errorf("%w: %q", errInvalidSelection, answer)
	}

	return matches[n-1], true, nil
}

var errInvalidSelection = errors.New("invalid selection")
