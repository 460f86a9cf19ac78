// Package gitrepo finds the git repository around a directory and reads the
// few facts the command line needs from it: the origin remote, the account
// host and repository name derived from it, and the current branch.
//
// Only plain files are read. Git itself is invoked for commit messages alone.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

var (
	ErrNotRepository = errors.New("not a git repository")
	ErrNoOrigin      = errors.New("no origin remote")
)

const (
	vstsDomain    = "visualstudio.com"
	originSection = `remote "origin"`
	headRefPrefix = "ref: refs/heads/"
	gitDirPrefix  = "gitdir:"
)

// Info describes a discovered repository.
type Info struct {
	// GitDir is the absolute path of the .git directory. It identifies the
	// repository in the accounts registry.
	GitDir   string
	WorkTree string
	Origin   string
	// Name is the repository name, the last path segment of Origin.
	Name string
	// Host is the account name, e.g. "contoso" for contoso.visualstudio.com.
	Host string
	// Branch is empty for a detached HEAD.
	Branch string
}

// IsVSTS reports whether origin points at a hosted account.
func (i Info) IsVSTS() bool {
	return strings.Contains(strings.ToLower(i.Origin), vstsDomain)
}

// FindGitDir walks up from start to the filesystem root and returns the
// first .git found. A .git file (worktrees, submodules) is followed to the
// directory it names.
func FindGitDir(start string) (string, error) {
	gitDir, _, err := findGitDir(start)

	return gitDir, err
}

func findGitDir(start string) (gitDir, workTree string, err error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, ".git")

		fi, statErr := os.Stat(candidate)
		if statErr == nil {
			if fi.IsDir() {
				return candidate, dir, nil
			}

			gitDir, err = readGitFile(candidate)

			return gitDir, dir, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("%w: %s (or any parent)", ErrNotRepository, start)
		}

		dir = parent
	}
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, gitDirPrefix) {
		return "", fmt.Errorf("%w: %s has no gitdir line", ErrNotRepository, path)
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, gitDirPrefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}

	return filepath.Clean(target), nil
}

// Discover finds the repository containing start and reads its origin and
// branch. A repository without an origin remote is reported with
// ErrNoOrigin alongside the partially filled Info.
func Discover(start string) (Info, error) {
	gitDir, workTree, err := findGitDir(start)
	if err != nil {
		return Info{}, err
	}

	info := Info{GitDir: gitDir, WorkTree: workTree}

	info.Branch, err = readBranch(gitDir)
	if err != nil {
		return info, err
	}

	info.Origin, err = readOrigin(commonDir(gitDir))
	if err != nil {
		return info, err
	}

	info.Name, info.Host = ParseRemote(info.Origin)

	return info, nil
}

// commonDir resolves the directory holding the shared config of a linked
// worktree. For a regular repository it is gitDir itself.
func commonDir(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}

	dir := strings.TrimSpace(string(data))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(gitDir, dir)
	}

	return filepath.Clean(dir)
}

func readBranch(gitDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}

	head := strings.TrimSpace(string(data))
	if branch, ok := strings.CutPrefix(head, headRefPrefix); ok {
		return branch, nil
	}

	return "", nil
}

func readOrigin(gitDir string) (string, error) {
	path := filepath.Join(gitDir, "config")

	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return "", fmt.Errorf("read git config %s: %w", path, err)
	}

	section, err := cfg.GetSection(originSection)
	if err != nil {
		return "", ErrNoOrigin
	}

	origin := strings.TrimSpace(section.Key("url").String())
	if origin == "" {
		return "", ErrNoOrigin
	}

	return origin, nil
}

// ParseRemote derives the repository name and account host from a remote
// url. Both https and ssh remotes are understood:
//
//	https://contoso.visualstudio.com/DefaultCollection/Proj/_git/app -> app, contoso
//	ssh://contoso@vs-ssh.visualstudio.com:22/Proj/_ssh/app           -> app, contoso
//	contoso@vs-ssh.visualstudio.com:v3/contoso/Proj/app              -> app, contoso
func ParseRemote(remote string) (name, host string) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", ""
	}

	trimmed := strings.TrimRight(remote, "/")
	name = strings.TrimSuffix(trimmed[strings.LastIndexAny(trimmed, "/:")+1:], ".git")

	u, err := url.Parse(remote)
	if err != nil || u.Host == "" {
		u, err = parseSCP(remote)
		if err != nil {
			return name, ""
		}
	}

	hostname := u.Hostname()
	label, _, _ := strings.Cut(hostname, ".")

	if strings.HasPrefix(label, "vs-ssh") && u.User != nil && u.User.Username() != "" {
		return name, u.User.Username()
	}

	return name, label
}

// parseSCP handles the user@host:path form git accepts for ssh remotes.
func parseSCP(remote string) (*url.URL, error) {
	at := strings.Index(remote, "@")
	colon := strings.Index(remote, ":")

	if at < 0 || colon < at {
		return nil, fmt.Errorf("unrecognized remote %q", remote)
	}

	return &url.URL{
		Scheme: "ssh",
		User:   url.User(remote[:at]),
		Host:   remote[at+1 : colon],
		Path:   "/" + remote[colon+1:],
	}, nil
}

// LastCommitMessage returns the full message of the commit at HEAD.
func LastCommitMessage(ctx context.Context, workTree string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "-1", "--pretty=%B")
	cmd.Dir = workTree

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git log: %w: %s", err, msg)
		}

		return "", fmt.Errorf("git log: %w", err)
	}

	return strings.TrimRight(string(out), "\n"), nil
}
