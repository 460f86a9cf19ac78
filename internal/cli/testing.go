package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Values used by LinkRepository and the default origin of InitRepo.
const (
	TestAccount  = "contoso"
	TestProject  = "Proj"
	TestRepo     = "web"
	TestRepoID   = "r1"
	TestFullName = "Jane Doe"
	TestToken    = "pat"
	TestOrigin   = "https://contoso.visualstudio.com/DefaultCollection/Proj/_git/web"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp work tree, a private config home and environment
// variables. Pages are "opened" with echo, so browsed URLs show up on
// stdout.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{
			"XDG_CONFIG_HOME": t.TempDir(),
			"BROWSER":         "echo",
		},
	}
}

// InitRepo makes Dir a git repository on branch with the given origin.
func (r *CLI) InitRepo(origin, branch string) {
	r.t.Helper()

	head := "ref: refs/heads/" + branch + "\n"
	gitConfig := fmt.Sprintf("[core]\n\tbare = false\n[remote \"origin\"]\n\turl = %s\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n", origin)

	r.writeFile(filepath.Join(r.GitDir(), "HEAD"), head)
	r.writeFile(filepath.Join(r.GitDir(), "config"), gitConfig)
}

// GitDir returns the path to the .git directory of Dir.
func (r *CLI) GitDir() string {
	return filepath.Join(r.Dir, ".git")
}

// Serve starts handler as the service and points the CLI at it.
func (r *CLI) Serve(handler http.Handler) *httptest.Server {
	r.t.Helper()

	srv := httptest.NewServer(handler)
	r.t.Cleanup(srv.Close)

	r.Env[EnvAPIURL] = srv.URL + "/"

	return srv
}

// ConfigPath returns the path of the global config file.
func (r *CLI) ConfigPath() string {
	return filepath.Join(r.Env["XDG_CONFIG_HOME"], "vsts-cli", "config.json")
}

// WriteConfig writes the global config file.
func (r *CLI) WriteConfig(content string) {
	r.t.Helper()

	r.writeFile(r.ConfigPath(), content)
}

// ReadConfig returns the content of the global config file.
func (r *CLI) ReadConfig() string {
	r.t.Helper()

	content, err := os.ReadFile(r.ConfigPath())
	if err != nil {
		r.t.Fatalf("failed to read config: %v", err)
	}

	return string(content)
}

// LinkRepository writes a config that has the test account with a token
// and Dir linked to the test repository.
func (r *CLI) LinkRepository() {
	r.t.Helper()

	dir, err := json.Marshal(r.GitDir())
	if err != nil {
		r.t.Fatal(err)
	}

	r.WriteConfig(fmt.Sprintf(`{
  "accounts": [{
    "account_name": %q,
    "full_name": %q,
    "personal_access_token": %q,
    "projects": [{
      "id": "p1",
      "name": %q,
      "repositories": [{"id": %q, "name": %q, "directory": %s}]
    }]
  }]
}`, TestAccount, TestFullName, TestToken, TestProject, TestRepoID, TestRepo, dir))
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "vsts" or "--cwd" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr, and exit code.
// stdin must be a string or io.Reader; panics otherwise.
func (r *CLI) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader
	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"vsts", "--cwd", r.Dir}, args...)
	code := Run(inReader, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command succeeds.
// Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

func (r *CLI) writeFile(path, content string) {
	r.t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		r.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		r.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
