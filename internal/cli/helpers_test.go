package cli_test

import (
	"net/http"
	"testing"

	"github.com/calvinalkan/vsts-cli/internal/cli"
)

const (
	repositoriesPath = "GET /DefaultCollection/_apis/git/repositories"
	pullRequestsPath = "/DefaultCollection/_apis/git/repositories/r1/pullRequests"
	wiqlPath         = "POST /DefaultCollection/Proj/_apis/wit/wiql"
	detailsPath      = "GET /DefaultCollection/_apis/wit/WorkItems"
	buildsPath       = "/DefaultCollection/Proj/_apis/build/builds"
)

type repository struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Project project `json:"project"`
}

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func list(values ...any) map[string]any {
	if values == nil {
		values = []any{}
	}

	return map[string]any{"count": len(values), "value": values}
}

// linkedCLI returns a CLI whose work tree is already linked to the test
// repository, talking to mux.
func linkedCLI(t *testing.T, mux *http.ServeMux) *cli.CLI {
	t.Helper()

	c := cli.NewCLI(t)
	c.InitRepo(cli.TestOrigin, "feature")
	c.LinkRepository()
	c.Serve(mux)

	return c
}

// failUnexpected makes mux fail the test on any unregistered route.
func failUnexpected(t *testing.T, mux *http.ServeMux) {
	t.Helper()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
		http.NotFound(w, r)
	})
}
