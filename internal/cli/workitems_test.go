package cli_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vsts-cli/internal/cli"
)

const (
	queryHead = `SELECT [System.Id] FROM workitems WHERE [System.TeamProject] = "Proj" AND `
	queryTail = ` ORDER BY [System.ChangedDate] DESC`
)

type workItem struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
}

func newWorkItem(id int, typ, state, assigned, title, created, tags, description string) workItem {
	fields := map[string]any{
		"System.Id":           id,
		"System.WorkItemType": typ,
		"System.State":        state,
		"System.Title":        title,
		"System.CreatedDate":  created,
	}

	if assigned != "" {
		fields["System.AssignedTo"] = assigned
	}

	if tags != "" {
		fields["System.Tags"] = tags
	}

	if description != "" {
		fields["System.Description"] = description
	}

	return workItem{ID: id, Fields: fields}
}

// searchService answers a WIQL search with ids and the details request with
// items. The received query is checked against wantQuery.
func searchService(t *testing.T, wantQuery string, ids []int, items ...workItem) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	failUnexpected(t, mux)
	mux.HandleFunc(wiqlPath, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode wiql body: %v", err)
		}

		if diff := cmp.Diff(wantQuery, body.Query); diff != "" {
			t.Errorf("query mismatch (-want +got):\n%s", diff)
		}

		refs := make([]map[string]int, len(ids))
		for i, id := range ids {
			refs[i] = map[string]int{"id": id}
		}

		cli.WriteJSON(w, map[string]any{"queryType": "flat", "workItems": refs})
	})
	mux.HandleFunc(detailsPath, func(w http.ResponseWriter, _ *http.Request) {
		values := make([]any, len(items))
		for i, item := range items {
			values[i] = item
		}

		cli.WriteJSON(w, list(values...))
	})

	return mux
}

func Test_WorkItems_Prints_Sorted_Table_When_Search_Matches(t *testing.T) {
	t.Parallel()

	mux := searchService(t,
		queryHead+`([System.State] IN ("new","active")) AND [System.WorkItemType] = "bug"`+queryTail,
		[]int{7, 1234, 56},
		newWorkItem(7, "Bug", "Active", "Jane Doe <jane@contoso.com>", " Crash on save ", "2024-03-05T12:00:00Z", "ui; p1", ""),
		newWorkItem(1234, "Bug", "New", "", "Typo", "2024-01-02T12:00:00Z", "", ""),
		newWorkItem(56, "Bug", "New", "Bob <bob@contoso.com>", "Slow", "2024-02-10T12:00:00Z", "", ""),
	)

	c := linkedCLI(t, mux)
	stdout := c.MustRun("workitems", "bugs")

	want := []string{
		"#1234 New    Bug 2024/01/02 unassigned Typo : no tags",
		"#56   New    Bug 2024/02/10 Bob        Slow : no tags",
		"#7    Active Bug 2024/03/05 Jane Doe   Crash on save : ui; p1",
	}

	if diff := cmp.Diff(want, strings.Split(stdout, "\n")); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func Test_WorkItems_Builds_Query_From_Flags_When_Given(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "defaults",
			args: []string{"workitems"},
			want: queryHead + `([System.State] IN ("new","active"))` + queryTail,
		},
		{
			name: "states and tags",
			args: []string{"workitems", "-s", "closed", "--states", "resolved", "-t", "ui", "user", "stories"},
			want: queryHead + `([System.State] IN ("closed","resolved")) AND [System.Tags] Contains "ui" AND [System.WorkItemType] = "user story"` + queryTail,
		},
		{
			name: "mine",
			args: []string{"workitems", "task", "--my"},
			want: queryHead + `([System.State] IN ("new","active")) AND [System.WorkItemType] = "task" AND [System.AssignedTo] CONTAINS "Jane Doe"` + queryTail,
		},
		{
			name: "mine by id",
			args: []string{"workitems", "-m", "12"},
			want: queryHead + `([System.State] IN ("new","active")) AND [System.Id] = "12" AND [System.AssignedTo] CONTAINS "Jane Doe"` + queryTail,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := linkedCLI(t, searchService(t, tt.want, nil))

			stdout := c.MustRun(tt.args...)
			assert.Empty(t, stdout)
		})
	}
}

func Test_WorkItems_Shows_Description_When_Fetched_By_ID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	failUnexpected(t, mux)
	mux.HandleFunc(detailsPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("ids"))

		cli.WriteJSON(w, list(newWorkItem(42, "Task", "Active", "Jane Doe", "Write docs", "2024-03-05T12:00:00Z", "", "")))
	})

	c := linkedCLI(t, mux)
	stdout := c.MustRun("workitems", "42")

	lines := strings.Split(stdout, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#42 Active Task 2024/03/05 Jane Doe Write docs : no tags", lines[0])
	assert.Equal(t, "    no description provided", lines[1])
}

func Test_WorkItems_Prints_Descriptions_When_Flag_Set(t *testing.T) {
	t.Parallel()

	mux := searchService(t,
		queryHead+`([System.State] IN ("new","active")) AND [System.WorkItemType] = "epic"`+queryTail,
		[]int{3},
		newWorkItem(3, "Epic", "New", "", "Big thing", "2024-03-05T12:00:00Z", "", "All of it"),
	)

	c := linkedCLI(t, mux)
	stdout := c.MustRun("workitems", "epcis", "-d")

	cli.AssertContains(t, stdout, "#3 New Epic 2024/03/05 unassigned Big thing : no tags")
	cli.AssertContains(t, stdout, "   All of it")
}

func Test_WorkItems_Fails_When_Mine_Without_Full_Name(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	failUnexpected(t, mux)

	c := linkedCLI(t, mux)
	c.WriteConfig(strings.Replace(c.ReadConfig(), `"full_name": "Jane Doe",`, "", 1))

	stderr := c.MustFail("workitems", "--my")
	cli.AssertContains(t, stderr, "full name unknown")
}

func Test_WorkItems_Uses_Env_Full_Name_When_Set(t *testing.T) {
	t.Parallel()

	mux := searchService(t,
		queryHead+`([System.State] IN ("new","active")) AND [System.AssignedTo] CONTAINS "Someone Else"`+queryTail,
		nil,
	)

	c := linkedCLI(t, mux)
	c.Env["VSTS_CLI_FULL_NAME"] = "Someone Else"

	c.MustRun("workitems", "-m")
}

func Test_WorkItemsAdd_Creates_Work_Item_When_Required_Flags_Given(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	failUnexpected(t, mux)
	mux.HandleFunc("PATCH /Proj/_apis/wit/workitems/{type}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "$user story", r.PathValue("type"))
		assert.Equal(t, "application/json-patch+json", r.Header.Get("Content-Type"))

		var doc []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("decode patch document: %v", err)
		}

		want := []map[string]any{
			{"op": "add", "path": "/fields/System.Title", "value": "New login"},
			{"op": "add", "path": "/fields/System.Description", "value": "Use SSO"},
			{"op": "add", "path": "/fields/Microsoft.VSTS.Common.Priority", "value": float64(2)},
			{"op": "add", "path": "/fields/System.Tags", "value": "auth;web"},
		}

		if diff := cmp.Diff(want, doc); diff != "" {
			t.Errorf("document mismatch (-want +got):\n%s", diff)
		}

		cli.WriteJSON(w, map[string]any{
			"id":  99,
			"rev": 1,
			"fields": map[string]any{
				"System.State":       "New",
				"System.Title":       "New login ",
				"System.CreatedDate": "2024-03-05T12:00:00Z",
			},
		})
	})

	c := linkedCLI(t, mux)
	stdout := c.MustRun("wi", "add", "-w", "story", "-t", "New login", "-d", "Use SSO", "-p", "2", "--tags", "auth", "--tags", "web")

	assert.Equal(t, "#99 New 2024/03/05 - New login", stdout)
}

func Test_WorkItemsAdd_Prints_Help_When_Required_Flags_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, _, code := c.Run("workitems", "add", "-t", "only a title")

	assert.Equal(t, 1, code)
	cli.AssertContains(t, stdout, "Usage: vsts workitems add -w <type> -t <title> [flags]")
	cli.AssertContains(t, stdout, "--workitemtype")
}
