package vsts_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...vsts.Option) *vsts.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := vsts.New(srv.URL, "secret", opts...)
	require.NoError(t, err)

	return client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func Test_New_Returns_Error_When_BaseURL_Not_Absolute(t *testing.T) {
	t.Parallel()

	_, err := vsts.New("contoso.visualstudio.com", "x")
	require.ErrorIs(t, err, vsts.ErrInvalidInput)
}

func Test_AccountURL_Builds_Hosted_Address_When_Account_Given(t *testing.T) {
	t.Parallel()

	if got, want := vsts.AccountURL("contoso"), "https://contoso.visualstudio.com/"; got != want {
		t.Errorf("AccountURL=%q, want=%q", got, want)
	}
}

func Test_Repositories_Sends_Basic_Auth_When_Listing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DefaultCollection/_apis/git/repositories", r.URL.Path)
		assert.Equal(t, "api-version=1.0", r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte(":secret")), r.Header.Get("Authorization"))

		writeJSON(w, map[string]any{
			"count": 1,
			"value": []map[string]any{{"id": "r1", "name": "repo", "project": map[string]any{"id": "p1", "name": "Proj"}}},
		})
	}))

	repos, err := client.Repositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 1)

	assert.Equal(t, "r1", repos[0].ID)
	assert.Equal(t, "Proj", repos[0].Project.Name)
}

func Test_Client_Returns_APIError_When_Status_Not_Accepted(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		status       int
		unauthorized bool
		notFound     bool
	}{
		{http.StatusUnauthorized, true, false},
		{http.StatusNonAuthoritativeInfo, true, false},
		{http.StatusNotFound, false, true},
		{http.StatusInternalServerError, false, false},
	} {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "nope")
			}))

			_, err := client.Repositories(context.Background())
			require.Error(t, err)

			var apiErr *vsts.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Body)
			assert.Equal(t, tt.unauthorized, vsts.IsUnauthorized(err))
			assert.Equal(t, tt.notFound, errors.Is(err, vsts.ErrNotFound))
		})
	}
}

func Test_Client_Caches_GET_Responses_Until_Mutation(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			writeJSON(w, map[string]any{"value": []map[string]any{{"id": "r1", "name": "repo"}}})
		case http.MethodPost:
			writeJSON(w, map[string]any{"pullRequestId": 7, "title": "t"})
		}
	}))

	ctx := context.Background()

	_, err := client.Repositories(ctx)
	require.NoError(t, err)
	_, err = client.Repositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())

	_, err = client.CreatePullRequest(ctx, "r1", vsts.NewPullRequest{Title: "t", SourceRefName: "a", TargetRefName: "b"})
	require.NoError(t, err)

	_, err = client.Repositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())
}

func Test_Client_Skips_Cache_When_Size_Zero(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		gets.Add(1)
		writeJSON(w, map[string]any{"value": []any{}})
	}), vsts.WithCacheSize(0))

	for range 3 {
		_, err := client.Repositories(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), gets.Load())
}

func Test_Client_Calls_Trace_When_Request_Sent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex

	var traced []string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"value": []any{}})
	}), vsts.WithTrace(func(method, url string, status int) {
		mu.Lock()
		defer mu.Unlock()

		traced = append(traced, fmt.Sprintf("%s %s %d", method, url[strings.Index(url, "/DefaultCollection"):], status))
	}))

	_, err := client.Repositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /DefaultCollection/_apis/git/repositories?api-version=1.0 200"}, traced)
}

func Test_CreatePullRequest_Expands_Branch_Names_When_Plain(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/DefaultCollection/_apis/git/repositories/r1/pullRequests", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got vsts.NewPullRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "refs/heads/feature/x", got.SourceRefName)
		assert.Equal(t, "refs/heads/master", got.TargetRefName)
		assert.Equal(t, "body", got.Description)

		writeJSON(w, map[string]any{"pullRequestId": 12, "title": got.Title, "createdBy": map[string]any{"displayName": "Jane"}})
	}))

	pr, err := client.CreatePullRequest(context.Background(), "r1", vsts.NewPullRequest{
		Title:         "Add thing",
		Description:   "body",
		SourceRefName: "feature/x",
		TargetRefName: "refs/heads/master",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, pr.PullRequestID)
	assert.Equal(t, "Add thing", pr.Title)
	assert.Equal(t, "Jane", pr.CreatedBy.DisplayName)
}

func Test_CreatePullRequest_Returns_Error_When_Title_Empty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.CreatePullRequest(context.Background(), "r1", vsts.NewPullRequest{Title: "  "})
	require.ErrorIs(t, err, vsts.ErrInvalidInput)
}

func Test_BranchRef_Adds_Prefix_Only_When_Missing(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"main":            "refs/heads/main",
		"feature/a":       "refs/heads/feature/a",
		"refs/heads/main": "refs/heads/main",
		"refs/tags/v1":    "refs/tags/v1",
		"":                "",
	} {
		if got := vsts.BranchRef(in); got != want {
			t.Errorf("BranchRef(%q)=%q, want=%q", in, got, want)
		}
	}
}

func Test_PullRequests_Decodes_List_When_Repository_Known(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DefaultCollection/_apis/git/repositories/r1/pullRequests", r.URL.Path)
		assert.Equal(t, "api-version=3.0", r.URL.RawQuery)

		writeJSON(w, map[string]any{"value": []map[string]any{
			{"pullRequestId": 2, "title": "two", "creationDate": "2017-06-02T10:00:00Z", "createdBy": map[string]any{"displayName": "B"}},
			{"pullRequestId": 1, "title": "one", "creationDate": "2017-06-01T10:00:00Z", "createdBy": map[string]any{"displayName": "A"}},
		}})
	}))

	prs, err := client.PullRequests(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, prs, 2)
	assert.Equal(t, "two", prs[0].Title)
	assert.Equal(t, 2017, prs[1].CreationDate.Year())
}
