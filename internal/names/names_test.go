package names_test

import (
	"testing"

	"github.com/calvinalkan/vsts-cli/internal/names"
)

func Test_NormalizeCommand_Returns_Canonical_When_Alias_Given(t *testing.T) {
	t.Parallel()

	for canonical, aliases := range names.CommandAliases {
		for _, alias := range append([]string{canonical}, aliases...) {
			if got, want := names.NormalizeCommand(alias), canonical; got != want {
				t.Errorf("NormalizeCommand(%q)=%q, want=%q", alias, got, want)
			}
		}
	}
}

func Test_NormalizeWorkItemType_Returns_Canonical_When_Alias_Given(t *testing.T) {
	t.Parallel()

	for canonical, aliases := range names.WorkItemTypeAliases {
		for _, alias := range append([]string{canonical}, aliases...) {
			if got, want := names.NormalizeWorkItemType(alias), canonical; got != want {
				t.Errorf("NormalizeWorkItemType(%q)=%q, want=%q", alias, got, want)
			}
		}
	}
}

func Test_Normalize_Ignores_Case_Spaces_And_Hyphens_When_Matching(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		normalize func(string) string
		input     string
		want      string
	}{
		{names.NormalizeCommand, "Pull-Request", names.CommandPullRequests},
		{names.NormalizeCommand, "PULL REQUEST", names.CommandPullRequests},
		{names.NormalizeCommand, "Work-Items", names.CommandWorkItems},
		{names.NormalizeCommand, "Test Management", names.CommandTestManagement},
		{names.NormalizeCommand, "PR", names.CommandPullRequests},
		{names.NormalizeWorkItemType, "UserStory", names.TypeUserStory},
		{names.NormalizeWorkItemType, "user-story", names.TypeUserStory},
		{names.NormalizeWorkItemType, "User Story", names.TypeUserStory},
		{names.NormalizeWorkItemType, "test-case", names.TypeTestCase},
		{names.NormalizeWorkItemType, "TestSuite", names.TypeTestSuite},
		{names.NormalizeWorkItemType, "BUGS", names.TypeBug},
		{names.NormalizeWorkItemType, "Epics", names.TypeEpic},
	} {
		if got := tt.normalize(tt.input); got != tt.want {
			t.Errorf("normalize(%q)=%q, want=%q", tt.input, got, tt.want)
		}
	}
}

func Test_Normalize_Returns_Input_Unchanged_When_No_Alias_Matches(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"foo", "Foo-Bar", "print-config", " Unknown Thing ", "---"} {
		if got := names.NormalizeCommand(input); got != input {
			t.Errorf("NormalizeCommand(%q)=%q, want input unchanged", input, got)
		}

		if got := names.NormalizeWorkItemType(input); got != input {
			t.Errorf("NormalizeWorkItemType(%q)=%q, want input unchanged", input, got)
		}
	}
}

func Test_Normalize_Returns_Input_Unchanged_When_Blank(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", " ", "\t", "  \n "} {
		if got := names.NormalizeCommand(input); got != input {
			t.Errorf("NormalizeCommand(%q)=%q, want input unchanged", input, got)
		}

		if got := names.NormalizeWorkItemType(input); got != input {
			t.Errorf("NormalizeWorkItemType(%q)=%q, want input unchanged", input, got)
		}
	}
}

func Test_Normalize_Is_Idempotent_When_Applied_Twice(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"pr", "wi", "log", "tets", "bugs", "user-story", "nothing"} {
		once := names.NormalizeCommand(input)
		if twice := names.NormalizeCommand(once); twice != once {
			t.Errorf("NormalizeCommand not idempotent for %q: %q then %q", input, once, twice)
		}

		once = names.NormalizeWorkItemType(input)
		if twice := names.NormalizeWorkItemType(once); twice != once {
			t.Errorf("NormalizeWorkItemType not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func Test_Normalizers_Stay_Separate_When_Token_Belongs_To_Other_Table(t *testing.T) {
	t.Parallel()

	// Type names are not commands and command names are not types.
	for _, input := range []string{"bug", "user story", "epic", "testcase"} {
		if got := names.NormalizeCommand(input); got != input {
			t.Errorf("NormalizeCommand(%q)=%q, want input unchanged", input, got)
		}
	}

	for _, input := range []string{"pr", "wi", "builds", "test"} {
		if got := names.NormalizeWorkItemType(input); got != input {
			t.Errorf("NormalizeWorkItemType(%q)=%q, want input unchanged", input, got)
		}
	}
}

func Test_NewNormalizer_Panics_When_Alias_Claimed_Twice(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for colliding aliases")
		}
	}()

	names.NewNormalizer(names.AliasTable{
		"one": {"x"},
		"two": {"X"},
	})
}

func Test_Lookup_Reports_Match_When_Alias_Known(t *testing.T) {
	t.Parallel()

	n := names.NewNormalizer(names.AliasTable{"logs": {"log"}})

	got, ok := n.Lookup("LOG")
	if !ok || got != "logs" {
		t.Errorf("Lookup(LOG)=(%q, %v), want=(logs, true)", got, ok)
	}

	got, ok = n.Lookup("queue")
	if ok || got != "queue" {
		t.Errorf("Lookup(queue)=(%q, %v), want=(queue, false)", got, ok)
	}
}
