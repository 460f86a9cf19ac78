package names

// Canonical command names.
const (
	CommandBrowse         = "browse"
	CommandBuilds         = "builds"
	CommandCode           = "code"
	CommandDashboard      = "dashboard"
	CommandLogs           = "logs"
	CommandPullRequests   = "pullrequests"
	CommandReleases       = "releases"
	CommandTestManagement = "testmanagement"
	CommandWorkItems      = "workitems"
)

// Canonical work item type names, as the service spells them.
const (
	TypeBug       = "bug"
	TypeEpic      = "epic"
	TypeFeature   = "feature"
	TypeIssue     = "issue"
	TypeTask      = "task"
	TypeTestCase  = "test case"
	TypeTestSuite = "test suite"
	TypeUserStory = "user story"
)

// CommandAliases lists the accepted spellings of top-level commands.
var CommandAliases = AliasTable{
	CommandPullRequests:   {"pullrequest", "pr", "prs", "pullrequets"},
	CommandWorkItems:      {"workitem", "wi", "workitme", "workitmes"},
	CommandBuilds:         {"build", "biuld", "biulds"},
	CommandLogs:           {"log", "lgo", "lgos"},
	CommandReleases:       {"release", "rel", "releaes"},
	CommandTestManagement: {"test", "tests", "testmanagemnet", "tets", "tetss"},
	CommandBrowse:         nil,
	CommandCode:           nil,
	CommandDashboard:      nil,
}

// WorkItemTypeAliases lists the accepted spellings of work item types.
// Spaces and hyphens are ignored while matching, so "user-story" and
// "UserStory" need no entry of their own.
var WorkItemTypeAliases = AliasTable{
	TypeUserStory: {"userstories", "story", "stories"},
	TypeTestCase:  {"testcases"},
	TypeTestSuite: {"testsuites"},
	TypeEpic:      {"epics", "epci", "epcis"},
	TypeBug:       {"bugs", "bgu", "bgus"},
	TypeFeature:   {"features", "featuer", "featuers"},
	TypeIssue:     {"issues", "isseu", "isseus"},
	TypeTask:      {"tasks", "taks"},
}

var (
	commands      = NewNormalizer(CommandAliases)
	workItemTypes = NewNormalizer(WorkItemTypeAliases)
)

// NormalizeCommand maps a command token to its canonical name.
func NormalizeCommand(raw string) string {
	return commands.Normalize(raw)
}

// NormalizeWorkItemType maps a work item type token to its canonical name.
func NormalizeWorkItemType(raw string) string {
	return workItemTypes.Normalize(raw)
}
