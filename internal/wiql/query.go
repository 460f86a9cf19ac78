// Package wiql builds work item search queries in the service's query
// language.
package wiql

import (
	"slices"
	"strconv"
	"strings"

	"github.com/calvinalkan/vsts-cli/internal/names"
)

// QueryType says whether a query selects work items by type or by id.
type QueryType int

const (
	ByType QueryType = iota
	ByID
)

func (t QueryType) String() string {
	if t == ByID {
		return "ById"
	}

	return "ByType"
}

// DefaultStates is used when the caller asks for no particular state.
var DefaultStates = []string{"new", "active"}

// BuildInput carries the raw filter options of a search.
type BuildInput struct {
	ProjectName string
	States      []string
	Tags        []string
	// TypeOrID is either a work item id or a (possibly misspelled) type name.
	TypeOrID string
	Mine     bool
	// FullName is only used when Mine is set.
	FullName string
}

// Query is an immutable work item search.
//
// Exactly one of the id and type selectors is set. The assignee is set iff
// the search is restricted to the caller's own items.
type Query struct {
	project    string
	states     []string
	tags       []string
	queryType  QueryType
	id         int
	itemType   string
	mine       bool
	assignedTo string
}

// Build derives a Query from in. It never fails: anything that does not
// parse as an id is treated as a type name.
func Build(in BuildInput) Query {
	q := Query{
		project: in.ProjectName,
		states:  slices.Clone(DefaultStates),
		tags:    slices.Clone(in.Tags),
		mine:    in.Mine,
	}

	if len(in.States) > 0 {
		q.states = slices.Clone(in.States)
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(in.TypeOrID), 10, 32); err == nil {
		q.queryType = ByID
		q.id = int(id)
	} else {
		q.queryType = ByType
		q.itemType = names.NormalizeWorkItemType(in.TypeOrID)
	}

	if q.mine {
		q.assignedTo = in.FullName
	}

	return q
}

func (q Query) ProjectName() string { return q.project }

// States returns the state filter. It is never empty.
func (q Query) States() []string { return slices.Clone(q.states) }

func (q Query) Tags() []string { return slices.Clone(q.tags) }

func (q Query) Type() QueryType { return q.queryType }

// WorkItemID returns the selected id, if the query selects by id.
func (q Query) WorkItemID() (int, bool) {
	return q.id, q.queryType == ByID
}

// WorkItemType returns the normalized type name, if the query selects by
// type. The name may be empty.
func (q Query) WorkItemType() (string, bool) {
	return q.itemType, q.queryType == ByType
}

func (q Query) MyWorkItems() bool { return q.mine }

// AssignedTo returns the assignee filter, present only for "my" searches.
func (q Query) AssignedTo() (string, bool) {
	return q.assignedTo, q.mine
}

// String renders the query text. Values are double quoted as given, ids
// included; embedded quotes are not escaped.
func (q Query) String() string {
	clauses := make([]string, 0, len(q.tags)+3)

	if len(q.states) > 0 {
		quoted := make([]string, len(q.states))
		for i, s := range q.states {
			quoted[i] = quote(s)
		}

		clauses = append(clauses, "([System.State] IN ("+strings.Join(quoted, ",")+"))")
	}

	for _, tag := range q.tags {
		clauses = append(clauses, "[System.Tags] Contains "+quote(tag))
	}

	switch q.queryType {
	case ByType:
		if strings.TrimSpace(q.itemType) != "" {
			clauses = append(clauses, "[System.WorkItemType] = "+quote(q.itemType))
		}
	case ByID:
		clauses = append(clauses, "[System.Id] = "+quote(strconv.Itoa(q.id)))
	}

	if assignee, ok := q.AssignedTo(); ok {
		clauses = append(clauses, "[System.AssignedTo] CONTAINS "+quote(assignee))
	}

	var b strings.Builder

	b.WriteString("SELECT [System.Id] FROM workitems WHERE [System.TeamProject] = ")
	b.WriteString(quote(q.project))

	if len(clauses) > 0 {
		b.WriteString(" AND ")
		b.WriteString(strings.Join(clauses, " AND "))
	}

	b.WriteString(" ORDER BY [System.ChangedDate] DESC")

	return b.String()
}

func quote(s string) string {
	return `"` + s + `"`
}
