package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vsts-cli/internal/config"
	"github.com/calvinalkan/vsts-cli/internal/vsts"
	"github.com/calvinalkan/vsts-cli/internal/wiql"
)

const unassigned = "unassigned"

// ErrFullNameUnknown is returned by "workitems --my" when no full name is
// stored for the account.
var ErrFullNameUnknown = errors.New("full name unknown, set " + config.EnvFullName)

func workItemsCmd(s *session) *Command {
	flags := flag.NewFlagSet("workitems", flag.ContinueOnError)
	flags.StringArrayP("states", "s", nil, "Filter by state such as new, active, resolved, closed or removed (repeatable)")
	flags.StringArrayP("tags", "t", nil, "Filter by tag (repeatable)")
	flags.BoolP("description", "d", false, "Include descriptions")
	flags.BoolP("my", "m", false, "Only work items assigned to me")
	flags.BoolP("browse", "b", false, "Open the work item with the given id in the browser")

	return &Command{
		Flags: flags,
		Usage: "workitems [id|type] [flags]",
		Short: "List or search work items",
		Long: "Search work items of the current project by type, state and tag, or show a single\n" +
			"work item by id. States default to new and active.",
		Subcommands: []*Command{workItemsAddCmd(s)},
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execWorkItems(ctx, io, s, flags, args)
		},
	}
}

func execWorkItems(ctx context.Context, io *IO, s *session, flags *flag.FlagSet, args []string) error {
	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	states, _ := flags.GetStringArray("states")
	tags, _ := flags.GetStringArray("tags")
	withDescription, _ := flags.GetBool("description")
	mine, _ := flags.GetBool("my")
	browse, _ := flags.GetBool("browse")

	if mine && s.fullName == "" {
		return ErrFullNameUnknown
	}

	query := wiql.Build(wiql.BuildInput{
		ProjectName: s.projectName,
		States:      states,
		Tags:        tags,
		TypeOrID:    strings.Join(args, " "),
		Mine:        mine,
		FullName:    s.fullName,
	})

	var (
		details []vsts.WorkItemFields
		err     error
	)

	if id, ok := query.WorkItemID(); ok && !mine {
		if browse {
			return s.browse(io, s.workItemURL(id))
		}

		details, err = s.client.WorkItemDetails(ctx, []int{id})
		withDescription = true
	} else {
		details, err = s.searchWorkItems(ctx, query)
	}

	if err != nil {
		return err
	}

	printWorkItems(io, details, withDescription)

	return nil
}

func (s *session) searchWorkItems(ctx context.Context, query wiql.Query) ([]vsts.WorkItemFields, error) {
	refs, err := s.client.SearchWorkItems(ctx, query.ProjectName(), query.String())
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}

	return s.client.WorkItemDetails(ctx, ids)
}

func assignedName(f vsts.WorkItemFields) string {
	if name := f.AssignedToName(); name != "" {
		return name
	}

	return unassigned
}

// printWorkItems prints one aligned line per work item, sorted by type and
// then creation date.
func printWorkItems(io *IO, details []vsts.WorkItemFields, withDescription bool) {
	if len(details) == 0 {
		return
	}

	sort.SliceStable(details, func(i, j int) bool {
		if details[i].WorkItemType != details[j].WorkItemType {
			return details[i].WorkItemType < details[j].WorkItemType
		}

		return details[i].CreatedDate.Before(details[j].CreatedDate)
	})

	idWidth := columnWidth(details, func(f vsts.WorkItemFields) string { return strconv.Itoa(f.ID) })
	stateWidth := columnWidth(details, func(f vsts.WorkItemFields) string { return f.State })
	typeWidth := columnWidth(details, func(f vsts.WorkItemFields) string { return f.WorkItemType })
	assignedWidth := columnWidth(details, assignedName)

	for _, f := range details {
		color := colorGreen
		if f.AssignedToName() == "" {
			color = colorOrange
		}

		tags := f.Tags
		if tags == "" {
			tags = "no tags"
		}

		io.Colorln(color, fmt.Sprintf("#%s %s %s %s %s %s : %s",
			pad(strconv.Itoa(f.ID), idWidth),
			pad(f.State, stateWidth),
			pad(f.WorkItemType, typeWidth),
			formatDate(f.CreatedDate),
			pad(assignedName(f), assignedWidth),
			strings.TrimSpace(f.Title),
			tags,
		))

		if withDescription {
			description := f.Description
			if description == "" {
				description = "no description provided"
			}

			io.Colorln(color, pad(" ", idWidth+1)+" "+description)
		}
	}
}

func workItemsAddCmd(s *session) *Command {
	flags := flag.NewFlagSet("workitems add", flag.ContinueOnError)
	flags.StringP("workitemtype", "w", "", "Work item type such as task, bug or user story [required]")
	flags.StringP("title", "t", "", "Work item title [required]")
	flags.StringP("description", "d", "", "Work item description")
	flags.IntP("priority", "p", 0, "Work item priority")
	flags.StringArray("tags", nil, "Work item tag (repeatable)")

	return &Command{
		Flags: flags,
		Usage: "workitems add -w <type> -t <title> [flags]",
		Short: "Add a work item to the current project",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execWorkItemsAdd(ctx, io, s, flags)
		},
	}
}

func execWorkItemsAdd(ctx context.Context, io *IO, s *session, flags *flag.FlagSet) error {
	workItemType, _ := flags.GetString("workitemtype")
	title, _ := flags.GetString("title")

	if strings.TrimSpace(workItemType) == "" || strings.TrimSpace(title) == "" {
		return errShowHelp
	}

	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	doc := []vsts.PatchOperation{vsts.AddField("System.Title", title)}

	if flags.Changed("description") {
		description, _ := flags.GetString("description")
		doc = append(doc, vsts.AddField("System.Description", description))
	}

	if flags.Changed("priority") {
		priority, _ := flags.GetInt("priority")
		doc = append(doc, vsts.AddField("Microsoft.VSTS.Common.Priority", priority))
	}

	if flags.Changed("tags") {
		tags, _ := flags.GetStringArray("tags")
		doc = append(doc, vsts.AddField("System.Tags", strings.Join(tags, ";")))
	}

	item, err := s.client.CreateWorkItem(ctx, s.projectName, workItemType, doc)
	if err != nil {
		return err
	}

	io.Printf("#%d %s %s - %s\n", item.ID, item.Fields.State, formatDate(item.Fields.CreatedDate), strings.TrimSpace(item.Fields.Title))

	return nil
}
