package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

var (
	ErrNoBuilds          = errors.New("no builds found")
	ErrNoTimelineRecords = errors.New("build has no timeline records")
	ErrNoBuildLog        = errors.New("build has no log")
)

func buildsCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("builds", flag.ContinueOnError),
		Usage: "builds",
		Short: "Show the latest build of every definition",
		Subcommands: []*Command{
			buildsLogsCmd(s),
			buildsQueueCmd(s),
		},
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execBuilds(ctx, io, s)
		},
	}
}

func execBuilds(ctx context.Context, io *IO, s *session) error {
	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	builds, err := s.client.Builds(ctx, s.projectName)
	if err != nil {
		return err
	}

	if len(builds) == 0 {
		return ErrNoBuilds
	}

	latest := latestPerDefinition(builds)

	idWidth := columnWidth(latest, func(b vsts.Build) string { return strconv.Itoa(b.Definition.ID) })
	statusWidth := columnWidth(latest, func(b vsts.Build) string { return b.Status })
	resultWidth := columnWidth(latest, func(b vsts.Build) string { return b.Result })
	nameWidth := columnWidth(latest, func(b vsts.Build) string { return b.Definition.Name })

	now := s.now()

	for _, b := range latest {
		io.Colorln(resultColor(b.Result), fmt.Sprintf("%s %s %s %s %s %s",
			pad(strconv.Itoa(b.Definition.ID), idWidth),
			pad(b.Status, statusWidth),
			pad(b.Result, resultWidth),
			pad(b.Definition.Name, nameWidth),
			timeReport(b, now),
			b.BuildNumber,
		))
	}

	return nil
}

// latestPerDefinition keeps the build with the highest id of every
// definition, ordered by definition name.
func latestPerDefinition(builds []vsts.Build) []vsts.Build {
	latest := make(map[string]vsts.Build)

	for _, b := range builds {
		if cur, ok := latest[b.Definition.Name]; !ok || b.ID > cur.ID {
			latest[b.Definition.Name] = b
		}
	}

	out := make([]vsts.Build, 0, len(latest))
	for _, b := range latest {
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Definition.Name < out[j].Definition.Name })

	return out
}

func buildsLogsCmd(s *session) *Command {
	flags := flag.NewFlagSet("builds logs", flag.ContinueOnError)
	flags.IntP("id", "i", 0, "Build definition id [required]")
	flags.BoolP("detail", "d", false, "Print the log of the build")

	return &Command{
		Flags: flags,
		Usage: "builds logs -i <id> [-d]",
		Short: "Show the timeline of the latest build of a definition",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execBuildsLogs(ctx, io, s, flags)
		},
	}
}

func execBuildsLogs(ctx context.Context, io *IO, s *session, flags *flag.FlagSet) error {
	definitionID, _ := flags.GetInt("id")
	detail, _ := flags.GetBool("detail")

	if !flags.Changed("id") || definitionID <= 0 {
		return errShowHelp
	}

	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	build, err := s.client.LatestBuild(ctx, s.projectName, definitionID)
	if err != nil {
		return err
	}

	records, err := s.client.BuildTimeline(ctx, s.projectName, build.ID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("%w: %d", ErrNoTimelineRecords, build.ID)
	}

	first := records[0]
	rest := append([]vsts.TimelineRecord(nil), records[1:]...)
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Order < rest[j].Order })

	io.Colorln(resultColor(first.Result), resultSymbol(first.Result)+" "+first.Name)

	for _, r := range rest {
		io.Colorln(resultColor(r.Result), "-"+resultSymbol(r.Result)+" "+r.Name)
	}

	if !detail {
		return nil
	}

	logRecord, ok := firstWithLog(records)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBuildLog, build.ID)
	}

	lines, err := s.client.BuildLog(ctx, s.projectName, build.ID, logRecord.Log.ID)
	if err != nil {
		return err
	}

	for _, line := range lines {
		io.Println(line)
	}

	return nil
}

// firstWithLog returns the record with the lowest order that has a log.
func firstWithLog(records []vsts.TimelineRecord) (vsts.TimelineRecord, bool) {
	var (
		found vsts.TimelineRecord
		ok    bool
	)

	for _, r := range records {
		if r.Log == nil {
			continue
		}

		if !ok || r.Order < found.Order {
			found, ok = r, true
		}
	}

	return found, ok
}

func buildsQueueCmd(s *session) *Command {
	flags := flag.NewFlagSet("builds queue", flag.ContinueOnError)
	flags.IntP("id", "i", 0, "Build definition id [required]")

	return &Command{
		Flags: flags,
		Usage: "builds queue -i <id>",
		Short: "Queue a build of a definition",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execBuildsQueue(ctx, io, s, flags)
		},
	}
}

func execBuildsQueue(ctx context.Context, io *IO, s *session, flags *flag.FlagSet) error {
	definitionID, _ := flags.GetInt("id")
	if !flags.Changed("id") || definitionID <= 0 {
		return errShowHelp
	}

	if ok, err := s.start(ctx, io); !ok {
		return err
	}

	b, err := s.client.QueueBuild(ctx, s.projectName, definitionID)
	if err != nil {
		return err
	}

	io.Colorln(resultColor(b.Result), fmt.Sprintf("%d %s %s %s %s %s",
		b.Definition.ID, b.Status, b.Result, b.Definition.Name, timeReport(b, s.now()), b.BuildNumber))

	return nil
}
