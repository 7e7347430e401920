package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"mindmap_backend/db"
	"mindmap_backend/mindmap"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
	formatTree = "tree"
)

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q (use %s)", format, strings.Join(allowed, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeTopics(w io.Writer, result mindmap.TopicsResult, format string) error {
	if result.Topics == nil {
		result.Topics = []string{}
	}
	switch format {
	case formatYAML:
		return writeYAML(w, result)
	case formatText:
		if len(result.Topics) == 0 {
			_, err := fmt.Fprintln(w, "No topics found.")
			return err
		}
		for i, topic := range result.Topics {
			if _, err := fmt.Fprintf(w, "%2d. %s\n", i+1, topic); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeJSON(w, result)
	}
}

func writeMindMap(w io.Writer, result mindmap.MindMapResult, format string, colorize bool) error {
	switch format {
	case formatYAML:
		return writeYAML(w, result)
	case formatTree:
		return mindmap.RenderTree(w, result.MindMap, colorize)
	default:
		return writeJSON(w, result)
	}
}

func writeRuns(w io.Writer, runs []db.RunRecord, format string) error {
	if runs == nil {
		runs = []db.RunRecord{}
	}
	switch format {
	case formatJSON:
		return writeJSON(w, map[string]any{"runs": runs})
	case formatYAML:
		return writeYAML(w, map[string]any{"runs": runs})
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tPIPELINE\tFILE\tTOPIC\tSTATUS\tDURATION\tRESULT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Pipeline,
			orDash(run.FileName),
			orDash(run.Topic),
			run.Status,
			time.Duration(run.DurationMS)*time.Millisecond,
			runOutcome(run),
		)
	}
	return tw.Flush()
}

func runOutcome(run db.RunRecord) string {
	switch {
	case run.ErrorKind != "":
		return run.ErrorKind
	case run.NodeCount > 0:
		return fmt.Sprintf("%d nodes", run.NodeCount)
	default:
		return fmt.Sprintf("%d topics", run.TopicCount)
	}
}

func writeStats(w io.Writer, stats db.RunStats, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, stats)
	case formatYAML:
		return writeYAML(w, stats)
	}
	fmt.Fprintf(w, "Runs: %d (%d succeeded, %d failed)\n", stats.Total, stats.Succeeded, stats.Failed)
	fmt.Fprintf(w, "Average duration: %.0fms\n", stats.AvgDurationMS)
	for _, kind := range slices.Sorted(maps.Keys(stats.ByErrorKind)) {
		fmt.Fprintf(w, "  %s: %d\n", kind, stats.ByErrorKind[kind])
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
