package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/layout"
	"github.com/hyperjump/waygraph/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteResults writes ingest results to w in the given format.
func WriteResults(w io.Writer, results []*ingest.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "#%d %s\n", r.Index, r.ID)
		switch {
		case r.RelatedTo != "":
			fmt.Fprintf(w, "  linked to %s (distance %.4f)\n", r.RelatedTo, r.Distance)
		case r.Distance >= 0:
			fmt.Fprintf(w, "  unlinked (nearest distance %.4f)\n", r.Distance)
		default:
			fmt.Fprintln(w, "  unlinked (first note)")
		}
		fmt.Fprintf(w, "  %s\n", utils.Truncate(r.Content, 120))
	}
	return nil
}

// WriteLayout writes node positions and edges of snap to w in the given format.
func WriteLayout(w io.Writer, snap layout.Snapshot, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, snap)
	}
	fmt.Fprintf(w, "tick %d, %gx%g canvas, %d nodes, %d edges\n",
		snap.Tick, snap.Width, snap.Height, len(snap.Nodes), len(snap.Edges))
	for _, n := range snap.Nodes {
		fmt.Fprintf(w, "%-36s (%8.2f, %8.2f)  %s\n", n.ID, n.Position.X, n.Position.Y, n.Label)
	}
	for _, e := range snap.Edges {
		fmt.Fprintf(w, "%s -> %s [%s]\n", e.Source, e.Target, e.Kind)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readLines returns the non-blank lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
