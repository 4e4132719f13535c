package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/linkscan/internal/crawler"
	"github.com/nao1215/linkscan/internal/database"
	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// Directions of the broken link count between two runs.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [seed]",
		Short: "Compare broken links between stored runs",
		Long: `Compare shows how the broken links of a site changed between two runs
stored with --db:
- Newly broken links that were fine or unknown in the previous run
- Resolved links that were broken in the previous run and are not anymore
- Links that are still broken

Examples:
  # Compare the latest two runs for a seed
  linkscan compare --db links.db example.com

  # List stored runs for a seed
  linkscan compare --db links.db --list example.com

  # Compare the latest run with a specific run
  linkscan compare --db links.db --with-run-id 3 example.com

  # List every seed in the database
  linkscan compare --db links.db --list-seeds`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().String("db", "", "SQLite file written by linkscan --db")
	cmd.Flags().BoolP("list", "l", false, "List stored runs for the seed")
	cmd.Flags().BoolP("list-seeds", "L", false, "List every seed in the database")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().BoolP("json", "j", false, "Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output comparison result in Markdown format")

	_ = cmd.MarkFlagRequired("db") //nolint:errcheck // flag is defined above
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	dbPath, err := flags.GetString("db")
	if err != nil {
		return err
	}
	listSeeds, err := flags.GetBool("list-seeds")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var seed string
	if !listSeeds {
		if len(args) == 0 {
			return errors.New("seed is required (use --list-seeds to see stored seeds)")
		}
		seed, err = crawler.NormalizeSeed(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", args[0], err)
		}
	}

	db, err := database.Open(dbPath, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listSeeds {
		return listStoredSeeds(ctx, out, db)
	}

	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listRuns(ctx, out, db, seed)
	}

	withRunID, err := flags.GetInt64("with-run-id")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}

	comparison, err := loadComparison(ctx, db, seed, withRunID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

func listStoredSeeds(ctx context.Context, out io.Writer, db *database.RunDB) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return err
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No stored runs found in the database.")
		fmt.Fprintln(out, "\nUse 'linkscan --db <file> <seed>' to store a run.")
		return nil
	}

	fmt.Fprintf(out, "Stored seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	return nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, seed string) error {
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %s\n", seed)
		return nil
	}

	fmt.Fprintf(out, "Runs for %s (%d):\n\n", seed, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %8s  %8s\n", "ID", "Date", "Checked", "Broken")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 50))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %8d  %8d\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Total,
			run.Broken(),
		)
	}

	fmt.Fprintln(out, "\nUse 'linkscan compare --with-run-id <id> <seed>' to compare with a specific run.")
	return nil
}

// loadComparison compares the latest run of seed with the run before it,
// or with run withRunID when it is not zero.
func loadComparison(ctx context.Context, db *database.RunDB, seed string, withRunID int64) (*Comparison, error) {
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs found for %s", seed)
	}

	current := runs[0]
	var previous database.RunRecord

	switch {
	case withRunID > 0:
		run, err := db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("run with ID %d not found", withRunID)
		}
		if run.Seed != seed {
			return nil, fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, run.Seed, seed)
		}
		if run.ID == current.ID {
			return nil, fmt.Errorf("run ID %d is the latest run; pick an older one", withRunID)
		}
		previous = *run
	case len(runs) < 2:
		return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	default:
		previous = runs[1]
	}

	previousResults, err := db.GetResults(ctx, previous.ID)
	if err != nil {
		return nil, err
	}
	currentResults, err := db.GetResults(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	return compareRuns(previous, current, previousResults, currentResults), nil
}

// Comparison holds the difference between two runs of the same seed.
type Comparison struct {
	Seed string `json:"seed"`

	PreviousRun database.RunRecord `json:"previous_run"`
	CurrentRun  database.RunRecord `json:"current_run"`

	// NewlyBroken are broken in the current run and were not broken before.
	NewlyBroken []model.Result `json:"newly_broken,omitempty"`

	// Resolved were broken in the previous run and are not broken now,
	// either because they answer again or because nothing links to them.
	Resolved []model.Result `json:"resolved,omitempty"`

	// StillBroken are broken in both runs; the current result is kept.
	StillBroken []model.Result `json:"still_broken,omitempty"`

	// Direction is "improved", "worsened" or "unchanged".
	Direction string `json:"direction"`

	// BrokenDelta is the change in the number of broken links.
	BrokenDelta int `json:"broken_delta"`
}

// compareRuns diffs two result sets by URL. Results are expected sorted by
// URL, which keeps the output lists sorted too.
func compareRuns(previous, current database.RunRecord, previousResults, currentResults []model.Result) *Comparison {
	c := &Comparison{
		Seed:        current.Seed,
		PreviousRun: previous,
		CurrentRun:  current,
		BrokenDelta: current.Broken() - previous.Broken(),
	}

	wasBroken := make(map[string]bool, len(previousResults))
	for _, r := range previousResults {
		if r.IsBroken() {
			wasBroken[r.URL] = true
		}
	}

	isBroken := make(map[string]bool, len(currentResults))
	for _, r := range currentResults {
		if !r.IsBroken() {
			continue
		}
		isBroken[r.URL] = true
		if wasBroken[r.URL] {
			c.StillBroken = append(c.StillBroken, r)
		} else {
			c.NewlyBroken = append(c.NewlyBroken, r)
		}
	}

	for _, r := range previousResults {
		if r.IsBroken() && !isBroken[r.URL] {
			c.Resolved = append(c.Resolved, r)
		}
	}

	switch {
	case c.BrokenDelta < 0:
		c.Direction = directionImproved
	case c.BrokenDelta > 0:
		c.Direction = directionWorsened
	default:
		c.Direction = directionUnchanged
	}

	return c
}

func outputComparisonJSON(out io.Writer, c *Comparison) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

func outputComparisonText(out io.Writer, c *Comparison) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Comparison for %s\n", c.Seed)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Previous run: #%d  %s  %d checked, %d broken\n",
		c.PreviousRun.ID, c.PreviousRun.StartedAt.Local().Format(time.DateTime),
		c.PreviousRun.Total, c.PreviousRun.Broken())
	fmt.Fprintf(&sb, "Current run:  #%d  %s  %d checked, %d broken\n",
		c.CurrentRun.ID, c.CurrentRun.StartedAt.Local().Format(time.DateTime),
		c.CurrentRun.Total, c.CurrentRun.Broken())
	fmt.Fprintf(&sb, "Status:       %s (%s)\n", c.Direction, formatDelta(c.BrokenDelta))

	writeSection := func(title string, results []model.Result) {
		if len(results) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n%s (%d):\n", title, len(results))
		for _, r := range results {
			fmt.Fprintf(&sb, "  [%s] %s\n", r.StatusText(), r.URL)
		}
	}
	writeSection("Newly broken", c.NewlyBroken)
	writeSection("Resolved", c.Resolved)
	writeSection("Still broken", c.StillBroken)

	_, err := io.WriteString(out, sb.String())
	return err
}

func outputComparisonMarkdown(out io.Writer, c *Comparison) error {
	md := markdown.NewMarkdown(out)

	md.H1("Link Check Comparison: " + c.Seed)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", "#" + strconv.FormatInt(c.PreviousRun.ID, 10), "#" + strconv.FormatInt(c.CurrentRun.ID, 10), "-"},
			{"Date", c.PreviousRun.StartedAt.Format(time.RFC3339), c.CurrentRun.StartedAt.Format(time.RFC3339), "-"},
			{"Checked", strconv.Itoa(c.PreviousRun.Total), strconv.Itoa(c.CurrentRun.Total),
				formatDelta(c.CurrentRun.Total - c.PreviousRun.Total)},
			{"Broken", strconv.Itoa(c.PreviousRun.Broken()), strconv.Itoa(c.CurrentRun.Broken()),
				formatDelta(c.BrokenDelta)},
		},
	})
	md.PlainText("")

	switch c.Direction {
	case directionWorsened:
		md.Warningf("%d more broken links than the previous run.", c.BrokenDelta)
	case directionImproved:
		md.Tip(fmt.Sprintf("%d fewer broken links than the previous run.", -c.BrokenDelta))
	default:
		md.Note("The number of broken links is unchanged.")
	}
	md.PlainText("")

	writeSection := func(title string, results []model.Result) {
		if len(results) == 0 {
			return
		}
		md.H2(fmt.Sprintf("%s (%d)", title, len(results)))
		md.PlainText("")
		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{r.URL, r.StatusText()}
		}
		md.Table(markdown.TableSet{Header: []string{"URL", "Status"}, Rows: rows})
		md.PlainText("")
	}
	writeSection("Newly Broken", c.NewlyBroken)
	writeSection("Resolved", c.Resolved)
	writeSection("Still Broken", c.StillBroken)

	return md.Build()
}

// formatDelta formats a signed change, such as "+3", "-2" or "0".
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
