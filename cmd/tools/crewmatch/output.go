// cmd/tools/crewmatch/output.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	ranklegs "crew-match-workers/internal/workers/matching/rank-legs"
)

var (
	goodScore = color.New(color.FgGreen, color.Bold)
	fairScore = color.New(color.FgYellow)
	poorScore = color.New(color.FgRed)
	dim       = color.New(color.FgHiBlack)
)

func render(w io.Writer, format string, out *ranklegs.Output) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table", "":
		return renderTable(w, out)
	default:
		return fmt.Errorf("unknown output format %q (table, json)", format)
	}
}

func renderTable(w io.Writer, out *ranklegs.Output) error {
	if len(out.RankedLegs) == 0 {
		fmt.Fprintln(w, "No legs to rank.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Leg", "Score", "Skills", "Departure", "Arrival", "Risk", "Experience", "Missing")

	for i, r := range out.RankedLegs {
		if err := table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.LegID,
			scoreColor(r.CompositeScore).Sprintf("%.1f", r.CompositeScore),
			fmt.Sprintf("%d%%", r.SkillMatchPercentage),
			proximity(r.DepartureProximity),
			proximity(r.ArrivalProximity),
			check(r.RiskMatches),
			check(r.ExperienceMatches),
			strings.Join(r.MissingSkills, ", "),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, dim.Sprintf("run %s: %d of %d candidate legs shown", out.RunID, len(out.RankedLegs), out.TotalCandidates))
	return nil
}

func scoreColor(score float64) *color.Color {
	switch {
	case score >= 75:
		return goodScore
	case score >= 50:
		return fairScore
	default:
		return poorScore
	}
}

func proximity(v *float64) string {
	if v == nil {
		return dim.Sprint("-")
	}
	return fmt.Sprintf("%.1f", *v)
}

func check(ok bool) string {
	if ok {
		return goodScore.Sprint("yes")
	}
	return poorScore.Sprint("no")
}
