package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	keptStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("46"))
)

const maxTextWidth = 72

func printCandidates(w io.Writer, cands []entity.DecisionCandidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "No candidates.")
		return
	}
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		kept := ""
		if c.Kept {
			kept = "✓"
		}
		rows = append(rows, []string{
			c.ID,
			c.DocLabel,
			strconv.Itoa(c.PageNumber),
			strconv.Itoa(c.DecisionScore),
			string(c.CandidateType),
			string(c.Category),
			strings.Join(c.TimeAnchors, ", "),
			strconv.Itoa(c.SupportingCount),
			kept,
			truncate(c.DecisionText, maxTextWidth),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("ID", "DOCUMENT", "PAGE", "SCORE", "TYPE", "CATEGORY", "ANCHORS", "SEEN", "KEPT", "DECISION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 8:
				return keptStyle
			case col == 0 || col == 6:
				return dimStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(w, t.Render())
}

func printDocuments(w io.Writer, docs []entity.Document) {
	if len(docs) == 0 {
		return
	}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		note := d.PauseMessage
		if d.Error != "" {
			note = d.Error
		}
		rows = append(rows, []string{
			d.Label,
			string(d.Status),
			fmt.Sprintf("%d/%d", d.ProcessedPages, d.TotalPages),
			string(d.QualityTier),
			strconv.Itoa(d.CandidateCount),
			strconv.Itoa(d.SignalCount),
			truncate(note, maxTextWidth),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("DOCUMENT", "STATUS", "PAGES", "TIER", "CANDIDATES", "SIGNALS", "NOTE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
