// Package report renders a simulation report for the terminal
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/anggasct/stoplight"
	"github.com/anggasct/stoplight/pkg/core"
)

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	successColor = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	okStyle = lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// Render returns the report as a set of bordered panels
func Render(r *stoplight.Report) string {
	if r == nil {
		return ""
	}

	summary := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Run "+shortID(r.RunID)),
		row("cars", fmt.Sprintf("%d spawned, %d completed of %d", r.Spawned, r.Completed, r.Cars)),
		row("strategy", strategy(r)),
		row("retries", fmt.Sprintf("%d", r.Retries)),
		row("max inside", fmt.Sprintf("%d", r.MaxConcurrent)),
		row("waiting", r.WaitTime.Round(time.Microsecond).String()),
		row("elapsed", r.Elapsed.Round(time.Microsecond).String()),
		row("status", status(r)),
	))

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append(
			[]string{titleStyle.Render("Routes")}, routeRows(r.RouteCounts)...)...)),
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append(
			[]string{titleStyle.Render("Quadrants")}, quadrantRows(r.QuadrantEntries)...)...)),
	)

	sections := []string{summary, panels}
	if problems := problemRows(r); len(problems) > 0 {
		sections = append(sections, boxStyle.BorderForeground(errorColor).Render(
			lipgloss.JoinVertical(lipgloss.Left, append(
				[]string{failStyle.Render("Problems")}, problems...)...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func strategy(r *stoplight.Report) string {
	if r.Ranked {
		return r.Strategy + ", ranked order"
	}
	return r.Strategy
}

func status(r *stoplight.Report) string {
	if r.OK() {
		return okStyle.Render("OK")
	}
	return failStyle.Render("FAILED")
}

func routeRows(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, row(k, fmt.Sprintf("%d", counts[k])))
	}
	if len(rows) == 0 {
		rows = append(rows, labelStyle.Render("none"))
	}
	return rows
}

func quadrantRows(entries map[core.Quadrant]int) []string {
	rows := make([]string, 0, len(core.AllQuadrants))
	for _, q := range core.AllQuadrants {
		rows = append(rows, row(q.String(), fmt.Sprintf("%d %s", entries[q], strings.Repeat("▪", entries[q]))))
	}
	return rows
}

func problemRows(r *stoplight.Report) []string {
	var rows []string
	for _, v := range r.Violations {
		rows = append(rows, "violation: "+v)
	}
	for _, e := range r.Errors {
		rows = append(rows, "error: "+e)
	}
	return rows
}
