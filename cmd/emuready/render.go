package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sternrassler/emuready-client/pkg/emuready"
	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
)

// renderTable prints data (header row first) as a table.
func renderTable(w io.Writer, data [][]string, more bool) error {
	if len(data) <= 1 {
		fmt.Fprint(w, pterm.Info.Sprintln("No results"))
		return nil
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(w, out)

	if more {
		fmt.Fprint(w, pterm.Info.Sprintln("More results available, continue with --page"))
	}
	return nil
}

// renderBox prints label/value pairs in a titled box.
func renderBox(w io.Writer, title string, fields [][2]string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", pterm.Bold.Sprint(f[0]), f[1])
	}
	fmt.Fprintln(w, pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(b.String()))
	return nil
}

func gameRows(games []emuready.Game) [][]string {
	rows := [][]string{{"ID", "Title", "System"}}
	for _, g := range games {
		rows = append(rows, []string{g.ID, g.Title, systemName(g)})
	}
	return rows
}

func listingRows(listings []emuready.Listing) [][]string {
	rows := [][]string{{"ID", "Game", "Device", "Emulator", "Performance"}}
	for _, l := range listings {
		rows = append(rows, []string{l.ID, gameTitle(l), l.Device.Name(), emulatorName(l), performanceLabel(l)})
	}
	return rows
}

func summaryRows(summaries []emuready.GameSummary) [][]string {
	rows := [][]string{{"Game", "System", "Listings", "Score"}}
	for _, s := range summaries {
		title := s.Game.Title
		if title == "" {
			title = s.Game.ID
		}
		rows = append(rows, []string{title, systemName(s.Game), strconv.Itoa(s.Listings), score(s.Score)})
	}
	return rows
}

func gameFields(g *emuready.Game) [][2]string {
	fields := [][2]string{
		{"ID", g.ID},
		{"System", systemName(*g)},
	}
	if g.ImageURL != "" {
		fields = append(fields, [2]string{"Image", g.ImageURL})
	}
	return fields
}

func listingFields(l *emuready.Listing) [][2]string {
	fields := [][2]string{
		{"Game", gameTitle(*l)},
		{"Device", l.Device.Name()},
		{"Emulator", emulatorName(*l)},
		{"Performance", performanceLabel(*l)},
	}
	if !l.CreatedAt.IsZero() {
		fields = append(fields, [2]string{"Reported", l.CreatedAt.Format("2006-01-02")})
	}
	if l.Notes != "" {
		fields = append(fields, [2]string{"Notes", l.Notes})
	}
	return fields
}

func systemName(g emuready.Game) string {
	if g.System != nil && g.System.Name != "" {
		return g.System.Name
	}
	return g.SystemID
}

func gameTitle(l emuready.Listing) string {
	if l.Game != nil && l.Game.Title != "" {
		return l.Game.Title
	}
	return l.GameID
}

func emulatorName(l emuready.Listing) string {
	if l.Emulator == nil {
		return ""
	}
	return l.Emulator.Name
}

func performanceLabel(l emuready.Listing) string {
	if l.Performance == nil {
		return "unrated"
	}
	return l.Performance.Label
}

// score formats a [0,1] score as a percentage with at most one decimal.
func score(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v*100, 'f', 1, 64), ".0") + "%"
}

// renderStats prints the module's counters gathered from g.
func renderStats(w io.Writer, g prometheus.Gatherer) error {
	samples, err := metrics.Snapshot(g, metrics.Prefix)
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	data := [][]string{{"Metric", "Value"}}
	for _, s := range samples {
		data = append(data, []string{s.Name, strconv.FormatFloat(s.Value, 'f', -1, 64)})
	}
	return renderTable(w, data, false)
}
