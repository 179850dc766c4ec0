package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/config"
	"github.com/matzehuels/healthviz/pkg/rates"
)

// maxTableRows bounds the printed sunburst table.
const maxTableRows = 25

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// newTable returns a bordered table in the CLI style. Columns listed in
// numeric are right-aligned and drawn in the number color.
func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	isNumeric := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		isNumeric[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if isNumeric[col] {
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			}
			return base.Foreground(colorWhite)
		})
}

// sunburstTable lists the visible arcs of s with their share of the focus.
func sunburstTable(s *chart.Sunburst) string {
	focusValue := s.Total
	for _, a := range s.Arcs {
		if s.Focus != "" && a.Path == s.Focus {
			focusValue = a.Value
			break
		}
	}

	var rows [][]string
	hidden := 0
	for _, a := range s.Arcs {
		if !a.Visible {
			continue
		}
		if len(rows) == maxTableRows {
			hidden++
			continue
		}
		indent := strings.Repeat("  ", max(0, int(a.Frame.Y0)-1))
		rows = append(rows, []string{
			indent + a.Key,
			formatNumber(a.Value),
			formatShare(a.Value, focusValue),
			fmt.Sprint(a.Rows),
		})
	}

	out := newTable([]string{"Arc", "Value", "Share", "Rows"}, rows, 1, 2, 3).Render()
	if hidden > 0 {
		out += "\n" + StyleDim.Render(fmt.Sprintf("  … %d more arcs", hidden))
	}
	return out
}

// legendTable lists flow nodes grouped by the stage they first appear in.
func legendTable(f *chart.Flow) string {
	values := make(map[int]float64, len(f.Nodes))
	for _, n := range f.Nodes {
		values[n.ID] = n.Value
	}

	var rows [][]string
	for _, g := range f.Legend {
		for i, n := range g.Nodes {
			stage := ""
			if i == 0 {
				stage = g.Field
			}
			rows = append(rows, []string{stage, n.Label, formatNumber(values[n.ID])})
		}
	}
	return newTable([]string{"Stage", "Node", "Value"}, rows, 2).Render()
}

// ratesTable renders a per-year snapshot. Entities without a record show
// [rates.NotAvailable].
func ratesTable(snap []rates.SnapshotRow) string {
	rows := make([][]string, 0, len(snap))
	for _, r := range snap {
		if !r.Available() {
			rows = append(rows, []string{r.Entity, fmt.Sprint(r.Population), rates.NotAvailable, ""})
			continue
		}
		rows = append(rows, []string{
			r.Entity,
			fmt.Sprint(r.Population),
			fmt.Sprintf("%.2f%%", r.Record.Rate),
			fmt.Sprint(r.Record.DerivedCount),
		})
	}
	return newTable([]string{"Entity", "Population", "Rate", "Count"}, rows, 1, 3).Render()
}

// presetsTable lists configured chart presets.
func presetsTable(presets []config.Preset) string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		rows = append(rows, []string{p.Name, p.Kind, p.Source, presetFields(p)})
	}
	return newTable([]string{"Name", "Kind", "Source", "Fields"}, rows).Render()
}

func presetFields(p config.Preset) string {
	switch p.Kind {
	case chart.KindSunburst:
		return joinList(p.Levels) + " ∑ " + p.Measure
	case chart.KindFlow:
		return strings.Join(p.Stages, " → ") + " by " + p.Weight
	case chart.KindRates:
		return fmt.Sprintf("%s × %s, %d-%d", p.Entity, p.PopulationField, p.StartYear, p.EndYear)
	}
	return ""
}

func formatShare(v, total float64) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*v/total)
}
