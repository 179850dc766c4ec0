package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// barWidth is the width of the share bar in the browser.
const barWidth = 20

// browseCommand creates the interactive sunburst browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		levels  string
		preset  string
		noCache bool
	)
	opts := pipeline.Options{Kind: chart.KindSunburst}

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Explore a sunburst interactively",
		Long: `Explore a sunburst interactively.

The browser lists the children of the focused arc with their value, share and
angular span after zooming. Enter zooms into the selected arc, backspace zooms
back out to its parent.

Either pass a source with --levels and --measure, or name a sunburst preset
from the config file with --preset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset != "" {
				p, err := c.preset(preset)
				if err != nil {
					return err
				}
				opts = p.Options
			} else {
				if len(args) == 0 {
					return errors.New(errors.ErrCodeInvalidInput, "browse needs a source or --preset")
				}
				opts.Source = args[0]
				opts.Levels = parseList(levels)
			}
			return c.runBrowse(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&levels, "levels", "l", "", "comma-separated grouping fields, outermost first")
	cmd.Flags().StringVarP(&opts.Measure, "measure", "m", "", "numeric column summed at the leaves")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "start zoomed onto this arc path (a/b/c, write / inside a key as \\/)")
	cmd.Flags().IntVar(&opts.Rings, "rings", chart.DefaultRings, "rings visible around the center")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "order children by descending value")
	cmd.Flags().StringVar(&preset, "preset", "", "sunburst preset from the config file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if opts.Kind != chart.KindSunburst {
		return errors.New(errors.ErrCodeUnsupported, "browse needs a sunburst, not %s", opts.Kind)
	}
	focus := opts.Focus
	opts.Focus = ""
	opts.Formats = []string{pipeline.FormatJSON}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Aggregating...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}

	root, err := res.Chart.Sunburst.Tree()
	if err != nil {
		return err
	}
	m := NewBrowseModel(hierarchy.Partition(root), opts.Measure, res.Chart.Sunburst.Rings)
	if focus != "" {
		target := m.Root.Find(chart.FocusPath(focus)...)
		if target == nil {
			return errors.New(errors.ErrCodeNotFound, "focus %q not found", focus).In(errors.StageAggregate)
		}
		m = m.zoom(target)
		if m.Err != nil {
			return m.Err
		}
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// BrowseModel - Interactive sunburst zoom
// =============================================================================

// BrowseModel is the bubbletea model for zooming through a sunburst.
type BrowseModel struct {
	Root    *hierarchy.Arc
	Focus   *hierarchy.Arc
	Measure string
	Rings   int
	Cursor  int
	Height  int
	Offset  int

	// Err holds the last refused zoom, shown in the footer.
	Err error
}

// NewBrowseModel creates a browser focused on root.
func NewBrowseModel(root *hierarchy.Arc, measure string, rings int) BrowseModel {
	if rings <= 0 {
		rings = chart.DefaultRings
	}
	hierarchy.Reset(root)
	return BrowseModel{
		Root:    root,
		Focus:   root,
		Measure: measure,
		Rings:   rings,
		Height:  15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		kids := m.Focus.Children
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(kids)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if len(kids) > 0 {
				m = m.zoom(kids[m.Cursor])
			}
		case "backspace", "left", "h":
			if m.Focus.Parent != nil {
				m = m.zoom(m.Focus.Parent)
			}
		case "home", "0":
			m = m.zoom(m.Root)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// zoom reframes the layout onto target. Leaves and zero-span arcs are
// refused and reported through Err.
func (m BrowseModel) zoom(target *hierarchy.Arc) BrowseModel {
	if len(target.Children) == 0 {
		m.Err = errors.New(errors.ErrCodeInvalidInput, "%q is a leaf", target.Title())
		return m
	}
	if target == m.Root {
		hierarchy.Reset(m.Root)
	} else if err := hierarchy.Reframe(m.Root, target); err != nil {
		m.Err = err
		return m
	}
	prev := m.Focus
	m.Focus, m.Err = target, nil
	m.Cursor, m.Offset = 0, 0
	// Zooming out keeps the cursor on the arc we came from.
	for i, c := range target.Children {
		if c == prev {
			m.Cursor = i
			m.Offset = max(0, i-m.Height+1)
		}
	}
	return m
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := "All"
	if m.Focus != m.Root {
		title = strings.Join(m.Focus.Path(), " › ")
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s %s", m.Measure, formatNumber(m.Focus.Value()))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ zoom in  ⌫ zoom out  q quit"))
	b.WriteString("\n\n")

	kids := m.Focus.Children
	end := min(m.Offset+m.Height, len(kids))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		a := kids[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		share := 0.0
		if m.Focus.Value() > 0 {
			share = a.Value() / m.Focus.Value()
		}
		rows = append(rows, []string{
			cursor,
			a.Key(),
			formatNumber(a.Value()),
			fmt.Sprintf("%5.1f%%", 100*share),
			fmt.Sprintf("%5.1f°", degrees(a.Current.Span())),
			bar(share, barWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Arc", "Value", "Share", "Span", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(kids) {
				return lipgloss.NewStyle()
			}
			a := kids[idx]
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case !a.Current.Visible(m.Rings):
				return listDimStyle
			default:
				return listNormalStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  depth %d", min(m.Cursor+1, len(kids)), len(kids), m.Focus.Depth())))
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("  " + errors.UserMessage(m.Err)))
	}

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// bar draws share (0..1) as a block bar of width cells.
func bar(share float64, width int) string {
	n := int(math.Round(max(0, min(1, share)) * float64(width)))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}
