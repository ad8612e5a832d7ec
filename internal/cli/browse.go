package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/formulagraph/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newBrowseCmd creates the browse command for the interactive formula list.
func newBrowseCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "browse [dataset.json]",
		Short: "Browse formulas interactively in the terminal",
		Long: `Browse formulas interactively in the terminal.

With a dataset file argument the formulas are read from JSON; without one
the configured store is loaded. Use / to filter by principle text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}

			ds, err := loadDataset(cmd.Context(), input, configPath)
			if err != nil {
				return err
			}
			if len(ds.Formulas) == 0 {
				printInfo("no formulas to browse")
				return nil
			}

			model := NewFormulaListModel(ds.Formulas, ds.Domains)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file (store input)")

	return cmd
}

// =============================================================================
// FormulaListModel - Interactive formula browsing
// =============================================================================

// formulaRow is one display row with its domains pre-resolved.
type formulaRow struct {
	Principle string
	Reference string
	Domains   []graph.DomainInfo
}

// FormulaListModel is the bubbletea model for browsing formulas.
type FormulaListModel struct {
	Rows    []formulaRow
	Cursor  int
	Height  int
	Offset  int
	Query   string
	Typing  bool
	visible []int // indexes into Rows matching the current query
}

// NewFormulaListModel creates a formula list over the given records.
func NewFormulaListModel(formulas []graph.Formula, domains []graph.Domain) FormulaListModel {
	lookup := graph.BuildLookup(domains)
	rows := make([]formulaRow, len(formulas))
	for i := range formulas {
		rows[i] = formulaRow{
			Principle: formulas[i].Principle,
			Reference: formulas[i].Reference,
			Domains:   graph.ResolveDomains(&formulas[i], lookup),
		}
	}

	m := FormulaListModel{
		Rows:   rows,
		Height: 15,
	}
	m.refilter()
	return m
}

// refilter recomputes the visible rows for the current query.
func (m *FormulaListModel) refilter() {
	needle := strings.ToLower(m.Query)
	m.visible = m.visible[:0]
	for i, r := range m.Rows {
		if needle == "" || strings.Contains(strings.ToLower(r.Principle), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.Cursor >= len(m.visible) {
		m.Cursor = 0
	}
	m.Offset = 0
}

func (m FormulaListModel) Init() tea.Cmd {
	return nil
}

func (m FormulaListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Typing {
			switch msg.String() {
			case "enter", "esc":
				m.Typing = false
			case "backspace":
				if m.Query != "" {
					m.Query = m.Query[:len(m.Query)-1]
					m.refilter()
				}
			case "ctrl+c":
				return m, tea.Quit
			default:
				if len(msg.Runes) > 0 {
					m.Query += string(msg.Runes)
					m.refilter()
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "/":
			m.Typing = true
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FormulaListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Formulas"))
	b.WriteString("\n")
	if m.Typing {
		b.WriteString(listDimStyle.Render("search: ") + StyleValue.Render(m.Query+"▌"))
	} else {
		hint := "↑/↓ navigate  / search  q quit"
		if m.Query != "" {
			hint = fmt.Sprintf("filter: %q  ·  %s", m.Query, hint)
		}
		b.WriteString(listDimStyle.Render(hint))
	}
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.visible) {
		end = len(m.visible)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[m.visible[i]]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		names := make([]string, len(r.Domains))
		for j, d := range r.Domains {
			names[j] = d.Name
		}
		domainStr := "—"
		if len(names) > 0 {
			domainStr = strings.Join(names, ", ")
		}

		reference := r.Reference
		if reference == "" {
			reference = "—"
		}

		rows = append(rows, []string{cursor, r.Principle, domainStr, reference})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Principle", "Domains", "Reference").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 3 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))

	return b.String()
}
