package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/plasmasim/internal/sweep"
)

var (
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		}).
		Headers(headers...).
		Rows(rows...)
}

// MatrixTable renders reactions as rows and grid temperatures as columns.
func MatrixTable(m *sweep.Matrix) string {
	headers := make([]string, 0, len(m.Grid)+1)
	headers = append(headers, "Reaction")
	for _, te := range m.Grid {
		headers = append(headers, fmt.Sprintf("%.1f eV", te))
	}

	rows := make([][]string, len(m.Reactions))
	for i, r := range m.Reactions {
		row := make([]string, 0, len(m.Grid)+1)
		row = append(row, r)
		for j := range m.Grid {
			row = append(row, m.Cell(i, j))
		}
		rows[i] = row
	}
	return newTable(headers, rows).Render()
}

// RecordsTable renders CSV records, the first record being the header.
func RecordsTable(records [][]string) string {
	if len(records) == 0 {
		return Subtle.Render("empty table")
	}
	return newTable(records[0], records[1:]).Render()
}
