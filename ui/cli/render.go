// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/toeirei/labrador/internal/adapter"
)

// maxCellWidth truncates long values in table cells.
const maxCellWidth = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("1")).
			Padding(0, 1)
	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderResult draws a result page with its columns in order.
func renderResult(rs *adapter.ResultSet) string {
	rows := make([][]string, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		line := make([]string, len(rs.Columns))
		for i, c := range rs.Columns {
			line[i] = formatCell(r[c])
		}
		rows = append(rows, line)
	}
	return renderTable(rs.Columns, rows)
}

func formatCell(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		s = "NULL"
	case string:
		s = t
	case []byte:
		s = string(t)
	case time.Time:
		s = t.Format(time.RFC3339)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(b)
		}
	default:
		s = fmt.Sprint(t)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

// renderError draws the display fields of an adapter error as a panel.
func renderError(e *adapter.Error, notice string) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(string(e.Kind())))
	b.WriteString("\n")
	if notice != "" {
		b.WriteString(notice)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("adapter:"), e.Adapter())
	if e.App() != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("app:    "), e.App())
	}
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("message:"), e.Message())
	if d := strings.TrimSpace(e.Dump()); d != "" {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render(d))
	}
	return panelStyle.Render(b.String())
}
