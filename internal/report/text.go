package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tinytelemetry/sentrycli/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	totalStyle  = lipgloss.NewStyle().Bold(true)
)

// Text renders rep as a bordered table followed by the total event count.
// Attribute columns are left aligned, count and percentage right aligned.
func Text(rep *model.Report) string {
	headers := rep.Headers()
	rows := make([][]string, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		cells := make([]string, 0, len(headers))
		for _, v := range row.Values {
			cells = append(cells, FormatValue(v))
		}
		cells = append(cells, strconv.Itoa(row.Count), FormatPercent(row.Percent))
		rows = append(rows, cells)
	}

	numeric := len(rep.Columns)
	t := newTable(headers, rows, func(col int) bool { return col >= numeric })

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(totalStyle.Render(fmt.Sprintf("Total: %d", rep.Total)))
	b.WriteString("\n")
	return b.String()
}

func newTable(headers []string, rows [][]string, rightAligned func(col int) bool) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			if row == table.HeaderRow {
				style = headerStyle
			}
			if rightAligned != nil && rightAligned(col) {
				return style.Align(lipgloss.Right)
			}
			return style.Align(lipgloss.Left)
		})
}
