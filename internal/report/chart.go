package report

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/sentrycli/internal/model"
)

var (
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39"))
	undatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Background(lipgloss.Color("244"))
)

// Chart draws a time-bucket report as a bar chart, one bar per bucket in
// report order. Only the first column is used as the bar label.
func Chart(rep *model.Report, width, height int) string {
	if len(rep.Rows) == 0 {
		return ""
	}
	if width < 10 {
		width = 10
	}
	if height < 4 {
		height = 4
	}

	gap := 1
	barWidth := (width - gap*(len(rep.Rows)-1)) / len(rep.Rows)
	if barWidth < 1 {
		barWidth = 1
	}
	if barWidth > 7 {
		barWidth = 7
	}

	bc := barchart.New(width, height,
		barchart.WithBarGap(gap),
		barchart.WithBarWidth(barWidth),
	)
	for _, row := range rep.Rows {
		style := barStyle
		label := "None"
		if len(row.Values) > 0 && row.Values[0] != nil {
			label = FormatValue(row.Values[0])
		} else {
			style = undatedStyle
		}
		bc.Push(barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: label, Value: float64(row.Count), Style: style},
			},
		})
	}
	bc.Draw()
	return bc.View()
}
