// Package ui renders reports for terminals.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/coffersTech/logreport/internal/engine"
)

const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
	leftT       = "├"
	rightT      = "┤"
	topT        = "┬"
	bottomT     = "┴"
	cross       = "┼"
)

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	serviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var headers = []string{"Service", "Records", "Rotations", "Earliest", "Latest", "Top severity", "Top category"}

// maxCell truncates long values so one service cannot blow up the table.
const maxCell = 36

// WriteReportTable writes one row per report in a box table followed by a
// one-line summary.
func WriteReportTable(w io.Writer, reports []engine.Report) error {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = reportRow(r)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = min(cw, maxCell)
			}
		}
	}

	var sb strings.Builder
	border(&sb, widths, topLeft, topT, topRight)

	sb.WriteString(borderStyle.Render(vertical))
	for i, h := range headers {
		sb.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
		sb.WriteString(borderStyle.Render(vertical))
	}
	sb.WriteString("\n")
	border(&sb, widths, leftT, cross, rightT)

	total := 0
	for ri, row := range rows {
		total += reports[ri].Total
		sb.WriteString(borderStyle.Render(vertical))
		for i, cell := range row {
			style := cellStyle
			switch {
			case i == 0:
				style = serviceStyle
			case i == 1 || i == 2:
				style = countStyle
			case reports[ri].Empty():
				style = mutedStyle
			}
			sb.WriteString(style.Render(" " + padRight(cell, widths[i]) + " "))
			sb.WriteString(borderStyle.Render(vertical))
		}
		sb.WriteString("\n")
	}
	border(&sb, widths, bottomLeft, bottomT, bottomRight)

	fmt.Fprintf(&sb, "%s\n", mutedStyle.Render(fmt.Sprintf("%d services, %d records", len(reports), total)))
	_, err := io.WriteString(w, sb.String())
	return err
}

func reportRow(r engine.Report) []string {
	row := []string{r.Service, strconv.Itoa(r.Total), strconv.Itoa(r.RotationCount), "-", "-", "-", "-"}
	if r.Empty() {
		return row
	}
	row[3] = r.Earliest.Format(engine.TimeLayout)
	row[4] = r.Latest.Format(engine.TimeLayout)
	row[5] = topBucket(r.Severities)
	row[6] = topBucket(r.Categories)
	return row
}

// topBucket names the most frequent value; ties go to the first seen.
func topBucket(buckets []engine.Bucket) string {
	if len(buckets) == 0 {
		return "-"
	}
	top := buckets[0]
	for _, b := range buckets[1:] {
		if b.Count > top.Count {
			top = b
		}
	}
	return fmt.Sprintf("%s (%d%%)", top.Value, top.Percent)
}

func border(sb *strings.Builder, widths []int, left, mid, right string) {
	sb.WriteString(borderStyle.Render(left))
	for i, w := range widths {
		sb.WriteString(borderStyle.Render(strings.Repeat(horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(borderStyle.Render(mid))
		}
	}
	sb.WriteString(borderStyle.Render(right))
	sb.WriteString("\n")
}

// padRight pads s to the given display width, truncating when it is wider.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw > width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
