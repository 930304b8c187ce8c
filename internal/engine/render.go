package engine

import (
	"fmt"
	"strings"
	"time"
)

const (
	headerBanner = "======= REPORT ======="
	footerBanner = "======================"
)

// TimeLayout is used for the earliest/latest lines of a rendered report.
const TimeLayout = time.RFC3339Nano

// NoLogsMessage is the whole text of a report for a service without records.
func NoLogsMessage(service string) string {
	return fmt.Sprintf("No logs found for service %s\n", service)
}

// Render formats r with the fixed report template. Field order is part of
// the output contract.
func Render(r Report) string {
	if r.Empty() {
		return NoLogsMessage(r.Service)
	}

	var sb strings.Builder
	sb.WriteString(headerBanner + "\n")
	fmt.Fprintf(&sb, "Service name: %s\n", r.Service)
	fmt.Fprintf(&sb, "Earliest log time: %s\n", r.Earliest.Format(TimeLayout))
	fmt.Fprintf(&sb, "Latest log time: %s\n", r.Latest.Format(TimeLayout))
	fmt.Fprintf(&sb, "Severity slice info: %s\n", renderBuckets(r.Severities))
	fmt.Fprintf(&sb, "Category slice info: %s\n", renderBuckets(r.Categories))
	fmt.Fprintf(&sb, "Rotations amount: %d\n", r.RotationCount)
	sb.WriteString(footerBanner + "\n")
	return sb.String()
}

// renderBuckets writes "V: n (p%); " for every bucket, trailing separator included.
func renderBuckets(buckets []Bucket) string {
	var sb strings.Builder
	for _, b := range buckets {
		fmt.Fprintf(&sb, "%s: %d (%d%%); ", b.Value, b.Count, b.Percent)
	}
	return sb.String()
}
