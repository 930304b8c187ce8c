package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/coffersTech/logreport/internal/model"
)

// linePattern matches [timestamp][severity][category]message.
// The bracketed fields are non-greedy, so the first "][" closes a field.
var linePattern = regexp.MustCompile(`^\[(.*?)\]\[(.*?)\]\[(.*?)\](.*)$`)

// DefaultTimestampLayouts accepts RFC 3339 with optional fractional seconds.
var DefaultTimestampLayouts = []string{time.RFC3339Nano}

// LineParser turns raw log lines into records.
type LineParser struct {
	layouts []string
}

// NewLineParser returns a parser that accepts timestamps in any of layouts,
// tried in order. With no layouts it uses DefaultTimestampLayouts.
func NewLineParser(layouts ...string) *LineParser {
	if len(layouts) == 0 {
		layouts = DefaultTimestampLayouts
	}
	return &LineParser{layouts: layouts}
}

// Parse returns the record for line. It reports false for lines that do not
// have the bracketed shape or whose timestamp matches no layout; such lines
// are dropped without error.
func (p *LineParser) Parse(line string) (model.LogRecord, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return model.LogRecord{}, false
	}

	ts, ok := p.parseTime(strings.TrimSpace(m[1]))
	if !ok {
		return model.LogRecord{}, false
	}

	return model.LogRecord{
		CreatedAt: ts,
		Severity:  m[2],
		Category:  m[3],
		Message:   m[4],
	}, true
}

func (p *LineParser) parseTime(s string) (time.Time, bool) {
	for _, layout := range p.layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
