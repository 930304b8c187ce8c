package model

import "time"

// LogRecord is one parsed log line. It is never modified after parsing.
type LogRecord struct {
	CreatedAt time.Time `json:"created_at"`
	Severity  string    `json:"severity"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
}

// The accessors below let the record satisfy recordql.Record without
// the query package depending on this one.

func (r *LogRecord) GetTime() time.Time  { return r.CreatedAt }
func (r *LogRecord) GetSeverity() string { return r.Severity }
func (r *LogRecord) GetCategory() string { return r.Category }
func (r *LogRecord) GetMessage() string  { return r.Message }

// LogGroup holds every record found for one service identity, in file order.
type LogGroup struct {
	Service       string
	RotationCount int
	Files         []string
	Records       []LogRecord
}
