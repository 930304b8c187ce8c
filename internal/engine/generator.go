package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/coffersTech/logreport/internal/model"
	"github.com/coffersTech/logreport/internal/pkg/recordql"
)

// Options configures a Generator.
type Options struct {
	// Root is the directory relative logs paths are resolved against.
	Root string
	// TimestampLayouts are tried in order when parsing the first field of a line.
	TimestampLayouts []string
	// Workers bounds how many files are parsed at once.
	Workers int
	// MaxLineBytes drops longer lines; <= 0 means unlimited.
	MaxLineBytes int
	Logger       *slog.Logger
}

// Generator runs the discover, parse, group and aggregate pipeline. It keeps
// no state between calls and is safe for concurrent use.
type Generator struct {
	root    string
	parser  *LineParser
	workers int
	maxLine int
	logger  *slog.Logger
}

// NewGenerator creates a Generator from opts, filling in defaults.
func NewGenerator(opts Options) *Generator {
	root := opts.Root
	if root == "" {
		root = string(filepath.Separator)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		root:    root,
		parser:  NewLineParser(opts.TimestampLayouts...),
		workers: workers,
		maxLine: opts.MaxLineBytes,
		logger:  logger,
	}
}

// Resolve maps a caller-supplied logs path onto the generator root. ".."
// elements cannot climb above the root.
func (g *Generator) Resolve(logsPath string) string {
	return filepath.Join(g.root, filepath.Clean(string(filepath.Separator)+logsPath))
}

// GenerateReport builds one report per service identity found for
// serviceName under logsPath.
func (g *Generator) GenerateReport(ctx context.Context, serviceName, logsPath string) ([]Report, error) {
	return g.GenerateFiltered(ctx, serviceName, logsPath, "")
}

// GenerateFiltered is GenerateReport restricted to the records matching query.
// Groups whose records are all filtered out still produce a report.
func (g *Generator) GenerateFiltered(ctx context.Context, serviceName, logsPath, query string) ([]Report, error) {
	groups, err := g.collect(ctx, serviceName, logsPath, query)
	if err != nil {
		return nil, err
	}
	reports := make([]Report, 0, len(groups))
	for _, group := range groups {
		reports = append(reports, Summarize(group))
	}
	return reports, nil
}

// Histogram counts the matching records of every service per interval.
func (g *Generator) Histogram(ctx context.Context, serviceName, logsPath, query string, interval time.Duration) ([]ServiceHistogram, error) {
	if interval <= 0 {
		return nil, invalidQuery(errors.New("histogram interval must be positive"))
	}
	groups, err := g.collect(ctx, serviceName, logsPath, query)
	if err != nil {
		return nil, err
	}
	out := make([]ServiceHistogram, 0, len(groups))
	for _, group := range groups {
		out = append(out, ServiceHistogram{
			Service: group.Service,
			Points:  ComputeHistogram(group.Records, interval),
		})
	}
	return out, nil
}

// collect runs discovery, parsing and grouping.
func (g *Generator) collect(ctx context.Context, serviceName, logsPath, query string) ([]model.LogGroup, error) {
	filter, err := recordql.Parse(query)
	if err != nil {
		return nil, invalidQuery(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	dir := g.Resolve(logsPath)
	files, err := Discover(dir, serviceName)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("discovered log files", "dir", dir, "service", serviceName, "files", len(files))

	records, err := g.parseFiles(ctx, files, filter)
	if err != nil {
		return nil, err
	}
	return groupRecords(files, records), nil
}

// parseFiles reads files concurrently. Each worker writes only its own slot,
// so the result order is the discovery order whatever the read order was.
func (g *Generator) parseFiles(ctx context.Context, files []LogFile, filter recordql.Node) ([][]model.LogRecord, error) {
	results := make([][]model.LogRecord, len(files))
	errs := make([]error, len(files))

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, g.workers)
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f LogFile) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-workCtx.Done():
				errs[i] = workCtx.Err()
				return
			}
			defer func() { <-sem }()

			recs, err := g.parseFile(workCtx, f, filter)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = recs
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}
	for i, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		return nil, ioFailure(files[i].Path, err)
	}
	return results, nil
}

func (g *Generator) parseFile(ctx context.Context, f LogFile, filter recordql.Node) ([]model.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := openLogFile(f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var records []model.LogRecord
	lines := 0
	err = readLines(ctx, rc, g.maxLine, func(line string) {
		lines++
		rec, ok := g.parser.Parse(line)
		if !ok || !recordql.Match(filter, &rec) {
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("parsed log file", "file", f.Name, "lines", lines, "records", len(records))
	return records, nil
}
