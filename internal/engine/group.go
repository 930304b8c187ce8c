package engine

import "github.com/coffersTech/logreport/internal/model"

// groupRecords partitions per-file records by service identity. files and
// records are parallel slices in discovery order; every identity gets a
// group even when none of its files yielded a record.
func groupRecords(files []LogFile, records [][]model.LogRecord) []model.LogGroup {
	var groups []model.LogGroup
	index := make(map[string]int)

	for i, f := range files {
		gi, ok := index[f.Service]
		if !ok {
			gi = len(groups)
			index[f.Service] = gi
			groups = append(groups, model.LogGroup{Service: f.Service})
		}
		g := &groups[gi]
		g.Files = append(g.Files, f.Path)
		g.RotationCount++
		g.Records = append(g.Records, records[i]...)
	}

	return groups
}
