package engine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// AllServices selects every service family found in a directory.
const AllServices = "*"

// LogFile is one member of a service's log family.
type LogFile struct {
	Path        string
	Name        string
	Service     string // identity: the file name up to the first '.'
	Rotation    int    // rotation index N, or -1 for the current file
	Compression string // "", "gz" or "zst"
}

// Current reports whether f is the active, non-rotated file.
func (f LogFile) Current() bool {
	return f.Rotation < 0
}

// familyMatcher recognises <svc>.<N>.log[.gz|.zst] and <svc>.log names.
type familyMatcher struct {
	rotated *regexp.Regexp
	current *regexp.Regexp
}

func newFamilyMatcher(service string) familyMatcher {
	svc := `(.+?)`
	if service != "" && service != AllServices {
		svc = `(` + regexp.QuoteMeta(service) + `)`
	}
	return familyMatcher{
		rotated: regexp.MustCompile(`^` + svc + `\.(\d+)\.log(?:\.(gz|zst))?$`),
		current: regexp.MustCompile(`^` + svc + `\.log$`),
	}
}

// match returns the LogFile for name, or false if name is not in the family.
func (m familyMatcher) match(name string) (LogFile, bool) {
	if sub := m.rotated.FindStringSubmatch(name); sub != nil {
		n, err := strconv.ParseUint(sub[2], 10, 31)
		if err != nil {
			return LogFile{}, false
		}
		return LogFile{
			Name:        name,
			Service:     serviceIdentity(name),
			Rotation:    int(n),
			Compression: sub[3],
		}, true
	}
	if m.current.MatchString(name) {
		return LogFile{Name: name, Service: serviceIdentity(name), Rotation: -1}, true
	}
	return LogFile{}, false
}

func serviceIdentity(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Discover lists the log files of service in dir. An empty service or
// AllServices returns every family in the directory.
//
// Files are ordered by service identity, then by ascending rotation index,
// with the current file last.
func Discover(dir, service string) ([]LogFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, directoryNotFound(dir, err)
		}
		return nil, ioFailure(dir, err)
	}
	if !info.IsDir() {
		return nil, directoryNotFound(dir, errNotDirectory)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioFailure(dir, err)
	}

	matcher := newFamilyMatcher(service)
	var files []LogFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, ok := matcher.match(entry.Name())
		if !ok || f.Service == "" {
			continue
		}
		f.Path = filepath.Join(dir, f.Name)
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		if a.Current() != b.Current() {
			return b.Current()
		}
		if a.Rotation != b.Rotation {
			return a.Rotation < b.Rotation
		}
		return a.Name < b.Name
	})

	return files, nil
}
