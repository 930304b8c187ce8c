package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	svcRotated1 = "[2024-01-15T10:00:00Z][INFO][http]first\n" +
		"not a log line\n" +
		"[2024-01-15T10:05:00Z][ERROR][db]broken\n"
	svcRotated2 = "[2024-01-15T09:00:00Z][INFO][http]oldest\r\n" +
		"[yesterday][INFO][http]bad timestamp\n"
	svcCurrent = "[2024-01-15T11:00:00Z][WARN][http]newest"
)

func newTestGenerator(root string) *Generator {
	return NewGenerator(Options{Root: root, Workers: 2, MaxLineBytes: 4096})
}

func TestGenerateReport_SingleService(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "var", "log")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeLog(t, dir, "svc.1.log", svcRotated1)
	writeLog(t, dir, "svc.2.log", svcRotated2)
	writeLog(t, dir, "svc.log", svcCurrent)
	writeLog(t, dir, "other.log", "[2024-01-15T10:00:00Z][INFO][x]ignored\n")

	reports, err := newTestGenerator(root).GenerateReport(context.Background(), "svc", "var/log")
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}

	want := "======= REPORT =======\n" +
		"Service name: svc\n" +
		"Earliest log time: 2024-01-15T09:00:00Z\n" +
		"Latest log time: 2024-01-15T11:00:00Z\n" +
		"Severity slice info: INFO: 2 (50%); ERROR: 1 (25%); WARN: 1 (25%); \n" +
		"Category slice info: http: 3 (75%); db: 1 (25%); \n" +
		"Rotations amount: 3\n" +
		"======================\n"
	if reports[0].Text != want {
		t.Errorf("report =\n%s\nwant\n%s", reports[0].Text, want)
	}
}

func TestGenerateReport_MultipleServices(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "web.log", "[2024-01-15T10:00:00Z][INFO][http]a\n")
	writeLog(t, root, "api.1.log", "[2024-01-15T10:00:00Z][INFO][rpc]b\n")
	writeLog(t, root, "api.log", "[2024-01-15T10:01:00Z][INFO][rpc]c\n")

	reports, err := newTestGenerator(root).GenerateReport(context.Background(), AllServices, "")
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Service != "api" || reports[0].Total != 2 || reports[0].RotationCount != 2 {
		t.Errorf("api report = %+v", reports[0])
	}
	if reports[1].Service != "web" || reports[1].Total != 1 || reports[1].RotationCount != 1 {
		t.Errorf("web report = %+v", reports[1])
	}
}

func TestGenerateReport_CompressedRotations(t *testing.T) {
	root := t.TempDir()
	writeGzipLog(t, root, "svc.1.log.gz", "[2024-01-15T08:00:00Z][INFO][gz]a\n")
	writeZstdLog(t, root, "svc.2.log.zst", "[2024-01-15T07:00:00Z][DEBUG][zst]b\n")
	writeLog(t, root, "svc.log", "[2024-01-15T09:00:00Z][INFO][plain]c\n")

	reports, err := newTestGenerator(root).GenerateReport(context.Background(), "svc", "/")
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	r := reports[0]
	if r.Total != 3 || r.RotationCount != 3 {
		t.Fatalf("report = %+v", r)
	}
	if got := r.Earliest.Format(TimeLayout); got != "2024-01-15T07:00:00Z" {
		t.Errorf("Earliest = %s", got)
	}
}

func TestGenerateReport_MissingDirectory(t *testing.T) {
	reports, err := newTestGenerator(t.TempDir()).GenerateReport(context.Background(), "svc", "does/not/exist")
	if !IsDirectoryNotFound(err) {
		t.Fatalf("expected directory_not_found, got %v", err)
	}
	if reports != nil {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestGenerateReport_EmptyGroupKept(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "svc.log", "garbage\nmore garbage\n")
	writeLog(t, root, "svc.1.log", "")

	reports, err := newTestGenerator(root).GenerateReport(context.Background(), "svc", "")
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].Text != NoLogsMessage("svc") {
		t.Errorf("Text = %q", reports[0].Text)
	}
	if reports[0].RotationCount != 2 {
		t.Errorf("RotationCount = %d, want 2", reports[0].RotationCount)
	}
}

func TestGenerateReport_NoMatchingFiles(t *testing.T) {
	reports, err := newTestGenerator(t.TempDir()).GenerateReport(context.Background(), "svc", "")
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestGenerateReport_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "svc.1.log", svcRotated1)
	writeLog(t, root, "svc.2.log", svcRotated2)
	writeLog(t, root, "svc.log", svcCurrent)
	g := newTestGenerator(root)

	first, err := g.GenerateReport(context.Background(), "svc", "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := g.GenerateReport(context.Background(), "svc", "")
		if err != nil {
			t.Fatal(err)
		}
		if again[0].Text != first[0].Text {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, again[0].Text, first[0].Text)
		}
	}
}

func TestGenerateReport_PathCannotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatal(err)
	}
	writeLog(t, parent, "svc.log", "[2024-01-15T10:00:00Z][INFO][x]outside\n")

	g := newTestGenerator(root)
	if got := g.Resolve("../"); got != root {
		t.Errorf("Resolve(\"../\") = %q, want %q", got, root)
	}
	reports, err := g.GenerateReport(context.Background(), "svc", "../")
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Error("files above the root must not be read")
	}
}

func TestGenerateFiltered(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "svc.1.log", svcRotated1)
	writeLog(t, root, "svc.log", svcCurrent)
	g := newTestGenerator(root)

	reports, err := g.GenerateFiltered(context.Background(), "svc", "", "category:http")
	if err != nil {
		t.Fatalf("GenerateFiltered() error: %v", err)
	}
	if reports[0].Total != 2 {
		t.Errorf("Total = %d, want 2", reports[0].Total)
	}

	reports, err = g.GenerateFiltered(context.Background(), "svc", "", "severity:FATAL")
	if err != nil {
		t.Fatal(err)
	}
	if !reports[0].Empty() {
		t.Error("fully filtered group should render as no logs found")
	}

	_, err = g.GenerateFiltered(context.Background(), "svc", "", "host:x")
	if KindOf(err) != KindInvalidQuery {
		t.Errorf("expected invalid_query, got %v", err)
	}
}

func TestGenerateReport_CorruptArchiveIsIOFailure(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "svc.1.log.gz", "definitely not gzip")
	writeLog(t, root, "svc.log", svcCurrent)

	_, err := newTestGenerator(root).GenerateReport(context.Background(), "svc", "")
	if KindOf(err) != KindIOFailure {
		t.Fatalf("expected io_failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "svc.1.log.gz") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestGenerateReport_Canceled(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "svc.log", svcCurrent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := newTestGenerator(root).GenerateReport(ctx, "svc", "")
	if KindOf(err) != KindCanceled {
		t.Fatalf("expected canceled, got %v", err)
	}
	if reports != nil {
		t.Error("canceled run must not return partial reports")
	}
}
