package source

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

const initialJSON = `[
	{"origin": "svc-a", "name": "flagX", "sum": 10},
	{"origin": "svc-b", "name": "flagX", "sum": 5}
]`

func writeData(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func newTestService(t *testing.T, opts Options) (*Service, string) {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "out.json")
	writeData(t, dataPath, initialJSON)

	svc, err := New(dataPath, opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})

	return svc, dataPath
}

func TestNew(t *testing.T) {
	svc, dataPath := newTestService(t, Options{})

	if svc.Path() != dataPath {
		t.Errorf("Path() = %s, want %s", svc.Path(), dataPath)
	}
	if svc.Watching() {
		t.Error("watcher should be off by default")
	}
	if got := len(svc.Records()); got != 2 {
		t.Errorf("expected 2 records, got %d", got)
	}
	if svc.LoadedAt().IsZero() {
		t.Error("LoadedAt() should be set after load")
	}

	select {
	case event := <-svc.Events():
		if event.Type != EventLoaded {
			t.Errorf("expected EventLoaded, got %v", event.Type)
		}
		if len(event.Records) != 2 {
			t.Errorf("expected 2 records in event, got %d", len(event.Records))
		}
	default:
		t.Error("expected initial EventLoaded")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New("", Options{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNew_InvalidData(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "out.json")
	writeData(t, dataPath, `[{"origin": "svc-a"}]`)

	_, err := New(dataPath, Options{})
	if !usage.IsDataFormatError(err) {
		t.Errorf("expected data format error, got %v", err)
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	records := svc.Records()
	records[0].Origin = "mutated"

	if svc.Records()[0].Origin != "svc-a" {
		t.Error("Records() should return a copy")
	}
}

func TestReload(t *testing.T) {
	svc, dataPath := newTestService(t, Options{})

	writeData(t, dataPath, `[{"origin": "svc-c", "name": "flagZ", "sum": 1}]`)

	records, err := svc.Reload()
	if err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}
	if len(records) != 1 || records[0].Origin != "svc-c" {
		t.Errorf("unexpected records after reload: %+v", records)
	}
	if len(svc.Records()) != 1 {
		t.Errorf("service should hold reloaded records")
	}
}

func TestReload_KeepsLastGoodOnError(t *testing.T) {
	svc, dataPath := newTestService(t, Options{})

	writeData(t, dataPath, `not json`)

	if _, err := svc.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := len(svc.Records()); got != 2 {
		t.Errorf("expected previous 2 records to be kept, got %d", got)
	}
}

func TestReload_Coalesces(t *testing.T) {
	var calls atomic.Int32
	var blocking atomic.Bool
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	load := func(string) ([]models.UsageRecord, error) {
		calls.Add(1)
		if blocking.Load() {
			entered <- struct{}{}
			<-release
		}
		return []models.UsageRecord{{Origin: "a", Name: "f", Sum: 1}}, nil
	}

	svc, _ := newTestService(t, Options{Load: load})
	calls.Store(0)
	blocking.Store(true)

	const callers = 5
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Reload(); err != nil {
			t.Errorf("Reload() failed: %v", err)
		}
	}()
	<-entered

	for range callers - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Reload(); err != nil {
				t.Errorf("Reload() failed: %v", err)
			}
		}()
	}

	// give the followers time to join the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 load for %d concurrent reloads, got %d", callers, got)
	}
}

func TestWatchFileChange(t *testing.T) {
	svc, dataPath := newTestService(t, Options{Watch: true})

	if !svc.Watching() {
		t.Fatal("watcher should be running")
	}

	// Wait for initial load event
	<-svc.Events()

	writeData(t, dataPath, `[
		{"origin": "svc-w", "name": "watched", "sum": 7},
		{"origin": "svc-w", "name": "other", "sum": 1},
		{"origin": "svc-x", "name": "watched", "sum": 2}
	]`)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-svc.Events():
			if event.Type != EventChanged {
				continue
			}
			if len(event.Records) != 3 {
				// a partial write may be observed first
				continue
			}
			if got := len(svc.Records()); got != 3 {
				t.Errorf("expected 3 records after reload, got %d", got)
			}
			return
		case <-timeout:
			t.Fatal("timeout waiting for EventChanged")
		}
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	svc, dataPath := newTestService(t, Options{Watch: true})
	<-svc.Events()

	writeData(t, filepath.Join(filepath.Dir(dataPath), "unrelated.json"), `[]`)

	select {
	case event := <-svc.Events():
		t.Errorf("unexpected event %v for unrelated file", event.Type)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSendEvent_Full(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	for i := 0; i < 110; i++ {
		svc.sendEvent(Event{Type: EventChanged})
	}

	if len(svc.Events()) != 100 {
		t.Errorf("expected 100 events, got %d", len(svc.Events()))
	}
}

func TestClose_Idempotent(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "out.json")
	writeData(t, dataPath, initialJSON)

	svc, err := New(dataPath, Options{Watch: true})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := svc.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
	if svc.Watching() {
		t.Error("watcher should be stopped after Close")
	}
}
