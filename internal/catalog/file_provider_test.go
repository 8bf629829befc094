package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iliyamo/bordrail/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestFileProviderLoadsAllCollections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, UsersFile, "1, Ann Smith, 1 High St, secret\n2,Bob,2 Low Rd,pw\n")
	writeFile(t, dir, RoutesFile, "10, Leeds to York, 12.5, Anytime, standard\n10,Leeds to York,7.25,Off peak,saver\n")
	writeFile(t, dir, TimetableFile, "10,Monday,09:00\n\n10, Monday, 17:30\n")

	p := NewFileProvider(dir, testLogger())
	ctx := context.Background()

	users, err := p.LoadUsers(ctx)
	if err != nil {
		t.Fatalf("LoadUsers: %v", err)
	}
	wantUsers := []model.User{
		{ID: 1, Name: "Ann Smith", Address: "1 High St", Password: "secret"},
		{ID: 2, Name: "Bob", Address: "2 Low Rd", Password: "pw"},
	}
	if diff := cmp.Diff(wantUsers, users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}

	routes, err := p.LoadRoutes(ctx)
	if err != nil {
		t.Fatalf("LoadRoutes: %v", err)
	}
	wantRoutes := []model.Route{
		{ID: 10, Description: "Leeds to York", Cost: 12.5, TypeDescription: "Anytime", Type: "standard"},
		{ID: 10, Description: "Leeds to York", Cost: 7.25, TypeDescription: "Off peak", Type: "saver"},
	}
	if diff := cmp.Diff(wantRoutes, routes); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}

	entries, err := p.LoadTimetable(ctx)
	if err != nil {
		t.Fatalf("LoadTimetable: %v", err)
	}
	wantEntries := []model.TimetableEntry{
		{RouteID: 10, Day: "Monday", Time: "09:00"},
		{RouteID: 10, Day: "Monday", Time: "17:30"},
	}
	if diff := cmp.Diff(wantEntries, entries); diff != "" {
		t.Errorf("timetable mismatch (-want +got):\n%s", diff)
	}
}

func TestFileProviderSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RoutesFile, "x,bad id,1.00,Anytime,standard\n3,short line\n4,Ok,abc,Anytime,standard\n5,Good,3.10,Anytime,standard\n")

	routes, err := NewFileProvider(dir, testLogger()).LoadRoutes(context.Background())
	if err != nil {
		t.Fatalf("LoadRoutes: %v", err)
	}
	if len(routes) != 1 || routes[0].ID != 5 {
		t.Fatalf("routes = %+v, want only route 5", routes)
	}
}

func TestLoadKeepsGoingWhenAFileIsMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RoutesFile, "1,A to B,2.00,Anytime,standard\n")

	store := Load(context.Background(), NewFileProvider(dir, testLogger()), testLogger())
	if len(store.Users()) != 0 {
		t.Errorf("users = %d, want 0", len(store.Users()))
	}
	if len(store.Routes()) != 1 {
		t.Errorf("routes = %d, want 1", len(store.Routes()))
	}
	if len(store.Timetable()) != 0 {
		t.Errorf("timetable = %d, want 0", len(store.Timetable()))
	}
}

func TestFingerprintTracksCatalogContent(t *testing.T) {
	routes := []model.Route{{ID: 1, Description: "Leeds to York", Cost: 12.5, Type: "standard", TypeDescription: "Anytime"}}
	times := []model.TimetableEntry{{RouteID: 1, Day: "Monday", Time: "09:00"}}
	base := New(nil, routes, times).Fingerprint()

	if got := New(nil, routes, times).Fingerprint(); got != base {
		t.Errorf("same catalog fingerprints differ: %s vs %s", got, base)
	}
	repriced := []model.Route{routes[0]}
	repriced[0].Cost = 13
	if New(nil, repriced, times).Fingerprint() == base {
		t.Error("cost change kept the fingerprint")
	}
	moved := []model.TimetableEntry{{RouteID: 1, Day: "Monday", Time: "10:00"}}
	if New(nil, routes, moved).Fingerprint() == base {
		t.Error("timetable change kept the fingerprint")
	}
}
