package domain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
)

func strPtr(s string) *string { return &s }

func testConnections() []api.Connection {
	return []api.Connection{
		{ID: "c1", OrgURL: "https://acme.okta.com", OrgName: strPtr("Acme Corp")},
		{ID: "c2", OrgURL: "https://globex.okta.com"},
	}
}

func TestMatchConnection(t *testing.T) {
	conns := testConnections()
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"c1", "c2"}},
		{"acme", []string{"c1"}},
		{"ACME CORP", []string{"c1"}},
		{"globex.okta", []string{"c2"}},
		{"okta.com", []string{"c1", "c2"}},
		{"initech", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, c := range FilterConnections(conns, tt.query) {
				got = append(got, c.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterConnections(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}

	if c, ok := FindConnection(conns, "globex"); !ok || c.ID != "c2" {
		t.Errorf("FindConnection(globex) = %v, %v", c.ID, ok)
	}
	if _, ok := FindConnection(conns, "initech"); ok {
		t.Error("FindConnection(initech) should not match")
	}
}

func testBackups() []api.Backup {
	return []api.Backup{
		{ID: "abc123", Timestamp: "2026-01-02T00:00:00Z", Status: api.StatusCompleted},
		{ID: "def456", Timestamp: "2026-01-05T00:00:00Z", Status: api.StatusCompleted},
		{ID: "abd789", Timestamp: "2026-01-03T00:00:00Z", Status: api.StatusFailed},
	}
}

func ids(backups []api.Backup) []string {
	out := make([]string, 0, len(backups))
	for _, b := range backups {
		out = append(out, b.ID)
	}
	return out
}

func TestSortBackupsDesc(t *testing.T) {
	in := testBackups()
	got := ids(SortBackupsDesc(in))
	want := []string{"def456", "abd789", "abc123"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortBackupsDesc = %v, want %v", got, want)
	}
	if in[0].ID != "abc123" {
		t.Error("SortBackupsDesc should not modify its input")
	}
}

func TestFindBackup(t *testing.T) {
	backups := testBackups()
	tests := []struct {
		ref    string
		wantID string
		wantOK bool
	}{
		{"abc123", "abc123", true},
		{"def", "def456", true},
		{"ab", "abd789", true}, // 前方一致が複数なら新しい方
		{"abc", "abc123", true},
		{"zzz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := FindBackup(backups, tt.ref)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("FindBackup(%q) = %q, %v; want %q, %v", tt.ref, got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestPreviousBackup(t *testing.T) {
	backups := testBackups()

	prev, ok := PreviousBackup(backups, "def456")
	if !ok || prev.ID != "abd789" {
		t.Errorf("PreviousBackup(def456) = %q, %v", prev.ID, ok)
	}
	if _, ok := PreviousBackup(backups, "abc123"); ok {
		t.Error("oldest backup should have no previous")
	}
	if _, ok := PreviousBackup(backups, "missing"); ok {
		t.Error("unknown id should have no previous")
	}
}

func TestDefaultBackup(t *testing.T) {
	conns := testConnections()
	groups := []ConnectionBackups{
		{Connection: conns[0], Backups: testBackups()},
		{Connection: conns[1], Backups: []api.Backup{{ID: "zzz", Timestamp: "2026-02-01T00:00:00Z"}}},
	}

	b, conn, err := DefaultBackup(groups)
	if err != nil {
		t.Fatalf("DefaultBackup failed: %v", err)
	}
	// 全体で最新の zzz ではなく、最初の connection の最新
	if b.ID != "def456" || conn.ID != "c1" {
		t.Errorf("DefaultBackup = %q (%q), want def456 (c1)", b.ID, conn.ID)
	}

	if _, _, err := DefaultBackup(nil); !errors.Is(err, ErrNoConnections) {
		t.Errorf("DefaultBackup(nil) error = %v", err)
	}
	if _, _, err := DefaultBackup([]ConnectionBackups{{Connection: conns[0]}}); !errors.Is(err, ErrNoBackups) {
		t.Errorf("DefaultBackup(empty) error = %v", err)
	}
}

func TestFlattenBackups(t *testing.T) {
	conns := testConnections()
	groups := []ConnectionBackups{
		{Connection: conns[0], Backups: testBackups()},
		{Connection: conns[1], Backups: []api.Backup{{ID: "zzz", Timestamp: "2026-02-01T00:00:00Z"}}},
	}

	entries := FlattenBackups(groups, 2)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].ID != "zzz" || entries[0].OrgName != "https://globex.okta.com" || entries[0].ConnectionID != "c2" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].ID != "def456" || entries[1].OrgName != "Acme Corp" {
		t.Errorf("entries[1] = %+v", entries[1])
	}

	if all := FlattenBackups(groups, 0); len(all) != 4 {
		t.Errorf("unlimited len = %d, want 4", len(all))
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID = %q", got)
	}
}
