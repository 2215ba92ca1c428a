package backup

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil"
	"github.com/butterflysecurity/butterfly-cli/internal/cmdutil/cmdtest"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/domain"
)

var (
	acme   = api.Connection{ID: "c1", OrgURL: "https://acme.okta.com", OrgName: cmdtest.StrPtr("Acme Corp"), IsActive: true}
	globex = api.Connection{ID: "c2", OrgURL: "https://globex.okta.com", IsActive: true}
)

func withBackups(t *testing.T) *cmdtest.Harness {
	t.Helper()
	h := cmdtest.New(t)
	h.Client.Connections = []api.Connection{acme, globex}
	h.Client.Backups["c1"] = []api.Backup{
		{ID: "abc12345-old", ConnectionID: "c1", Timestamp: "2026-02-01T10:00:00Z", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 10}},
		{ID: "abd78901-new", ConnectionID: "c1", Timestamp: "2026-02-20T10:00:00Z", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 12, "apps": 3}, SizeBytes: cmdtest.Int64Ptr(2048)},
	}
	h.Client.Backups["c2"] = []api.Backup{
		{ID: "fff00000-globex", ConnectionID: "c2", Timestamp: "2026-02-10T10:00:00Z", Status: api.StatusFailed},
	}
	return h
}

func TestBackupWithFlags(t *testing.T) {
	h := withBackups(t)

	cmd := NewBackupCmd(h.Factory)
	cmd.SetArgs([]string{"--org", "globex", "--resources", "users,groups", "--yes"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	if len(h.Client.Triggered) != 1 {
		t.Fatalf("Triggered = %d", len(h.Client.Triggered))
	}
	call := h.Client.Triggered[0]
	if call.ConnectionID != "c2" {
		t.Errorf("connection = %q", call.ConnectionID)
	}
	if !reflect.DeepEqual(call.Options.ResourceTypes, []string{"users", "groups"}) || call.Options.IncludeWorkflows {
		t.Errorf("options = %+v", call.Options)
	}
	out := h.Out.String()
	if !strings.Contains(out, "Backup ID: new-backup") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "butterfly list --org https://globex.okta.com") {
		t.Errorf("output lacks progress hint: %q", out)
	}
}

func TestBackupInteractive(t *testing.T) {
	h := withBackups(t)
	h.Prompter.Answer("c1", nil, true)

	if err := runBackup(context.Background(), &backupOptions{f: h.Factory}); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	if len(h.Client.Triggered) != 1 {
		t.Fatalf("Triggered = %d", len(h.Client.Triggered))
	}
	call := h.Client.Triggered[0]
	want := domain.ResourcesForCategories(domain.DefaultCategories())
	if call.ConnectionID != "c1" || !reflect.DeepEqual(call.Options.ResourceTypes, want) {
		t.Errorf("call = %+v", call)
	}
	if call.Options.IncludeWorkflows {
		t.Error("workflows should not be included by default")
	}
	if h.Prompter.Remaining() != 0 {
		t.Errorf("unused answers: %d", h.Prompter.Remaining())
	}
}

func TestBackupWorkflows(t *testing.T) {
	tests := []struct {
		name      string
		opts      backupOptions
		wantTypes []string
	}{
		{name: "category", opts: backupOptions{resources: "workflows,users"}, wantTypes: []string{"users"}},
		{name: "flag", opts: backupOptions{resources: "apps", includeWorkflows: true}, wantTypes: []string{"apps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := withBackups(t)
			opts := tt.opts
			opts.f = h.Factory
			opts.org = "acme"
			opts.yes = true

			if err := runBackup(context.Background(), &opts); err != nil {
				t.Fatalf("backup failed: %v", err)
			}
			call := h.Client.Triggered[0]
			if !reflect.DeepEqual(call.Options.ResourceTypes, tt.wantTypes) || !call.Options.IncludeWorkflows {
				t.Errorf("options = %+v", call.Options)
			}
		})
	}
}

func TestBackupDeclined(t *testing.T) {
	h := withBackups(t)
	h.Prompter.Answer(false)

	err := runBackup(context.Background(), &backupOptions{f: h.Factory, org: "acme", resources: "users"})
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if len(h.Client.Triggered) != 0 {
		t.Error("backup should not be triggered")
	}
	if !strings.Contains(h.Out.String(), "Backup cancelled") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestBackupResourceFlag(t *testing.T) {
	tests := []struct {
		name  string
		flag  string
		types []string
	}{
		{name: "resource names", flag: "users,apps", types: []string{"users", "apps"}},
		{name: "category", flag: "security", types: []string{"networkZones", "trustedOrigins", "authenticators"}},
		{name: "unknown passes through", flag: "users,customThing", types: []string{"users", "customThing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := withBackups(t)
			err := runBackup(context.Background(), &backupOptions{f: h.Factory, org: "acme", resources: tt.flag, yes: true})
			if err != nil {
				t.Fatalf("backup failed: %v", err)
			}
			if got := h.Client.Triggered[0].Options.ResourceTypes; !reflect.DeepEqual(got, tt.types) {
				t.Errorf("resource types = %v, want %v", got, tt.types)
			}
		})
	}
}

func TestBackupWait(t *testing.T) {
	h := withBackups(t)
	h.Client.GetBackupSeq = []api.Backup{
		{ID: "new-backup", Status: api.StatusRunning, ResourceCounts: map[string]int{"users": 4}},
		{ID: "new-backup", Status: api.StatusCompleted, ResourceCounts: map[string]int{"users": 12, "groups": 0}, SizeBytes: cmdtest.Int64Ptr(1536)},
	}

	err := runBackup(context.Background(), &backupOptions{f: h.Factory, org: "acme", resources: "users", wait: true, yes: true})
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	if h.Client.GetCalls != 2 {
		t.Errorf("GetCalls = %d, want 2", h.Client.GetCalls)
	}
	if !strings.Contains(h.ErrOut.String(), "Backup completed") {
		t.Errorf("stderr = %q", h.ErrOut.String())
	}
	out := h.Out.String()
	for _, want := range []string{"Backup Summary", "users:", "12", "1.5 KB"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q: %q", want, out)
		}
	}
	if strings.Contains(out, "groups:") {
		t.Errorf("zero counts should be hidden: %q", out)
	}
}

func TestBackupWaitFailed(t *testing.T) {
	h := withBackups(t)
	h.Client.GetBackupSeq = []api.Backup{{ID: "new-backup", Status: api.StatusFailed}}

	err := runBackup(context.Background(), &backupOptions{f: h.Factory, org: "acme", resources: "users", wait: true, yes: true})
	if !errors.Is(err, cmdutil.ErrSilent) {
		t.Fatalf("error = %v, want ErrSilent", err)
	}
	if !strings.Contains(h.ErrOut.String(), "Backup failed") {
		t.Errorf("stderr = %q", h.ErrOut.String())
	}
}

func TestBackupWaitCancelled(t *testing.T) {
	h := withBackups(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForBackup(ctx, h.Factory, h.Client, "new-backup")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
	if h.Client.GetCalls != 0 {
		t.Errorf("GetCalls = %d", h.Client.GetCalls)
	}
}

func TestBackupNoConnections(t *testing.T) {
	h := cmdtest.New(t)

	err := runBackup(context.Background(), &backupOptions{f: h.Factory})
	var soft *cmdutil.SoftError
	if !errors.As(err, &soft) {
		t.Fatalf("error = %v, want soft error", err)
	}
}

func TestList(t *testing.T) {
	h := withBackups(t)

	if err := runList(context.Background(), &listOptions{f: h.Factory, limit: 2}); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	out := h.Out.String()
	if !strings.Contains(out, "Recent Backups (2 of 3)") {
		t.Errorf("output = %q", out)
	}
	newest := strings.Index(out, "abd78901...")
	globexRow := strings.Index(out, "fff00000...")
	if newest < 0 || globexRow < 0 || newest > globexRow {
		t.Errorf("rows not ordered newest first: %q", out)
	}
	if strings.Contains(out, "abc12345...") {
		t.Errorf("limit not applied: %q", out)
	}
	if !strings.Contains(out, "2.0 KB") {
		t.Errorf("size missing: %q", out)
	}
}

func TestListJSON(t *testing.T) {
	h := withBackups(t)
	h.Factory.JQ = ".[].orgName"

	if err := runList(context.Background(), &listOptions{f: h.Factory, org: "acme", limit: 10, json: true}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := h.Out.String(); got != "Acme Corp\nAcme Corp\n" {
		t.Errorf("output = %q", got)
	}
}

func TestListErrors(t *testing.T) {
	h := withBackups(t)

	if err := runList(context.Background(), &listOptions{f: h.Factory, limit: 0}); err == nil {
		t.Error("limit 0 should fail")
	}

	var soft *cmdutil.SoftError
	err := runList(context.Background(), &listOptions{f: h.Factory, org: "initech", limit: 10})
	if !errors.As(err, &soft) {
		t.Errorf("unknown org: error = %v, want soft error", err)
	}

	h.Client.Backups = map[string][]api.Backup{}
	err = runList(context.Background(), &listOptions{f: h.Factory, limit: 10})
	if !errors.As(err, &soft) || soft.Message != "No backups found" {
		t.Errorf("no backups: error = %v", err)
	}
}

func TestSelectByPrefix(t *testing.T) {
	h := withBackups(t)

	cmd := NewSelectCmd(h.Factory)
	cmd.SetArgs([]string{"abd"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	sel := h.Config.SelectedBackup()
	if sel == nil {
		t.Fatal("selection not saved")
	}
	want := config.SelectedBackup{ID: "abd78901-new", OrgName: "Acme Corp", Timestamp: "2026-02-20T10:00:00Z", ConnectionID: "c1"}
	if *sel != want {
		t.Errorf("selection = %+v", *sel)
	}
	if !strings.Contains(h.Out.String(), "Backup Selected") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestSelectUnknownKeepsSelection(t *testing.T) {
	h := withBackups(t)
	prior := config.SelectedBackup{ID: "abc12345-old", OrgName: "Acme Corp", Timestamp: "2026-02-01T10:00:00Z", ConnectionID: "c1"}
	if err := h.Config.SetSelectedBackup(context.Background(), prior); err != nil {
		t.Fatal(err)
	}
	saves := h.Backend.Saves

	err := runSelect(context.Background(), &selectOptions{f: h.Factory, id: "zzz"})
	if err == nil || !strings.Contains(err.Error(), "backup not found: zzz") {
		t.Fatalf("error = %v", err)
	}
	if sel := h.Config.SelectedBackup(); sel == nil || *sel != prior {
		t.Errorf("selection changed to %+v", sel)
	}
	if h.Backend.Saves != saves {
		t.Errorf("config saved %d times", h.Backend.Saves-saves)
	}
}

func TestSelectInteractive(t *testing.T) {
	h := withBackups(t)
	h.Prompter.Answer("fff00000-globex")

	if err := runSelect(context.Background(), &selectOptions{f: h.Factory}); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	sel := h.Config.SelectedBackup()
	if sel == nil || sel.ID != "fff00000-globex" || sel.ConnectionID != "c2" || sel.OrgName != "https://globex.okta.com" {
		t.Errorf("selection = %+v", sel)
	}
}

func TestSelectClear(t *testing.T) {
	h := withBackups(t)
	if err := h.Config.SetSelectedBackup(context.Background(), config.SelectedBackup{ID: "abc12345-old"}); err != nil {
		t.Fatal(err)
	}

	cmd := NewSelectCmd(h.Factory)
	cmd.SetArgs([]string{"--clear"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("select --clear failed: %v", err)
	}
	if h.Config.SelectedBackup() != nil {
		t.Error("selection not cleared")
	}
	if !strings.Contains(h.Out.String(), "Backup selection cleared") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestSelected(t *testing.T) {
	h := withBackups(t)

	if err := runSelected(&selectedOptions{f: h.Factory}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.Out.String(), "No backup selected") {
		t.Errorf("output = %q", h.Out.String())
	}

	h.Out.Reset()
	if err := h.Config.SetSelectedBackup(context.Background(), config.SelectedBackup{ID: "abd78901-new", OrgName: "Acme Corp"}); err != nil {
		t.Fatal(err)
	}
	if err := runSelected(&selectedOptions{f: h.Factory}); err != nil {
		t.Fatal(err)
	}
	out := h.Out.String()
	if !strings.Contains(out, "abd78901-new") || !strings.Contains(out, "Acme Corp") {
		t.Errorf("output = %q", out)
	}
}
