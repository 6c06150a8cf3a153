package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_initial_schema.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"000_bad.sql", 0, false},
		{"readme.sql", 0, false},
		{"abc_schema.sql", 0, false},
	}
	for _, tc := range tests {
		got, ok := migrationVersion(tc.name)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("migrationVersion(%q) = (%d, %v), want (%d, %v)", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestListMigrations_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_later.sql", "002_second.sql", "001_first.sql", "notes.txt", "003_draft.sql.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "004_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("listMigrations: %v", err)
	}

	want := []int{1, 2, 10}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %+v", len(want), files)
	}
	for i, v := range want {
		if files[i].version != v {
			t.Errorf("file %d version = %d, want %d", i, files[i].version, v)
		}
	}
}

func TestListMigrations_MissingDir(t *testing.T) {
	if _, err := listMigrations(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
