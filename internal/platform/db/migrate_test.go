package db

import (
	"testing"
	"testing/fstest"
	"time"
)

func TestLoad_SortsAndParsesVersions(t *testing.T) {
	files := fstest.MapFS{
		"003_proyecciones.sql": {Data: []byte("CREATE TABLE c ();")},
		"001_directorio.sql":   {Data: []byte("CREATE TABLE a ();")},
		"002_atenciones.sql":   {Data: []byte("CREATE TABLE b ();")},
		"README.md":            {Data: []byte("not a migration")},
		"notes_draft.sql":      {Data: []byte("-- no numeric prefix")},
	}

	migrations, err := NewMigrator(nil, files, "").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].SQL != "CREATE TABLE a ();" {
		t.Errorf("unexpected SQL: %q", migrations[0].SQL)
	}
}

func TestLoad_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, files, "").Load(); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	applied := map[int]time.Time{1: time.Now(), 3: time.Now()}

	got := pending(migrations, applied)
	if len(got) != 1 || got[0].Version != 2 {
		t.Errorf("expected only version 2 pending, got %+v", got)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, Migrations(), "public").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if migrations[0].Version != 1 {
		t.Errorf("first embedded migration should be version 1, got %d", migrations[0].Version)
	}
}

func TestNewMigrator_DefaultSchema(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{}, "")
	if m.schema != "public" {
		t.Errorf("expected default schema public, got %s", m.schema)
	}
	if got := m.qualified("_migrations"); got != `"public"."_migrations"` {
		t.Errorf("unexpected qualified name %s", got)
	}
}
