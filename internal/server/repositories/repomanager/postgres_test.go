package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestRepositoryConstructors(t *testing.T) {
	m := NewPostgresRepositoryManager()

	if m.Users(nil) == nil {
		t.Fatal("Users returned nil")
	}
	if m.RefreshTokens(nil) == nil {
		t.Fatal("RefreshTokens returned nil")
	}
	if m.Files(nil) == nil {
		t.Fatal("Files returned nil")
	}
}

func TestRunMigrations(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var called bool
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		if dir != "." {
			t.Fatalf("unexpected migrations dir %q", dir)
		}
		return nil
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if !called {
		t.Fatal("goose.UpContext was not invoked")
	}
}

func TestRunMigrationsError(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	want := errors.New("migration failed")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return want
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), nil); !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}
