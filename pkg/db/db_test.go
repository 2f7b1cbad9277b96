package db

import (
	"testing"

	"resourcedesk/pkg/config"
)

func TestConnStrings(t *testing.T) {
	cfg := config.Config{DB: config.DBConfig{Host: "db", Port: "5432", Name: "desk", User: "ops", Password: "p@ss"}}
	if got := runtimeConnString(cfg); got != "postgres://ops:p%40ss@db:5432/desk?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}

	cfg.DatabaseURL = "postgres://pooler/desk?pgbouncer=true"
	if got := migrationConnString(cfg); got != cfg.DatabaseURL {
		t.Fatalf("expected runtime url for migrations, got %q", got)
	}

	cfg.DirectURL = "postgres://direct/desk"
	if got := migrationConnString(cfg); got != cfg.DirectURL {
		t.Fatalf("expected direct url, got %q", got)
	}
}

func TestSourceURL(t *testing.T) {
	if got := sourceURL("migrations"); got != "file://migrations" {
		t.Fatalf("got %q", got)
	}
	if got := sourceURL("file:///srv/migrations"); got != "file:///srv/migrations" {
		t.Fatalf("got %q", got)
	}
}
