package database

import (
	"io/fs"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_conversations.sql", 1},
		{"012_add_index.sql", 12},
		{"readme.md", 0},
		{"x.sql", 0},
	}

	for _, tc := range tests {
		if got := migrationVersion(tc.name); got != tc.expected {
			t.Errorf("migrationVersion(%q) = %d, want %d", tc.name, got, tc.expected)
		}
	}
}

func TestMigrations_Embedded(t *testing.T) {
	content, err := fs.ReadFile(Migrations(), "001_conversations.sql")
	if err != nil {
		t.Fatalf("expected embedded migration: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected migration to have content")
	}
}

func TestNewRedisClients(t *testing.T) {
	mr := miniredis.RunT(t)

	clients, err := NewRedisClients("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("expected redis clients, got %v", err)
	}
	defer clients.Close()

	if clients.Cache == clients.PubSub {
		t.Fatal("expected separate cache and pubsub connections")
	}
}

func TestNewRedisClients_BadURL(t *testing.T) {
	if _, err := NewRedisClients("not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}
