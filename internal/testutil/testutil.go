// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// TestStore creates a temporary SQLite card store that is automatically
// cleaned up.
func TestStore(t *testing.T) *srstore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "thoughts-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := srstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestVault creates a temporary vault directory.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	notes, err := vault.New(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, notes
}
