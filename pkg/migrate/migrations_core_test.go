package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crebai/crebmatch-backend/pkg/migrate"
)

func TestCoreSchemaMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_core_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE matches",
		"CHECK (status IN ('pending', 'accepted', 'rejected'))",
		"CHECK (from_principal_id <> to_principal_id)",
		"CREATE UNIQUE INDEX matches_live_pair_key",
		"WHERE status <> 'rejected'",
		"CONSTRAINT rejection_marks_principal_listing_key UNIQUE (principal_id, listing_id)",
		"CONSTRAINT messages_match_seq_key UNIQUE (match_id, seq)",
		"DROP TABLE document_artifacts",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
