package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	expectedFiles := []string{
		"000001_create_connections.up.sql",
		"000001_create_connections.down.sql",
		"000002_create_authorizations.up.sql",
		"000002_create_authorizations.down.sql",
		"000003_create_sessions.up.sql",
		"000003_create_sessions.down.sql",
		"000004_create_learned_queries.up.sql",
		"000004_create_learned_queries.down.sql",
	}
	assert.Len(t, entries, len(expectedFiles))

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, f := range expectedFiles {
		assert.True(t, names[f], "missing migration file %s", f)
	}
}

func TestMigrationsPaired(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a matching down")
}

func TestMigrationsNotEmpty(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	for _, e := range entries {
		data, err := migrations.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(data)), "%s is empty", e.Name())
	}
}
