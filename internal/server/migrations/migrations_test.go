package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latestUp returns the Up section of the newest postgres migration that
// defines fn.
func latestUp(t *testing.T, fn string) string {
	t.Helper()
	names, err := fs.Glob(Migrations, "postgres/*.sql")
	require.NoError(t, err)

	var up string
	for _, name := range names {
		data, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		section, _, _ := strings.Cut(string(data), "-- +goose Down")
		if strings.Contains(section, fn) {
			up = section
		}
	}
	require.NotEmpty(t, up, "no migration defines %s", fn)
	return up
}

func TestPostgresNotifyCarriesIDOnly(t *testing.T) {
	up := latestUp(t, "FUNCTION notify_yearbook_entries")
	assert.NotContains(t, up, "row_to_json", "whole rows can exceed the NOTIFY payload limit")
	assert.Contains(t, up, "'id', row_id")
}
