package postgres

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Gap closing and reordering shift several rows through occupied positions
// before the transaction commits, so (competition_id, position) uniqueness
// must be deferred to commit. A plain unique index is checked per row and
// would abort every shift with a duplicate-key error.
func TestSchemaDefersWaitingListPositionUniqueness(t *testing.T) {
	schema, err := os.ReadFile("schema.sql")
	require.NoError(t, err)

	assert.Regexp(t, `UNIQUE \(competition_id, position\) DEFERRABLE INITIALLY DEFERRED`, string(schema))
	assert.NotContains(t, string(schema), "CREATE UNIQUE INDEX")
}
