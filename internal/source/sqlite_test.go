package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

func TestSQLite_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE cases (dose REAL, treated INTEGER, outcome TEXT);
		INSERT INTO cases VALUES (1.5, 1, 'yes'), (2.5, 0, 'no'), (NULL, 1, 'yes'), (4.0, 0, 'no');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := Config{
		Type:  "sqlite",
		Path:  path,
		Query: "SELECT dose, treated, outcome FROM cases",
		Table: table.Options{Target: 1},
	}
	tbl, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"dose", "treated", "outcome"}, tbl.Labels())
	assert.Equal(t, []core.DataType{core.Continuous, core.Boolean, core.Enumerated}, tbl.Types())
	assert.Equal(t, 4, tbl.RowCount())
	assert.True(t, tbl.ValueAt(2, 0).IsMissing())

	dt, err := tbl.DispatchType()
	require.NoError(t, err)
	assert.Equal(t, core.Boolean, dt)
}

func TestSQLite_MissingDatabase(t *testing.T) {
	cfg := Config{
		Type:  "sqlite",
		Path:  filepath.Join(t.TempDir(), "absent.db"),
		Query: "SELECT 1",
	}
	_, err := Load(context.Background(), cfg, nil)
	require.Error(t, err)
}
