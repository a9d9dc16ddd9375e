package testing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherpa-db/sherpa/database"
	dbtesting "github.com/sherpa-db/sherpa/database/testing"
	"github.com/sherpa-db/sherpa/database/types"
)

const usersTable = "users"

func TestTestDBAnswersBuilderQueries(t *testing.T) {
	fake := dbtesting.NewTestDB(types.PostgreSQL)
	fake.ExpectQuery("FROM users WHERE age > $1").
		WillReturnRows(dbtesting.NewRowSet("id", "name").
			AddRow(1, "alice").
			AddRow(2, "bob"))

	q, err := database.New(fake).Table(usersTable)
	require.NoError(t, err)

	records, err := q.WhereOp("age", ">", 18).Get(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	name, ok := records[1].String("name")
	assert.True(t, ok)
	assert.Equal(t, "bob", name)

	dbtesting.AssertQueryExecuted(t, fake, "SELECT * FROM users WHERE age > $1")
	dbtesting.AssertQueryArgs(t, fake, "FROM users", 18)
	dbtesting.AssertQueryCount(t, fake, "FROM users", 1)
	require.NoError(t, fake.Close())
	assert.True(t, fake.Closed())
}

func TestTestDBFindNotFound(t *testing.T) {
	fake := dbtesting.NewTestDB(types.MySQL).StrictSQLMatching()
	fake.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(42).
		WillReturnRows(dbtesting.NewRowSet("id"))

	q, err := database.New(fake).Table(usersTable)
	require.NoError(t, err)

	rec, found, err := q.Find(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rec)
}

func TestTestDBArgsMismatchIsUnexpected(t *testing.T) {
	fake := dbtesting.NewTestDB(types.MySQL)
	fake.ExpectQuery("FROM users").WithArgs(1).WillReturnRows(dbtesting.NewRowSet("id").AddRow(1))

	_, err := fake.Query(context.Background(), "SELECT * FROM users WHERE id = ?", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected query")
}

func TestTestDBReturnsConfiguredError(t *testing.T) {
	boom := errors.New("relation does not exist")
	fake := dbtesting.NewTestDB(types.SQLite)
	fake.ExpectQuery("FROM missing").WillReturnError(boom)

	q, err := database.New(fake).Table("missing")
	require.NoError(t, err)

	_, err = q.Get(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsExecutionError(err))
	assert.ErrorIs(t, err, boom)
}

func TestTestDBWithoutRowsConfigured(t *testing.T) {
	fake := dbtesting.NewTestDB(types.SQLite)
	fake.ExpectQuery("FROM users")

	_, err := fake.Query(context.Background(), "SELECT * FROM users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WillReturnRows")
}

func TestTestDBHealthAndStats(t *testing.T) {
	fake := dbtesting.NewTestDB(types.Oracle)
	assert.NoError(t, fake.Health(context.Background()))

	down := errors.New("down")
	fake.WillFailHealth(down)
	assert.ErrorIs(t, fake.Health(context.Background()), down)

	stats, err := fake.Stats()
	require.NoError(t, err)
	assert.Equal(t, types.Oracle, stats["vendor"])
	assert.Equal(t, 0, stats["query_count"])
	assert.Equal(t, types.Oracle, fake.DatabaseType())
}

func TestRowSetNormalizesValues(t *testing.T) {
	name := "carol"
	var missing *string
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	fake := dbtesting.NewTestDB(types.SQLite)
	fake.ExpectQuery("FROM users").WillReturnRows(
		dbtesting.NewRowSet("id", "name", "nickname", "score", "active", "created_at", "avatar").
			AddRow(int32(7), &name, missing, float32(1.5), true, created, []byte{0x1}))

	rows, err := fake.Query(context.Background(), "SELECT * FROM users")
	require.NoError(t, err)
	defer rows.Close()

	records, err := types.ScanRecords(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]

	id, _ := rec.Int64("id")
	assert.Equal(t, int64(7), id)
	got, _ := rec.String("name")
	assert.Equal(t, name, got)
	assert.True(t, rec.IsNull("nickname"))
	score, _ := rec.Float64("score")
	assert.InDelta(t, 1.5, score, 0.0001)
	active, _ := rec.Bool("active")
	assert.True(t, active)
	ts, _ := rec.Time("created_at")
	assert.True(t, created.Equal(ts))
	avatar, _ := rec.Bytes("avatar")
	assert.Equal(t, []byte{0x1}, avatar)
}

func TestRowSetBuilders(t *testing.T) {
	type user struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}

	rs := dbtesting.NewRowSet("id", "name").
		AddRows(2, func(i int) []any { return []any{int64(i + 1), "user"} }).
		AddRowsFromStructs(&user{ID: 3, Name: "dave"}, user{ID: 4, Name: "erin"})

	assert.Equal(t, 4, rs.RowCount())
	assert.Equal(t, []string{"id", "name"}, rs.Columns())

	assert.Panics(t, func() { rs.AddRow(1) })
	assert.Panics(t, func() { dbtesting.NewRowSet("email").AddRowsFromStructs(&user{}) })
}
