//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := Record{
		"id":         Int(7),
		"name":       Text("alice"),
		"nickname":   Bytes([]byte("al")),
		"score":      Float(9.5),
		"active":     Bool(true),
		"flag":       Int(0),
		"count_text": Bytes([]byte("12")),
		"created_at": Time(created),
		"deleted_at": Null(),
	}

	id, ok := rec.Int64("id")
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	n, ok := rec.Int64("count_text")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	name, ok := rec.String("name")
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	nick, ok := rec.String("nickname")
	assert.True(t, ok)
	assert.Equal(t, "al", nick)

	score, ok := rec.Float64("score")
	assert.True(t, ok)
	assert.Equal(t, 9.5, score)

	widened, ok := rec.Float64("id")
	assert.True(t, ok)
	assert.Equal(t, 7.0, widened)

	active, ok := rec.Bool("active")
	assert.True(t, ok)
	assert.True(t, active)

	flag, ok := rec.Bool("flag")
	assert.True(t, ok)
	assert.False(t, flag)

	ts, ok := rec.Time("created_at")
	assert.True(t, ok)
	assert.Equal(t, created, ts)

	b, ok := rec.Bytes("name")
	assert.True(t, ok)
	assert.Equal(t, []byte("alice"), b)

	assert.True(t, rec.IsNull("deleted_at"))
	assert.True(t, rec.IsNull("missing"))
	assert.False(t, rec.IsNull("id"))

	_, ok = rec.String("id")
	assert.False(t, ok)
	_, ok = rec.Int64("name")
	assert.False(t, ok)
	_, ok = rec.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, "active", rec.Columns()[0])
}

// fakeRows is a minimal RowScanner over in-memory values.
type fakeRows struct {
	cols   []string
	data   [][]any
	pos    int
	err    error
	colErr error
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, r.colErr }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.data[r.pos-1][i]
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestScanRecords(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"id", "name"},
		data: [][]any{{int64(1), "a"}, {int64(2), nil}},
	}

	records, err := ScanRecords(rows)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": Int(1), "name": Text("a")}, records[0])
	assert.Equal(t, Record{"id": Int(2), "name": Null()}, records[1])
}

func TestScanRecordsEmptyAndErrors(t *testing.T) {
	records, err := ScanRecords(&fakeRows{cols: []string{"id"}})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	boom := errors.New("boom")
	_, err = ScanRecords(&fakeRows{cols: []string{"id"}, err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = ScanRecords(&fakeRows{colErr: boom})
	assert.ErrorIs(t, err, boom)
}
