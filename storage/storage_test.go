package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystepanoff/acomm/param"
)

var testRecords = []param.Record{
	{ID: param.Baud, Name: "baud rate", Type: param.TypeFloat, Bits: math.Float32bits(62.5)},
	{ID: param.OutputAmplitude, Name: "amplitude", Type: param.TypeInt16, Bits: 0xFFFFFFF9},
	{ID: param.ModemID, Name: "modem id", Type: param.TypeUint8, Bits: 42},
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewMemStorage()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(testRecords))
	got, err := db.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, testRecords, got)

	// A later save replaces the whole set.
	require.NoError(t, db.Save(testRecords[2:]))
	got, err = db.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecords[2:], got)
}

func TestLevelDBSkipsCorrupt(t *testing.T) {
	db, err := NewMemStorage()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(testRecords[:1]))
	require.NoError(t, db.db.Put([]byte("param/modem_id"), []byte{1, 2}, nil))
	require.NoError(t, db.db.Put([]byte("param/bogus"), encodeRecord(testRecords[0]), nil))
	require.NoError(t, db.db.Put([]byte("other"), []byte{0}, nil))

	got, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecords[:1], got)
}

func TestLevelDBClosed(t *testing.T) {
	db, err := NewMemStorage()
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	assert.ErrorIs(t, db.Save(testRecords), ErrClosed)
	_, err = db.Load()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLevelDBOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "flash")
	db, err := OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.Save(testRecords))
	require.NoError(t, db.Close())

	db, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, testRecords, got)
}

func TestYAMLFileRoundTrip(t *testing.T) {
	f := YAMLFile{Path: filepath.Join(t.TempDir(), "params.yaml")}

	got, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, f.Save(testRecords))
	got, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecords, got)

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: output_amplitude")
	assert.Contains(t, string(data), `value: "-7"`)
}

func TestYAMLFileSkipsBadEntries(t *testing.T) {
	f := YAMLFile{Path: filepath.Join(t.TempDir(), "params.yaml")}
	doc := `parameters:
  - id: modem_id
    type: uint8
    value: "0x10"
  - id: modem_id
    type: uint8
    value: "300"
  - id: nonsense
    type: uint8
    value: "1"
  - id: baud
    type: double
    value: "1"
`
	require.NoError(t, os.WriteFile(f.Path, []byte(doc), 0o644))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, []param.Record{{ID: param.ModemID, Type: param.TypeUint8, Bits: 16}}, got)
}

func TestRegistryThroughLevelDB(t *testing.T) {
	var (
		method uint8 = 1
		fc     float32
	)
	r, err := param.New()
	require.NoError(t, err)
	require.NoError(t, param.Register(r, param.ErrorCorrection, "error correction", &method, 0, 5))
	require.NoError(t, param.Register(r, param.Fc, "carrier", &fc, 1000, 100000))
	require.NoError(t, r.SetFloat(param.Fc, 25000))
	require.NoError(t, r.SetUint8(param.ErrorCorrection, 4))

	db, err := NewMemStorage()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, r.SaveTo(db))

	var (
		method2 uint8
		fc2     float32
	)
	r2, err := param.New()
	require.NoError(t, err)
	require.NoError(t, param.Register(r2, param.ErrorCorrection, "error correction", &method2, 0, 5))
	require.NoError(t, param.Register(r2, param.Fc, "carrier", &fc2, 1000, 100000))

	n, err := r2.LoadFrom(db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint8(4), method2)
	assert.Equal(t, float32(25000), fc2)
	mod, err := r2.IsModified(param.Fc)
	require.NoError(t, err)
	assert.False(t, mod)
}
