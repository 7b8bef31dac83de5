package param

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records []Record
	err     error
}

func (m *memStore) Save(records []Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append([]Record(nil), records...)
	return nil
}

func (m *memStore) Load() ([]Record, error) { return m.records, m.err }

func TestSaveAndLoad(t *testing.T) {
	var (
		id   uint8   = 3
		amp  int16   = -4
		baud float32 = 100
	)
	r := newRegistry(t)
	require.NoError(t, Register(r, ModemID, "modem id", &id, 0, 255))
	require.NoError(t, Register(r, OutputAmplitude, "amplitude", &amp, -10, 10))
	require.NoError(t, Register(r, Baud, "baud rate", &baud, 1, 1000))
	require.NoError(t, r.SetInt16(OutputAmplitude, -7))

	store := &memStore{}
	require.NoError(t, r.SaveTo(store))
	require.Len(t, store.records, 3)
	assert.Equal(t, Record{ID: OutputAmplitude, Name: "amplitude", Type: TypeInt16, Bits: 0xFFFFFFF9}, store.records[1])

	mod, err := r.IsModified(OutputAmplitude)
	require.NoError(t, err)
	assert.False(t, mod)

	var (
		id2   uint8
		amp2  int16
		baud2 float32
	)
	r2 := newRegistry(t)
	require.NoError(t, Register(r2, ModemID, "modem id", &id2, 0, 255))
	require.NoError(t, Register(r2, OutputAmplitude, "amplitude", &amp2, -10, 10))
	require.NoError(t, Register(r2, Baud, "baud rate", &baud2, 1, 1000))

	n, err := r2.LoadFrom(store)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint8(3), id2)
	assert.Equal(t, int16(-7), amp2)
	assert.Equal(t, float32(100), baud2)

	mod, err = r2.IsModified(OutputAmplitude)
	require.NoError(t, err)
	assert.False(t, mod)
}

func TestLoadSkipsBadRecords(t *testing.T) {
	var tones uint8 = 8
	r := newRegistry(t)
	require.NoError(t, Register(r, FhbfskNumTones, "tones", &tones, 2, 32))

	store := &memStore{records: []Record{
		{ID: ModemID, Type: TypeUint8, Bits: 1},         // not registered
		{ID: FhbfskNumTones, Type: TypeUint16, Bits: 4}, // wrong type
		{ID: FhbfskNumTones, Type: TypeUint8, Bits: 64}, // out of range
		{ID: NumParams + 3, Type: TypeUint8, Bits: 4},   // unknown
		{ID: FhbfskNumTones, Type: TypeUint8, Bits: 16},
	}}
	n, err := r.LoadFrom(store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint8(16), tones)
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("flash busy")
	var v uint8
	r := newRegistry(t)
	require.NoError(t, Register(r, PrintEnabled, "print", &v, 0, 1))
	require.NoError(t, r.SetUint8(PrintEnabled, 1))

	err := r.SaveTo(&memStore{err: boom})
	assert.ErrorIs(t, err, boom)
	mod, _ := r.IsModified(PrintEnabled)
	assert.True(t, mod, "failed save must keep the modified flag")

	_, err = r.LoadFrom(&memStore{err: boom})
	assert.ErrorIs(t, err, boom)
}
