package param

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func TestNewCapacity(t *testing.T) {
	_, err := New(WithCapacity(int(NumParams) - 1))
	assert.True(t, errors.Is(err, ErrCapacity), "got %v", err)

	_, err = New(WithTaskCount(0))
	assert.True(t, errors.Is(err, ErrCapacity), "got %v", err)

	r, err := New(WithCapacity(int(NumParams)))
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)

	var id uint8 = 7
	require.NoError(t, Register(r, ModemID, "modem id", &id, 0, 200))

	t.Run("nil storage", func(t *testing.T) {
		err := Register[uint8](r, PrintEnabled, "print", nil, 0, 1)
		assert.ErrorIs(t, err, ErrNilStorage)
	})

	t.Run("duplicate keeps existing entry", func(t *testing.T) {
		var other uint8 = 99
		err := Register(r, ModemID, "other", &other, 10, 20)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)

		name, err := r.Name(ModemID)
		require.NoError(t, err)
		assert.Equal(t, "modem id", name)
		min, max, err := r.Uint8Limits(ModemID)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), min)
		assert.Equal(t, uint8(200), max)
		got, err := r.GetUint8(ModemID)
		require.NoError(t, err)
		assert.Equal(t, uint8(7), got)
	})

	t.Run("unknown id", func(t *testing.T) {
		var v uint8
		assert.ErrorIs(t, Register(r, NumParams, "x", &v, 0, 1), ErrUnknownParam)
	})

	t.Run("inverted limits", func(t *testing.T) {
		var v int16
		assert.ErrorIs(t, Register(r, FskF0, "x", &v, 5, -5), ErrInvalidLimits)
	})

	t.Run("name truncated", func(t *testing.T) {
		var v uint8
		long := strings.Repeat("n", 64)
		require.NoError(t, Register(r, PrintEnabled, long, &v, 0, 1))
		name, err := r.Name(PrintEnabled)
		require.NoError(t, err)
		assert.Len(t, name, NameLen-1)
	})
}

type method uint8

func TestRegisterNamedType(t *testing.T) {
	r := newRegistry(t)
	m := method(2)
	require.NoError(t, Register(r, ErrorCorrection, "error correction method", &m, 0, 5))

	v, err := r.GetValue(ErrorCorrection)
	require.NoError(t, err)
	assert.Equal(t, TypeUint8, v.Type())
	require.NoError(t, r.SetUint8(ErrorCorrection, 4))
	assert.Equal(t, method(4), m)
}

func TestUnregisteredAccess(t *testing.T) {
	r := newRegistry(t)

	_, err := r.GetValue(Baud)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorIs(t, r.SetFloat(Baud, 1), ErrNotRegistered)
	_, err = r.Name(Baud)
	assert.ErrorIs(t, err, ErrNotRegistered)
	_, _, err = r.FloatLimits(Baud)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.False(t, r.Registered(Baud))
}

func TestSetValue(t *testing.T) {
	r := newRegistry(t)

	var f0 uint32 = 30000
	require.NoError(t, Register(r, FskF0, "FSK f0", &f0, 25000, 38000))

	t.Run("one below min", func(t *testing.T) {
		assert.ErrorIs(t, r.SetUint32(FskF0, 24999), ErrOutOfRange)
		assert.Equal(t, uint32(30000), f0)
	})
	t.Run("one above max", func(t *testing.T) {
		assert.ErrorIs(t, r.SetValue(FskF0, Uint32(38001)), ErrOutOfRange)
		assert.Equal(t, uint32(30000), f0)
	})
	t.Run("same value leaves flag", func(t *testing.T) {
		require.NoError(t, r.SetUint32(FskF0, 30000))
		mod, err := r.IsModified(FskF0)
		require.NoError(t, err)
		assert.False(t, mod)
	})
	t.Run("write through", func(t *testing.T) {
		require.NoError(t, r.SetUint32(FskF0, 38000))
		assert.Equal(t, uint32(38000), f0)
		mod, err := r.IsModified(FskF0)
		require.NoError(t, err)
		assert.True(t, mod)
	})
	t.Run("type mismatch", func(t *testing.T) {
		assert.ErrorIs(t, r.SetValue(FskF0, Uint16(31000)), ErrTypeMismatch)
	})
	t.Run("external write is visible", func(t *testing.T) {
		f0 = 26000
		got, err := r.GetUint32(FskF0)
		require.NoError(t, err)
		assert.Equal(t, uint32(26000), got)
	})
}

func TestSignedAndFloat(t *testing.T) {
	r := newRegistry(t)

	var amp int16 = -3
	var baud float32 = 100
	require.NoError(t, Register(r, OutputAmplitude, "amplitude", &amp, -10, 10))
	require.NoError(t, Register(r, Baud, "baud rate", &baud, 1, 1000))

	min, max, err := r.Int16Limits(OutputAmplitude)
	require.NoError(t, err)
	assert.Equal(t, int16(-10), min)
	assert.Equal(t, int16(10), max)

	assert.ErrorIs(t, r.SetInt16(OutputAmplitude, -11), ErrOutOfRange)
	require.NoError(t, r.SetInt16(OutputAmplitude, -10))
	assert.Equal(t, int16(-10), amp)

	fmin, fmax, err := r.FloatLimits(Baud)
	require.NoError(t, err)
	assert.Equal(t, float32(1), fmin)
	assert.Equal(t, float32(1000), fmax)

	assert.ErrorIs(t, r.SetFloat(Baud, float32(math.NaN())), ErrOutOfRange)
	assert.ErrorIs(t, r.SetFloat(Baud, 1000.5), ErrOutOfRange)
	require.NoError(t, r.SetFloat(Baud, 312.5))
	assert.Equal(t, float32(312.5), baud)

	// Narrowing wrappers truncate silently.
	got, err := r.GetUint8(Baud)
	require.NoError(t, err)
	assert.Equal(t, uint8(56), got) // 312 & 0xFF
}

func TestWrapperConversion(t *testing.T) {
	r := newRegistry(t)

	var evalMsg uint32
	require.NoError(t, Register(r, EvalMessage, "eval message", &evalMsg, 0, math.MaxUint32))

	require.NoError(t, r.SetUint8(EvalMessage, 0xAB))
	assert.Equal(t, uint32(0xAB), evalMsg)

	require.NoError(t, r.SetInt32(EvalMessage, -1))
	assert.Equal(t, uint32(math.MaxUint32), evalMsg)

	v16, err := r.GetUint16(EvalMessage)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), v16)
}

func TestObserver(t *testing.T) {
	var seen []ID
	r := newRegistry(t, WithObserver(func(id ID, v Value) { seen = append(seen, id) }))

	var tones uint8 = 8
	require.NoError(t, Register(r, FhbfskNumTones, "tones", &tones, 2, 32))
	require.NoError(t, r.SetUint8(FhbfskNumTones, 8))
	require.NoError(t, r.SetUint8(FhbfskNumTones, 16))
	assert.Error(t, r.SetUint8(FhbfskNumTones, 64))
	assert.Equal(t, []ID{FhbfskNumTones}, seen)
}

func TestSnapshot(t *testing.T) {
	r := newRegistry(t)
	var a, b uint8
	require.NoError(t, Register(r, StationaryFlag, "stationary flag", &a, 0, 1))
	require.NoError(t, Register(r, ModemID, "modem id", &b, 0, 255))

	infos := r.Snapshot()
	require.Len(t, infos, 2)
	assert.Equal(t, ModemID, infos[0].ID)
	assert.Equal(t, StationaryFlag, infos[1].ID)
	assert.Equal(t, "[0, 1]", infos[1].Limits.String())
}

func TestConcurrentAccess(t *testing.T) {
	r := newRegistry(t)
	var fc uint32 = 30000
	require.NoError(t, Register(r, Fc, "center frequency", &fc, 25000, 38000))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = r.SetUint32(Fc, uint32(25000+i*100+j))
				_, _ = r.GetUint32(Fc)
			}
		}(i)
	}
	wg.Wait()

	got, err := r.GetUint32(Fc)
	require.NoError(t, err)
	assert.True(t, got >= 25000 && got <= 38000)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  Type
		in   string
		want Value
	}{
		{TypeUint8, "255", Uint8(255)},
		{TypeInt8, "-128", Int8(-128)},
		{TypeUint16, "0x1021", Uint16(0x1021)},
		{TypeInt32, "-5", Int32(-5)},
		{TypeFloat, "12.5", Float(12.5)},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	_, err := ParseValue(TypeUint8, "256")
	assert.Error(t, err)
}

func TestFromBitsNormalises(t *testing.T) {
	v, err := FromBits(TypeInt8, 0xFF)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v.Int32())
	assert.Equal(t, uint32(0xFFFFFFFF), v.Bits())

	v, err = FromBits(TypeUint16, 0x12345678)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x5678), v.Bits())

	_, err = FromBits(Type(42), 0)
	assert.ErrorIs(t, err, ErrInvalidType)
}
