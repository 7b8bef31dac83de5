// Package param implements the modem's runtime parameter registry: a fixed
// table of typed, range-limited values that the framing layer and the rest
// of the device read and tune at run time.
package param

import (
	"fmt"
	"sync"
)

type entry struct {
	name       string
	typ        Type
	load       func() Value
	store      func(Value)
	limits     Limits
	modified   bool
	registered bool
}

// Registry is the parameter and task table. A single mutex guards all of
// it; every exported method takes the lock exactly once and does nested
// work through the *Locked helpers, so no call re-enters the lock. Waits
// on the lock are unbounded.
type Registry struct {
	mu sync.Mutex

	capacity int
	params   []entry

	taskTotal int
	tasks     []task
	completed int
	allDone   chan struct{}
	onAllDone []func()

	observer func(ID, Value)
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithCapacity sets the size of the parameter table.
func WithCapacity(n int) Option { return func(r *Registry) { r.capacity = n } }

// WithTaskCount sets the number of tasks expected to complete registration.
func WithTaskCount(n int) Option { return func(r *Registry) { r.taskTotal = n } }

// WithObserver installs a callback run after every SetValue that changed a
// value. It runs without the registry lock held.
func WithObserver(fn func(ID, Value)) Option { return func(r *Registry) { r.observer = fn } }

// New builds an empty registry. It fails when the declared identifiers do
// not fit the table or the task count is not positive.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		capacity:  MaxParameters,
		taskTotal: int(NumTasks),
		allDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if int(NumParams) > r.capacity {
		return nil, fmt.Errorf("%w: %d identifiers, capacity %d", ErrCapacity, NumParams, r.capacity)
	}
	if r.taskTotal < 1 {
		return nil, fmt.Errorf("%w: task count %d", ErrCapacity, r.taskTotal)
	}
	r.params = make([]entry, r.capacity)
	r.tasks = make([]task, 0, r.taskTotal)
	return r, nil
}

// Register binds parameter id to the caller-owned variable at ptr with the
// inclusive limits [min, max]. The declared type follows T. The registry
// keeps ptr, not a copy, so the variable must outlive the registry. Names
// longer than NameLen-1 bytes are truncated.
func Register[T Number](r *Registry, id ID, name string, ptr *T, min, max T) error {
	if ptr == nil {
		return ErrNilStorage
	}
	typ, ok := typeOf[T]()
	if !ok {
		return ErrInvalidType
	}
	limits := Limits{Min: valueOf(min, typ), Max: valueOf(max, typ)}
	if !limits.valid() {
		return fmt.Errorf("%w: %s %s", ErrInvalidLimits, id, limits)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id >= NumParams {
		return fmt.Errorf("%w: %d", ErrUnknownParam, uint8(id))
	}
	e := &r.params[id]
	if e.registered {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	*e = entry{
		name:       truncate(name, NameLen-1),
		typ:        typ,
		load:       func() Value { return valueOf(*ptr, typ) },
		store:      func(v Value) { *ptr = fromValue[T](v) },
		limits:     limits,
		registered: true,
	}
	return nil
}

func (r *Registry) lookupLocked(id ID) (*entry, error) {
	if id >= NumParams {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParam, uint8(id))
	}
	e := &r.params[id]
	if !e.registered {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	return e, nil
}

// Registered reports whether id has been registered.
func (r *Registry) Registered(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.lookupLocked(id)
	return err == nil
}

// GetValue returns the live value of id.
func (r *Registry) GetValue(id ID) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(id)
	if err != nil {
		return Value{}, err
	}
	return e.load(), nil
}

// SetValue validates v against the limits of id and writes it through.
// Writing the current value is a successful no-op; any other accepted
// write marks the parameter modified. Nothing is persisted here.
func (r *Registry) SetValue(id ID, v Value) error {
	r.mu.Lock()
	changed, err := r.setLocked(id, v)
	r.mu.Unlock()

	if changed && r.observer != nil {
		r.observer(id, v)
	}
	return err
}

func (r *Registry) setLocked(id ID, v Value) (bool, error) {
	e, err := r.lookupLocked(id)
	if err != nil {
		return false, err
	}
	if v.typ != e.typ {
		return false, fmt.Errorf("%w: %s is %s, got %s", ErrTypeMismatch, id, e.typ, v.typ)
	}
	if !e.limits.Contains(v) {
		return false, fmt.Errorf("%w: %s=%s not in %s", ErrOutOfRange, id, v, e.limits)
	}
	if e.load().Equal(v) {
		return false, nil
	}
	e.store(v)
	e.modified = true
	return true, nil
}

// setConverted converts v to the declared type of id before setting it.
func (r *Registry) setConverted(id ID, v Value) error {
	r.mu.Lock()
	var (
		changed bool
		err     error
	)
	e, err := r.lookupLocked(id)
	if err == nil {
		v = v.As(e.typ)
		changed, err = r.setLocked(id, v)
	}
	r.mu.Unlock()

	if changed && r.observer != nil {
		r.observer(id, v)
	}
	return err
}

func (r *Registry) GetUint8(id ID) (uint8, error) {
	v, err := r.GetValue(id)
	return uint8(v.Uint32()), err
}

func (r *Registry) GetInt8(id ID) (int8, error) {
	v, err := r.GetValue(id)
	return int8(v.Int32()), err
}

func (r *Registry) GetUint16(id ID) (uint16, error) {
	v, err := r.GetValue(id)
	return uint16(v.Uint32()), err
}

func (r *Registry) GetInt16(id ID) (int16, error) {
	v, err := r.GetValue(id)
	return int16(v.Int32()), err
}

func (r *Registry) GetUint32(id ID) (uint32, error) {
	v, err := r.GetValue(id)
	return v.Uint32(), err
}

func (r *Registry) GetInt32(id ID) (int32, error) {
	v, err := r.GetValue(id)
	return v.Int32(), err
}

func (r *Registry) GetFloat(id ID) (float32, error) {
	v, err := r.GetValue(id)
	return v.Float32(), err
}

func (r *Registry) SetUint8(id ID, x uint8) error   { return r.setConverted(id, Uint8(x)) }
func (r *Registry) SetInt8(id ID, x int8) error     { return r.setConverted(id, Int8(x)) }
func (r *Registry) SetUint16(id ID, x uint16) error { return r.setConverted(id, Uint16(x)) }
func (r *Registry) SetInt16(id ID, x int16) error   { return r.setConverted(id, Int16(x)) }
func (r *Registry) SetUint32(id ID, x uint32) error { return r.setConverted(id, Uint32(x)) }
func (r *Registry) SetInt32(id ID, x int32) error   { return r.setConverted(id, Int32(x)) }
func (r *Registry) SetFloat(id ID, x float32) error { return r.setConverted(id, Float(x)) }

// Name returns the display name of id.
func (r *Registry) Name(id ID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(id)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// Limits returns the inclusive range of id.
func (r *Registry) Limits(id ID) (Limits, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(id)
	if err != nil {
		return Limits{}, err
	}
	return e.limits, nil
}

func (r *Registry) Uint8Limits(id ID) (min, max uint8, err error) {
	l, err := r.Limits(id)
	return uint8(l.Min.Uint32()), uint8(l.Max.Uint32()), err
}

func (r *Registry) Int8Limits(id ID) (min, max int8, err error) {
	l, err := r.Limits(id)
	return int8(l.Min.Int32()), int8(l.Max.Int32()), err
}

func (r *Registry) Uint16Limits(id ID) (min, max uint16, err error) {
	l, err := r.Limits(id)
	return uint16(l.Min.Uint32()), uint16(l.Max.Uint32()), err
}

func (r *Registry) Int16Limits(id ID) (min, max int16, err error) {
	l, err := r.Limits(id)
	return int16(l.Min.Int32()), int16(l.Max.Int32()), err
}

func (r *Registry) Uint32Limits(id ID) (min, max uint32, err error) {
	l, err := r.Limits(id)
	return l.Min.Uint32(), l.Max.Uint32(), err
}

func (r *Registry) Int32Limits(id ID) (min, max int32, err error) {
	l, err := r.Limits(id)
	return l.Min.Int32(), l.Max.Int32(), err
}

func (r *Registry) FloatLimits(id ID) (min, max float32, err error) {
	l, err := r.Limits(id)
	return l.Min.Float32(), l.Max.Float32(), err
}

// IsModified reports whether id changed since it was last saved or loaded.
func (r *Registry) IsModified(id ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(id)
	if err != nil {
		return false, err
	}
	return e.modified, nil
}

// Info describes one registered parameter.
type Info struct {
	ID       ID
	Name     string
	Type     Type
	Value    Value
	Limits   Limits
	Modified bool
}

// Snapshot lists every registered parameter in identifier order.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Info, 0, NumParams)
	for i := ID(0); i < NumParams; i++ {
		e := &r.params[i]
		if !e.registered {
			continue
		}
		out = append(out, Info{
			ID:       i,
			Name:     e.name,
			Type:     e.typ,
			Value:    e.load(),
			Limits:   e.limits,
			Modified: e.modified,
		})
	}
	return out
}
