package param

import (
	"fmt"
	"log"
)

// Record is the persisted form of one parameter.
type Record struct {
	ID   ID
	Name string
	Type Type
	Bits uint32 // canonical 32-bit value, see Value.Bits
}

// Store is the non-volatile storage collaborator. Its format is private to
// the implementation.
type Store interface {
	Save(records []Record) error
	Load() ([]Record, error)
}

// SaveTo writes every registered parameter to s and clears the modified
// flags once s accepted them.
func (r *Registry) SaveTo(s Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]Record, 0, NumParams)
	for i := ID(0); i < NumParams; i++ {
		e := &r.params[i]
		if !e.registered {
			continue
		}
		records = append(records, Record{ID: i, Name: e.name, Type: e.typ, Bits: e.load().bits})
	}
	if err := s.Save(records); err != nil {
		return fmt.Errorf("save parameters: %w", err)
	}
	for i := range r.params {
		r.params[i].modified = false
	}
	return nil
}

// LoadFrom applies the records held by s. Records for unregistered ids,
// with a different type, or outside the current limits are skipped. It
// returns the number of records applied; applied parameters are left
// unmodified.
func (r *Registry) LoadFrom(s Store) (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, fmt.Errorf("load parameters: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	applied := 0
	for _, rec := range records {
		e, err := r.lookupLocked(rec.ID)
		if err != nil {
			log.Printf("[Params] Skipping stored %s: %v\r\n", rec.ID, err)
			continue
		}
		if rec.Type != e.typ {
			log.Printf("[Params] Skipping stored %s: type %s, want %s\r\n", rec.ID, rec.Type, e.typ)
			continue
		}
		v, err := FromBits(rec.Type, rec.Bits)
		if err == nil {
			_, err = r.setLocked(rec.ID, v)
		}
		if err != nil {
			log.Printf("[Params] Skipping stored %s: %v\r\n", rec.ID, err)
			continue
		}
		e.modified = false
		applied++
	}
	return applied, nil
}
