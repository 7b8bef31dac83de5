// Package storage persists parameter records. LevelDB stands in for the
// modem's flash; YAMLFile is a human-editable export.
package storage

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/ystepanoff/acomm/param"
)

var paramPrefix = []byte("param/")

// recordLen is the encoded value: one type byte then the canonical
// 32-bit value, big-endian. The parameter name follows.
const recordLen = 5

type LevelDB struct {
	mu sync.Mutex
	db *leveldb.DB
}

var _ param.Store = (*LevelDB)(nil)

// OpenLevelDB opens or creates a database in dir.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		BlockCacheCapacity:     64 * opt.KiB,
		WriteBuffer:            64 * opt.KiB,
		OpenFilesCacheCapacity: 16,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// NewMemStorage returns a LevelDB store held in memory.
func NewMemStorage() (*LevelDB, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func paramKey(id param.ID) []byte {
	return append(append([]byte(nil), paramPrefix...), id.String()...)
}

func encodeRecord(rec param.Record) []byte {
	v := make([]byte, recordLen, recordLen+len(rec.Name))
	v[0] = byte(rec.Type)
	binary.BigEndian.PutUint32(v[1:], rec.Bits)
	return append(v, rec.Name...)
}

func decodeRecord(key, value []byte) (param.Record, error) {
	id, err := param.ParseID(string(key[len(paramPrefix):]))
	if err != nil {
		return param.Record{}, err
	}
	if len(value) < recordLen {
		return param.Record{}, fmt.Errorf("%w: %s has %d bytes", ErrCorruptRecord, id, len(value))
	}
	return param.Record{
		ID:   id,
		Name: string(value[recordLen:]),
		Type: param.Type(value[0]),
		Bits: binary.BigEndian.Uint32(value[1:recordLen]),
	}, nil
}

// Save replaces the stored parameter set atomically.
func (l *LevelDB) Save(records []param.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return ErrClosed
	}

	batch := new(leveldb.Batch)
	iter := l.db.NewIterator(util.BytesPrefix(paramPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	for _, rec := range records {
		batch.Put(paramKey(rec.ID), encodeRecord(rec))
	}
	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// Load returns every decodable record. Undecodable entries are logged and
// skipped.
func (l *LevelDB) Load() ([]param.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, ErrClosed
	}

	var records []param.Record
	iter := l.db.NewIterator(util.BytesPrefix(paramPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		rec, err := decodeRecord(iter.Key(), iter.Value())
		if err != nil {
			log.Printf("[Storage] Skipping %q: %v\r\n", iter.Key(), err)
			continue
		}
		records = append(records, rec)
	}
	return records, iter.Error()
}

func (l *LevelDB) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
