package store

import (
	"github.com/pingcap/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/atomic"
)

var syncMarker = []byte("\x00sync")

type levelDB struct {
	db     *leveldb.DB
	closed atomic.Bool
}

func openLevelDB(path string) (*levelDB, error) {
	option := opt.Options{
		Compression: opt.NoCompression,
	}
	db, err := leveldb.OpenFile(path, &option)
	if err != nil {
		return nil, errors.Annotatef(err, "unable to open leveldb at %s", path)
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Insert(key, value []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return errors.Trace(l.db.Put(key, value, nil))
}

func (l *levelDB) Lookup(key []byte) ([]byte, bool, error) {
	if l.closed.Load() {
		return nil, false, ErrClosed
	}
	value, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Trace(err)
	}
	return value, true, nil
}

func (l *levelDB) Delete(key []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return errors.Trace(l.db.Delete(key, nil))
}

// Sync writes a no-op batch with the sync flag. Empty batches are skipped by
// leveldb, so the batch puts and deletes the marker key.
func (l *levelDB) Sync() error {
	if l.closed.Load() {
		return ErrClosed
	}
	batch := new(leveldb.Batch)
	batch.Put(syncMarker, nil)
	batch.Delete(syncMarker)
	return errors.Trace(l.db.Write(batch, &opt.WriteOptions{Sync: true}))
}

func (l *levelDB) Close() error {
	if l.closed.CompareAndSwap(false, true) == false {
		return ErrClosed
	}
	return errors.Trace(l.db.Close())
}
