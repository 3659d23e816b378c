package store

import (
	"github.com/cockroachdb/pebble"
	"github.com/pingcap/errors"
	"go.uber.org/atomic"
)

type pebbleDB struct {
	db     *pebble.DB
	closed atomic.Bool
}

func openPebble(path string) (*pebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Annotatef(err, "unable to open pebble at %s", path)
	}
	return &pebbleDB{db: db}, nil
}

func (p *pebbleDB) Insert(key, value []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return errors.Trace(p.db.Set(key, value, pebble.NoSync))
}

func (p *pebbleDB) Lookup(key []byte) ([]byte, bool, error) {
	if p.closed.Load() {
		return nil, false, ErrClosed
	}
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Trace(err)
	}
	defer closer.Close()

	// the value is valid until the closer is closed
	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (p *pebbleDB) Delete(key []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return errors.Trace(p.db.Delete(key, pebble.NoSync))
}

func (p *pebbleDB) Sync() error {
	if p.closed.Load() {
		return ErrClosed
	}
	return errors.Trace(p.db.Flush())
}

func (p *pebbleDB) Close() error {
	if p.closed.CompareAndSwap(false, true) == false {
		return ErrClosed
	}
	return errors.Trace(p.db.Close())
}
