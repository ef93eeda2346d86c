// Package txcache caches per-wallet transaction lists in RocksDB.
// Re-runs of a search (tuning max depth, retrying after an abort) hit
// heavily overlapping wallet sets, and provider rate limits make
// refetching them expensive.
package txcache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tecbot/gorocksdb"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
)

// Cache stores one entry per wallet under "txs:<wallet>". The value is
// an 8-byte big-endian expiry unix timestamp followed by the JSON
// payload; expired entries are deleted lazily on read. A zero expiry
// means the entry never expires.
type Cache struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions

	ttl time.Duration
	now func() time.Time
}

func Open(path string, ttl time.Duration) (*Cache, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}
	return &Cache{
		db:  db,
		ro:  gorocksdb.NewDefaultReadOptions(),
		wo:  gorocksdb.NewDefaultWriteOptions(),
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (c *Cache) Close() {
	if c.ro != nil {
		c.ro.Destroy()
	}
	if c.wo != nil {
		c.wo.Destroy()
	}
	if c.db != nil {
		c.db.Close()
	}
}

func key(wallet string) []byte { return []byte("txs:" + wallet) }

// Get returns the cached list for wallet. ok=false on a miss or an
// expired entry.
func (c *Cache) Get(wallet string) (txs []model.Transaction, ok bool, err error) {
	val, err := c.db.Get(c.ro, key(wallet))
	if err != nil {
		return nil, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return nil, false, nil
	}
	data := val.Data()
	if len(data) < 8 {
		return nil, false, fmt.Errorf("txcache: short value for %q", wallet)
	}
	exp := int64(binary.BigEndian.Uint64(data[:8]))
	if exp != 0 && exp < c.now().Unix() {
		// expired: drop it and report a miss
		if err := c.db.Delete(c.wo, key(wallet)); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	// val.Data() dies with Free; Unmarshal copies what it keeps
	if err := json.Unmarshal(data[8:], &txs); err != nil {
		return nil, false, fmt.Errorf("txcache: decode %q: %w", wallet, err)
	}
	return txs, true, nil
}

func (c *Cache) Put(wallet string, txs []model.Transaction) error {
	payload, err := json.Marshal(txs)
	if err != nil {
		return err
	}
	var exp int64
	if c.ttl > 0 {
		exp = c.now().Add(c.ttl).Unix()
	}
	buf := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(exp))
	buf = append(buf, payload...)
	return c.db.Put(c.wo, key(wallet), buf)
}
