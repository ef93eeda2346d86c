// Package source decorates a discovery.DataSource with the concerns
// the search core deliberately leaves outside: retrying transient
// fetch failures and caching fetched transaction lists.
package source

import (
	"context"
	"log"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/discovery"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/retry"
)

// Cache is what Cached needs from a transaction cache.
// *txcache.Cache satisfies it.
type Cache interface {
	Get(wallet string) ([]model.Transaction, bool, error)
	Put(wallet string, txs []model.Transaction) error
}

type retrying struct {
	src discovery.DataSource
	pol retry.Policy
}

// Retrying wraps src so transient fetch failures are retried per pol
// before the search ever sees them.
func Retrying(src discovery.DataSource, pol retry.Policy) discovery.DataSource {
	return &retrying{src: src, pol: pol}
}

func (r *retrying) FetchTransactions(ctx context.Context, wallet string) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := retry.Do(ctx, r.pol, func(ctx context.Context) error {
		var err error
		txs, err = r.src.FetchTransactions(ctx, wallet)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

type cached struct {
	src   discovery.DataSource
	cache Cache
}

// Cached reads through cache: hits skip the upstream fetch, misses are
// filled after a successful fetch. Cache failures never fail the
// search; a broken read degrades to a miss and a broken fill is logged
// and dropped.
func Cached(src discovery.DataSource, cache Cache) discovery.DataSource {
	return &cached{src: src, cache: cache}
}

func (c *cached) FetchTransactions(ctx context.Context, wallet string) ([]model.Transaction, error) {
	txs, ok, err := c.cache.Get(wallet)
	if err != nil {
		log.Printf("[source] cache read failed: wallet=%s err=%v", wallet, err)
	} else if ok {
		return txs, nil
	}

	txs, err = c.src.FetchTransactions(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(wallet, txs); err != nil {
		log.Printf("[source] cache fill failed: wallet=%s err=%v", wallet, err)
	}
	return txs, nil
}
