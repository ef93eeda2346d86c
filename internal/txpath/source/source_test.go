package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/retry"
)

type fakeSource struct {
	txs     []model.Transaction
	errs    []error // consumed one per call, nil = success
	fetches int
}

func (f *fakeSource) FetchTransactions(context.Context, string) ([]model.Transaction, error) {
	f.fetches++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.txs, nil
}

type fakeCache struct {
	entries map[string][]model.Transaction
	getErr  error
	putErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]model.Transaction)}
}

func (c *fakeCache) Get(wallet string) ([]model.Transaction, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	txs, ok := c.entries[wallet]
	return txs, ok, nil
}

func (c *fakeCache) Put(wallet string, txs []model.Transaction) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[wallet] = txs
	return nil
}

var someTxs = []model.Transaction{{Hash: "0x1", From: "0xa", To: "0xb"}}

func TestCachedMissFetchesAndFills(t *testing.T) {
	src := &fakeSource{txs: someTxs}
	cache := newFakeCache()
	ds := Cached(src, cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
	assert.Equal(t, 1, src.fetches)
	assert.Equal(t, someTxs, cache.entries["0xa"])
}

func TestCachedHitSkipsUpstream(t *testing.T) {
	src := &fakeSource{txs: someTxs}
	cache := newFakeCache()
	cache.entries["0xa"] = someTxs
	ds := Cached(src, cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
	assert.Zero(t, src.fetches)
}

func TestCachedEmptyListIsAHit(t *testing.T) {
	// a wallet with zero transactions is still a valid cached answer
	src := &fakeSource{txs: someTxs}
	cache := newFakeCache()
	cache.entries["0xa"] = []model.Transaction{}
	ds := Cached(src, cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, src.fetches)
}

func TestCachedReadErrorDegradesToMiss(t *testing.T) {
	src := &fakeSource{txs: someTxs}
	cache := newFakeCache()
	cache.getErr = errors.New("corrupt entry")
	ds := Cached(src, cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
	assert.Equal(t, 1, src.fetches)
}

func TestCachedFillErrorIsNotFatal(t *testing.T) {
	src := &fakeSource{txs: someTxs}
	cache := newFakeCache()
	cache.putErr = errors.New("disk full")
	ds := Cached(src, cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
}

func TestCachedUpstreamErrorNotCached(t *testing.T) {
	boom := errors.New("provider down")
	src := &fakeSource{errs: []error{boom}}
	cache := newFakeCache()
	ds := Cached(src, cache)

	_, err := ds.FetchTransactions(context.Background(), "0xa")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, cache.puts)
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryingRecoversFromTransient(t *testing.T) {
	src := &fakeSource{
		txs:  someTxs,
		errs: []error{errors.New("flaky"), errors.New("flaky"), nil},
	}
	ds := Retrying(src, fastPolicy())

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
	assert.Equal(t, 3, src.fetches)
}

func TestRetryingGivesUp(t *testing.T) {
	boom := errors.New("hard down")
	src := &fakeSource{errs: []error{boom, boom, boom}}
	ds := Retrying(src, fastPolicy())

	_, err := ds.FetchTransactions(context.Background(), "0xa")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, src.fetches)
}

func TestRetryingFatalClassification(t *testing.T) {
	fatal := errors.New("bad request")
	pol := fastPolicy()
	pol.Classify = func(error) retry.Class { return retry.Fatal }
	src := &fakeSource{errs: []error{fatal}}
	ds := Retrying(src, pol)

	_, err := ds.FetchTransactions(context.Background(), "0xa")
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, src.fetches)
}

func TestRetryingThenCachedComposition(t *testing.T) {
	// the stack used by the binaries: flaky upstream behind retry,
	// cache on the outside so the second call never hits the wire
	src := &fakeSource{
		txs:  someTxs,
		errs: []error{errors.New("flaky"), nil},
	}
	cache := newFakeCache()
	ds := Cached(Retrying(src, fastPolicy()), cache)

	txs, err := ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, someTxs, txs)
	assert.Equal(t, 2, src.fetches)

	_, err = ds.FetchTransactions(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches, "second call served from cache")
}
