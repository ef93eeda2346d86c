package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
)

// fakeSource serves canned transaction lists and records fetch order.
type fakeSource struct {
	txs     map[string][]model.Transaction
	fetched []string
	failOn  string
	err     error
}

func (f *fakeSource) FetchTransactions(_ context.Context, wallet string) ([]model.Transaction, error) {
	f.fetched = append(f.fetched, wallet)
	if f.failOn != "" && wallet == f.failOn {
		return nil, f.err
	}
	return f.txs[wallet], nil
}

type countingPacer struct {
	calls int
}

func (p *countingPacer) Pace(context.Context) error {
	p.calls++
	return nil
}

func tx(hash, from, to string) model.Transaction {
	return model.Transaction{Hash: hash, From: from, To: to}
}

func newSearcher(t *testing.T, cfg Config) *Searcher {
	t.Helper()
	s, err := NewSearcher(cfg)
	require.NoError(t, err)
	return s
}

func TestNewSearcherRequiresSource(t *testing.T) {
	_, err := NewSearcher(Config{})
	require.Error(t, err)
}

func TestShortestPathDirectEdge(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x1", "0xa", "0xb")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xA", "0xB", 1)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0xb", "0xa"}, res.Wallets)
	assert.Equal(t, []string{"0x1"}, res.TxHashes)
	assert.Equal(t, 1, res.Expanded)
	assert.Equal(t, 2, res.Observed)
}

func TestShortestPathTwoHops(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x2", "0xa", "0xc")},
		"0xc": {tx("0x3", "0xc", "0xb")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 2)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0xb", "0xc", "0xa"}, res.Wallets)
	assert.Equal(t, []string{"0x3", "0x2"}, res.TxHashes)
}

func TestShortestPathDepthExhaustion(t *testing.T) {
	// same graph as the two-hop case, but the bound stops at 0xc:
	// 0xc is admitted at depth 1 and never expanded
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x2", "0xa", "0xc")},
		"0xc": {tx("0x3", "0xc", "0xb")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 0)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, []string{"0xa"}, src.fetched)
	assert.Equal(t, 2, res.Observed) // 0xc was still admitted
}

func TestShortestPathNotFound(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x1", "0xa", "0xc")},
		"0xc": nil,
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 3)
	require.NoError(t, err, "exhaustion is a normal outcome, not an error")
	assert.False(t, res.Found)
	assert.Equal(t, 2, res.Expanded)
}

func TestShortestPathDuplicateNeighborInBatch(t *testing.T) {
	// two transactions to the same new neighbor: one admit, one enqueue
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", "0xc"),
			tx("0x2", "0xc", "0xa"),
		},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 2)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, []string{"0xa", "0xc"}, src.fetched, "0xc enqueued exactly once")
	assert.Equal(t, 2, res.Observed)
}

func TestShortestPathFirstEdgeWins(t *testing.T) {
	// 0xb is reachable at depth 1 via 0x1 and again at depth 2 via
	// 0x9; the proof must stay the first-discovered edge
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", "0xc"),
			tx("0x2", "0xa", "0xd"),
		},
		"0xc": {tx("0x9", "0xc", "0xd")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xd", 2)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0xd", "0xa"}, res.Wallets)
	assert.Equal(t, []string{"0x2"}, res.TxHashes)
}

func TestShortestPathSkipsEmptyCounterparty(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", ""), // contract creation etc: no counterparty
			tx("0x2", "0xa", "0xb"),
		},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 1)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, res.Observed, "empty counterparty never admitted")
}

func TestShortestPathSkipsSelfTransaction(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", "0xa"), // self transfer is degenerate
			tx("0x2", "0xa", "0xb"),
		},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 1)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0x2"}, res.TxHashes)
}

func TestShortestPathSourceEqualsTarget(t *testing.T) {
	// a self-transaction does not count; the source must literally
	// reappear as a neighbor through some other wallet
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x0", "0xa", "0xa"),
			tx("0x1", "0xa", "0xc"),
		},
		"0xc": {tx("0x2", "0xc", "0xa")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xa", 2)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0xa"}, res.Wallets, "round trip yields the trivial path")
	assert.Empty(t, res.TxHashes)
	assert.Equal(t, []string{"0xa", "0xc"}, src.fetched)
}

func TestShortestPathStopsAtFirstMatch(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", "0xb"),
			tx("0x2", "0xa", "0xd"), // must never be reached
		},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xb", 3)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, res.Observed, "remaining transactions not processed after the match")
	assert.Equal(t, []string{"0xa"}, src.fetched)
}

func TestShortestPathFIFOOrder(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {
			tx("0x1", "0xa", "0xc"),
			tx("0x2", "0xa", "0xd"),
		},
		"0xc": {tx("0x3", "0xc", "0xe")},
		"0xd": nil,
		"0xe": nil,
	}}
	s := newSearcher(t, Config{Source: src})

	_, err := s.ShortestPath(context.Background(), "0xa", "0xff", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xc", "0xd", "0xe"}, src.fetched, "breadth before depth")
}

func TestShortestPathNormalizesCase(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xab": {tx("0x1", "0xAB", "0xCD")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xAB", "0xcd", 1)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"0xcd", "0xab"}, res.Wallets)
}

func TestShortestPathFetchFailure(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{
		txs:    map[string][]model.Transaction{"0xa": {tx("0x1", "0xa", "0xc")}},
		failOn: "0xc",
		err:    boom,
	}
	s := newSearcher(t, Config{Source: src})

	_, err := s.ShortestPath(context.Background(), "0xa", "0xb", 2)
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "0xc")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestShortestPathContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{txs: map[string][]model.Transaction{}}
	s := newSearcher(t, Config{Source: src})

	_, err := s.ShortestPath(ctx, "0xa", "0xb", 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.fetched, "no fetch after cancellation")
}

func TestShortestPathPacesEveryFetch(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x1", "0xa", "0xc")},
		"0xc": nil,
	}}
	p := &countingPacer{}
	s := newSearcher(t, Config{Source: src, Pacer: p})

	_, err := s.ShortestPath(context.Background(), "0xa", "0xb", 1)
	require.NoError(t, err)
	assert.Equal(t, len(src.fetched), p.calls)
	assert.Equal(t, 2, p.calls)
}

func TestShortestPathOnExpandHook(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x1", "0xa", "0xc")},
		"0xc": nil,
	}}
	type expansion struct {
		wallet string
		depth  int
		txs    int
	}
	var got []expansion
	s := newSearcher(t, Config{
		Source: src,
		OnExpand: func(w string, depth, txs int) {
			got = append(got, expansion{w, depth, txs})
		},
	})

	_, err := s.ShortestPath(context.Background(), "0xa", "0xb", 1)
	require.NoError(t, err)
	assert.Equal(t, []expansion{{"0xa", 0, 1}, {"0xc", 1, 0}}, got)
}

func TestShortestPathDepthBound(t *testing.T) {
	// chain a->b1->b2->b3; every admitted wallet's path stays within
	// maxDepth+1 hops of the root
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa":  {tx("0x1", "0xa", "0xb1")},
		"0xb1": {tx("0x2", "0xb1", "0xb2")},
		"0xb2": {tx("0x3", "0xb2", "0xb3")},
		"0xb3": {tx("0x4", "0xb3", "0xb4")},
	}}
	s := newSearcher(t, Config{Source: src})

	res, err := s.ShortestPath(context.Background(), "0xa", "0xzz", 2)
	require.NoError(t, err)
	assert.False(t, res.Found)
	// depth 2 bound: 0xb2 expanded last, 0xb3 admitted but not expanded
	assert.Equal(t, []string{"0xa", "0xb1", "0xb2"}, src.fetched)
	assert.Equal(t, 4, res.Observed)
}

func TestShortestPathSlowPacerHonorsContext(t *testing.T) {
	src := &fakeSource{txs: map[string][]model.Transaction{
		"0xa": {tx("0x1", "0xa", "0xc")},
	}}
	s := newSearcher(t, Config{Source: src, Pacer: blockingPacer{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.ShortestPath(ctx, "0xa", "0xb", 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingPacer struct{}

func (blockingPacer) Pace(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
