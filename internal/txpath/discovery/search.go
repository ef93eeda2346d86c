package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/pacing"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/wallet"
)

// ErrFetch wraps any data-source failure. The search aborts on the
// first one; retrying is the caller's decision (wrap the source with
// source.Retrying before it reaches the searcher).
var ErrFetch = errors.New("discovery: fetch transactions")

// DataSource yields every transaction a wallet took part in, as one
// logical sequence per call in provider order. Pagination is the
// implementation's problem.
type DataSource interface {
	FetchTransactions(ctx context.Context, wallet string) ([]model.Transaction, error)
}

type Config struct {
	Source DataSource

	// Pacer runs before every fetch. Defaults to pacing.Nop().
	Pacer pacing.Pacer

	// OnExpand is an optional hook called after each wallet's
	// transactions arrive, for progress logging.
	OnExpand func(wallet string, depth, txs int)
}

// Searcher runs breadth-first path searches over a DataSource. It holds
// no per-search state, so one Searcher may serve concurrent
// independent ShortestPath calls.
type Searcher struct {
	cfg Config
}

func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.Source == nil {
		return nil, errors.New("discovery: Config.Source is required")
	}
	if cfg.Pacer == nil {
		cfg.Pacer = pacing.Nop()
	}
	return &Searcher{cfg: cfg}, nil
}

// Result is the outcome of one search. Found=false with a nil error
// means the frontier was exhausted without a match, which is a normal
// outcome, not a failure.
type Result struct {
	Found    bool
	Wallets  []string // target first, source last
	TxHashes []string // TxHashes[i] links Wallets[i] and Wallets[i+1]
	Expanded int      // wallets fetched
	Observed int      // final tree size
}

type queueItem struct {
	wallet string
	depth  int
}

// ShortestPath searches outward from source until target is seen or
// maxDepth is exhausted. Depth 0 inspects only the source's direct
// transactions. BFS order makes the returned path shortest in hop
// count; the proof hash for each hop is the transaction that first
// discovered the child wallet.
//
// Transactions whose counterparty is empty or the expanded wallet
// itself are skipped as degenerate. A neighbor already in the tree is
// neither re-admitted nor re-enqueued; the first-discovered edge wins.
func (s *Searcher) ShortestPath(ctx context.Context, source, target string, maxDepth int) (Result, error) {
	source = wallet.Normalize(source)
	target = wallet.Normalize(target)

	tree := NewTree(source)
	queue := []queueItem{{wallet: source, depth: 0}}
	head := 0
	expanded := 0

	fail := func(err error) (Result, error) {
		return Result{Expanded: expanded, Observed: tree.Size()}, err
	}

	for head < len(queue) {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		item := queue[head]
		head++

		if err := s.cfg.Pacer.Pace(ctx); err != nil {
			return fail(err)
		}
		txs, err := s.cfg.Source.FetchTransactions(ctx, item.wallet)
		if err != nil {
			return fail(fmt.Errorf("%w: %q: %v", ErrFetch, item.wallet, err))
		}
		expanded++
		if s.cfg.OnExpand != nil {
			s.cfg.OnExpand(item.wallet, item.depth, len(txs))
		}

		for _, tx := range txs {
			n := wallet.Normalize(tx.Counterparty(item.wallet))
			if n == "" || n == item.wallet {
				continue // missing or self-transfer counterparty
			}
			fresh := !tree.Contains(n)
			if fresh {
				if err := tree.Admit(item.wallet, n, tx.Hash); err != nil {
					return fail(err)
				}
			}
			if n == target {
				ws, hs, err := tree.PathToRoot(n)
				if err != nil {
					return fail(err)
				}
				return Result{
					Found:    true,
					Wallets:  ws,
					TxHashes: hs,
					Expanded: expanded,
					Observed: tree.Size(),
				}, nil
			}
			if fresh && item.depth < maxDepth {
				queue = append(queue, queueItem{wallet: n, depth: item.depth + 1})
			}
		}

		// head-index FIFO: compact occasionally so the slice doesn't
		// keep every expanded wallet alive
		if head > 4096 && head*2 > len(queue) {
			queue = append(queue[:0:0], queue[head:]...)
			head = 0
		}
	}
	return Result{Expanded: expanded, Observed: tree.Size()}, nil
}
