// Package universe generates a deterministic transaction universe for
// the mock provider: a fixed wallet pool plus random transfer edges,
// with optional self-transactions and duplicate edges to exercise the
// searcher's degenerate-input handling.
package universe

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
	"github.com/chenzhangda16/web3-txpath/pkg/hash"
	"github.com/chenzhangda16/web3-txpath/pkg/rng"
)

type Config struct {
	Wallets   int   // address pool size, default 100
	Seed      int64 // base seed for all streams
	AvgDegree int   // average random edges per wallet, default 3

	SelfLoopEvery int // every Nth wallet gets a self-transaction; 0 disables
	DupEvery      int // every Mth edge is recorded twice; 0 disables

	Real bool // true: seed from the clock instead (non-reproducible)
}

// Universe is a fixed set of wallets and the transactions between
// them. Same Config, same universe: addresses, edges and hashes all
// derive from seeded streams.
type Universe struct {
	wallets  []string
	byWallet map[string][]model.Transaction
	nonce    uint64
}

func Build(cfg Config) *Universe {
	if cfg.Wallets <= 0 {
		cfg.Wallets = 100
	}
	if cfg.AvgDegree <= 0 {
		cfg.AvgDegree = 3
	}
	mode := rng.Deterministic
	if cfg.Real {
		mode = rng.Real
	}
	rf := rng.New(mode, cfg.Seed)

	u := &Universe{byWallet: make(map[string][]model.Transaction)}

	rAddr := rf.R(rng.AddrPool)
	u.wallets = make([]string, cfg.Wallets)
	for i := range u.wallets {
		b := make([]byte, 20)
		_, _ = rAddr.Read(b)
		u.wallets[i] = "0x" + hex.EncodeToString(b)
	}

	rFrom := rf.R(rng.EdgeFrom)
	rTo := rf.R(rng.EdgeTo)
	edges := cfg.Wallets * cfg.AvgDegree / 2
	for i := 0; i < edges; i++ {
		from := u.wallets[rFrom.Intn(len(u.wallets))]
		to := u.wallets[rTo.Intn(len(u.wallets))]
		for to == from {
			to = u.wallets[rTo.Intn(len(u.wallets))]
		}
		u.addTx(from, to)
		if cfg.DupEvery > 0 && (i+1)%cfg.DupEvery == 0 {
			u.addTx(from, to) // deliberate duplicate edge
		}
	}

	if cfg.SelfLoopEvery > 0 {
		for i := 0; i < len(u.wallets); i += cfg.SelfLoopEvery {
			w := u.wallets[i]
			u.addTx(w, w)
		}
	}
	return u
}

// addTx records one transfer in both parties' lists, the way an
// account-scoped txlist reports it.
func (u *Universe) addTx(from, to string) model.Transaction {
	u.nonce++
	tx := model.Transaction{
		Hash:        txHash(from, to, u.nonce),
		From:        from,
		To:          to,
		BlockNumber: int64(u.nonce),
		Time:        1_700_000_000 + int64(u.nonce)*12,
		ValueWei:    strconv.FormatUint(u.nonce*1000, 10),
	}
	u.byWallet[from] = append(u.byWallet[from], tx)
	if to != from {
		u.byWallet[to] = append(u.byWallet[to], tx)
	}
	return tx
}

func txHash(from, to string, nonce uint64) string {
	return hash.NewBuilder().
		PutString(from).
		PutString(to).
		PutU64(nonce).
		Sum32().Hex()
}

// Plant wires a fresh chain of hops transactions through brand-new
// wallets and returns its endpoints, for demos and end-to-end tests
// that need a guaranteed path of known length.
func (u *Universe) Plant(hops int) (source, target string) {
	if hops < 1 {
		hops = 1
	}
	chain := make([]string, hops+1)
	for i := range chain {
		u.nonce++
		h := hash.NewBuilder().PutString("plant").PutU64(u.nonce).Sum32()
		chain[i] = "0x" + hex.EncodeToString(h.Bytes()[:20])
	}
	for i := 0; i < hops; i++ {
		u.addTx(chain[i], chain[i+1])
	}
	return chain[0], chain[hops]
}

// Wallets returns the random pool in generation order (planted chains
// excluded).
func (u *Universe) Wallets() []string { return u.wallets }

// Transactions returns wallet's list in recorded order. Address match
// is case-insensitive like the real provider's.
func (u *Universe) Transactions(wallet string) []model.Transaction {
	return u.byWallet[strings.ToLower(strings.TrimSpace(wallet))]
}
