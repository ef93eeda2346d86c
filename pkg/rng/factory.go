package rng

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

type Mode int

const (
	Deterministic Mode = iota
	Real
)

// Named streams used by the mockscan universe. One stream per concern
// keeps sequences independent: adding a consumer to one stream never
// shifts another's output.
const (
	AddrPool = "addr_pool"
	EdgeFrom = "edge_from"
	EdgeTo   = "edge_to"
)

// Factory hands out named deterministic rand streams derived from one
// base seed. In Real mode the base seed is taken from the clock once
// at construction.
type Factory struct {
	baseSeed int64
	mode     Mode

	mu      sync.Mutex
	streams map[string]*rand.Rand
}

func New(mode Mode, seed int64) *Factory {
	if mode == Real {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		baseSeed: seed,
		mode:     mode,
		streams:  make(map[string]*rand.Rand),
	}
}

// R returns the named stream, creating and caching it on first use.
// Callers on a hot path should grab the stream once and keep it.
func (f *Factory) R(name string) *rand.Rand {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.streams[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(deriveSeed(f.baseSeed, name)))
	f.streams[name] = r
	return r
}

func deriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64()) ^ base
}
