package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/discovery"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/etherscan"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/pacing"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/retry"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/source"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/txcache"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/wallet"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		src      = flag.String("source", "", "source wallet address")
		tgt      = flag.String("target", "", "target wallet address")
		maxDepth = flag.Int("max-depth", 3, "search depth bound; 0 = source's direct transactions only")

		// Provider
		baseURL = flag.String("api", etherscan.DefaultBaseURL, "etherscan-compatible api base url")
		apiKey  = flag.String("api-key", "", "etherscan api key; falls back to ETHERSCAN_API_KEY")
		pace    = flag.Duration("pace", time.Second, "minimum gap between provider calls; 0 disables")
		retries = flag.Int("retries", 3, "fetch attempts per wallet")

		// Local tx cache
		cachePath = flag.String("cache", "", "rocksdb tx cache path; empty disables")
		cacheTTL  = flag.Duration("cache-ttl", 6*time.Hour, "tx cache entry ttl; 0 = no expiry")

		timeout = flag.Duration("timeout", 0, "overall wall-clock bound; 0 = none")
		asJSON  = flag.Bool("json", false, "print the result as JSON")
		quiet   = flag.Bool("quiet", false, "suppress per-wallet progress logs")
	)
	flag.Parse()

	srcAddr, err := wallet.Parse(*src)
	if err != nil {
		log.Fatalf("bad -source %q: %v", *src, err)
	}
	tgtAddr, err := wallet.Parse(*tgt)
	if err != nil {
		log.Fatalf("bad -target %q: %v", *tgt, err)
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("ETHERSCAN_API_KEY")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *timeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, *timeout)
		defer tcancel()
	}

	var ds discovery.DataSource = etherscan.New(etherscan.Config{
		BaseURL: *baseURL,
		APIKey:  key,
		Pacer:   pacing.Interval(*pace),
	})
	ds = source.Retrying(ds, retry.Policy{
		MaxAttempts: *retries,
		BaseDelay:   500 * time.Millisecond,
		Jitter:      100 * time.Millisecond,
		Classify: func(err error) retry.Class {
			if etherscan.IsRetryable(err) {
				return retry.Retryable
			}
			return retry.Fatal
		},
		OnRetry: func(attempt int, wait time.Duration, err error) {
			log.Printf("[tracer] fetch retry: attempt=%d wait=%s err=%v", attempt, wait, err)
		},
	})
	if *cachePath != "" {
		cache, err := txcache.Open(*cachePath, *cacheTTL)
		if err != nil {
			log.Fatalf("open tx cache: %v", err)
		}
		defer cache.Close()
		ds = source.Cached(ds, cache)
	}

	cfg := discovery.Config{Source: ds}
	if !*quiet {
		cfg.OnExpand = func(w string, depth, txs int) {
			log.Printf("[tracer] expand: wallet=%s depth=%d txs=%d", w, depth, txs)
		}
	}
	searcher, err := discovery.NewSearcher(cfg)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	res, err := searcher.ShortestPath(ctx, srcAddr, tgtAddr, *maxDepth)
	if err != nil {
		log.Fatalf("search aborted: %v", err)
	}
	took := time.Since(start)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"source":    srcAddr,
			"target":    tgtAddr,
			"max_depth": *maxDepth,
			"found":     res.Found,
			"hops":      len(res.TxHashes),
			"wallets":   res.Wallets,
			"tx_hashes": res.TxHashes,
			"expanded":  res.Expanded,
			"observed":  res.Observed,
			"took_ms":   took.Milliseconds(),
		})
	} else if res.Found {
		fmt.Printf("path found: %d hops in %s (expanded %d wallets, observed %d)\n",
			len(res.TxHashes), took.Round(time.Millisecond), res.Expanded, res.Observed)
		for i, w := range res.Wallets {
			fmt.Println(w)
			if i < len(res.TxHashes) {
				fmt.Printf("    via tx %s\n", res.TxHashes[i])
			}
		}
	} else {
		fmt.Printf("no path from %s to %s within depth %d (expanded %d wallets, observed %d)\n",
			srcAddr, tgtAddr, *maxDepth, res.Expanded, res.Observed)
	}

	if !res.Found {
		os.Exit(1)
	}
}
