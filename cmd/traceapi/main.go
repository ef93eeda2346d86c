package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/api"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/discovery"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/etherscan"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/out"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/pacing"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/ready"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/retry"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/source"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/txcache"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		listen = flag.String("listen", ":8090", "http listen addr")

		// Provider
		baseURL = flag.String("api", etherscan.DefaultBaseURL, "etherscan-compatible api base url")
		apiKey  = flag.String("api-key", "", "etherscan api key; falls back to ETHERSCAN_API_KEY")
		pace    = flag.Duration("pace", time.Second, "minimum gap between provider calls; 0 disables")
		retries = flag.Int("retries", 3, "fetch attempts per wallet")

		// Depth policy
		defaultDepth = flag.Int("default-depth", 3, "depth used when max_depth is absent")
		depthCap     = flag.Int("depth-cap", 6, "hard cap on requested max_depth")

		// Local tx cache
		cachePath = flag.String("cache", "", "rocksdb tx cache path; empty disables")
		cacheTTL  = flag.Duration("cache-ttl", 6*time.Hour, "tx cache entry ttl; 0 = no expiry")

		// Kafka sink (optional)
		brokers = flag.String("brokers", "", "kafka brokers, comma-separated; empty disables the sink")
		topic   = flag.String("topic", "txpath.traces", "kafka topic for trace results")

		readyFifo = flag.String("ready-fifo", "", "named fifo to signal readiness; empty disables")
	)
	flag.Parse()

	key := *apiKey
	if key == "" {
		key = os.Getenv("ETHERSCAN_API_KEY")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One paced provider stream shared by all requests; the pacer is
	// what keeps concurrent searches inside the provider's rate limit.
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
	})
	if *cachePath != "" {
		cache, err := txcache.Open(*cachePath, *cacheTTL)
		if err != nil {
			log.Fatalf("open tx cache: %v", err)
		}
		defer cache.Close()
		ds = source.Cached(ds, cache)
	}

	searcher, err := discovery.NewSearcher(discovery.Config{Source: ds})
	if err != nil {
		log.Fatal(err)
	}

	var sink out.Sink
	if *brokers != "" {
		sink, err = out.NewKafkaSink(strings.Split(*brokers, ","), *topic)
		if err != nil {
			log.Fatalf("kafka sink init: %v", err)
		}
		defer func() { _ = sink.Close() }()
	}

	srvAPI, err := api.NewServer(api.Config{
		Search:       searcher.ShortestPath,
		DefaultDepth: *defaultDepth,
		MaxDepthCap:  *depthCap,
		Sink:         sink,
	})
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:    *listen,
		Handler: srvAPI.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[traceapi] listening on %s api=%s", *listen, *baseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		if err := ready.Signal(ctx, *readyFifo, "", 0); err != nil {
			log.Printf("[traceapi] ready signal: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Printf("[traceapi] exit")
}
