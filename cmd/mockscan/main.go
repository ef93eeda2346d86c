package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenzhangda16/web3-txpath/internal/mockscan/rpc"
	"github.com/chenzhangda16/web3-txpath/internal/mockscan/universe"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		listen = flag.String("listen", ":18090", "http listen addr")

		wallets   = flag.Int("wallets", 500, "address pool size")
		seed      = flag.Int64("seed", 1, "seed for deterministic generation")
		real      = flag.Bool("real", false, "seed from the clock instead (non-reproducible)")
		degree    = flag.Int("degree", 3, "average random edges per wallet")
		selfEvery = flag.Int("self-every", 17, "every Nth wallet gets a self-transaction; 0 disables")
		dupEvery  = flag.Int("dup-every", 13, "every Mth edge is duplicated; 0 disables")

		plant  = flag.Int("plant", 0, "plant a guaranteed chain of N hops and log its endpoints; 0 disables")
		minGap = flag.Duration("min-gap", 0, "strict-rate mode: reject requests arriving faster than this; 0 disables")
	)
	flag.Parse()

	u := universe.Build(universe.Config{
		Wallets:       *wallets,
		Seed:          *seed,
		Real:          *real,
		AvgDegree:     *degree,
		SelfLoopEvery: *selfEvery,
		DupEvery:      *dupEvery,
	})
	if *plant > 0 {
		src, tgt := u.Plant(*plant)
		log.Printf("[mockscan] planted chain: hops=%d source=%s target=%s", *plant, src, tgt)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    *listen,
		Handler: rpc.NewServer(u, *minGap).Handler(),
	}

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Printf("[mockscan] listening on %s wallets=%d seed=%d", *listen, *wallets, *seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
