// Package api exposes the path search over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/discovery"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/out"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/wallet"
)

// SearchFunc runs one path search; (*discovery.Searcher).ShortestPath
// matches it.
type SearchFunc func(ctx context.Context, source, target string, maxDepth int) (discovery.Result, error)

type Config struct {
	Search SearchFunc

	DefaultDepth int // used when max_depth is absent; default 3
	MaxDepthCap  int // requested depths are clamped to this; default 6

	// Sink receives a TraceEvent per completed search, best effort.
	Sink out.Sink
}

type Server struct {
	search       SearchFunc
	defaultDepth int
	maxDepthCap  int
	sink         out.Sink
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Search == nil {
		return nil, errors.New("api: Config.Search is required")
	}
	if cfg.DefaultDepth <= 0 {
		cfg.DefaultDepth = 3
	}
	if cfg.MaxDepthCap <= 0 {
		cfg.MaxDepthCap = 6
	}
	return &Server{
		search:       cfg.Search,
		defaultDepth: cfg.DefaultDepth,
		maxDepthCap:  cfg.MaxDepthCap,
		sink:         cfg.Sink,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trace", s.handleTrace)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// -------------------- helpers --------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

// -------------------- handlers --------------------

type traceResponse struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	MaxDepth int      `json:"max_depth"`
	Found    bool     `json:"found"`
	Hops     int      `json:"hops"`
	Wallets  []string `json:"wallets,omitempty"`
	TxHashes []string `json:"tx_hashes,omitempty"`
	Expanded int      `json:"expanded"`
	Observed int      `json:"observed"`
	TookMS   int64    `json:"took_ms"`
}

// /trace?source=0x..&target=0x..&max_depth=3
// 200 for both found and not found; 400 on bad arguments; 502 when the
// search aborted on a provider failure. Found=false and an abort carry
// different meaning, so they must not share a shape.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	src, err := wallet.Parse(q.Get("source"))
	if err != nil {
		badRequest(w, "bad source address")
		return
	}
	tgt, err := wallet.Parse(q.Get("target"))
	if err != nil {
		badRequest(w, "bad target address")
		return
	}

	depth := s.defaultDepth
	if md := q.Get("max_depth"); md != "" {
		depth, err = strconv.Atoi(md)
		if err != nil || depth < 0 {
			badRequest(w, "bad max_depth")
			return
		}
	}
	if depth > s.maxDepthCap {
		depth = s.maxDepthCap
	}

	start := time.Now()
	res, err := s.search(r.Context(), src, tgt, depth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	took := time.Since(start)

	resp := traceResponse{
		Source:   src,
		Target:   tgt,
		MaxDepth: depth,
		Found:    res.Found,
		Hops:     len(res.TxHashes),
		Wallets:  res.Wallets,
		TxHashes: res.TxHashes,
		Expanded: res.Expanded,
		Observed: res.Observed,
		TookMS:   took.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
	s.emit(r.Context(), resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) emit(ctx context.Context, resp traceResponse) {
	if s.sink == nil {
		return
	}
	ev := out.TraceEvent{
		Source:   resp.Source,
		Target:   resp.Target,
		MaxDepth: resp.MaxDepth,
		Found:    resp.Found,
		Hops:     resp.Hops,
		Wallets:  resp.Wallets,
		TxHashes: resp.TxHashes,
		Expanded: resp.Expanded,
		Observed: resp.Observed,
		TookMS:   resp.TookMS,
		TS:       time.Now().UnixMilli(),
	}
	if err := s.sink.Emit(ctx, out.TypeTraceResult, ev); err != nil {
		log.Printf("[api] emit trace failed: source=%s target=%s err=%v", resp.Source, resp.Target, err)
	}
}
