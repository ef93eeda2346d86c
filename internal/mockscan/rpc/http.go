// Package rpc serves a Universe over the Etherscan account API wire
// shape, so the real etherscan client can run against it unchanged.
package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/chenzhangda16/web3-txpath/internal/mockscan/universe"
)

type Server struct {
	u *universe.Universe

	// strict-rate mode: requests arriving closer together than minGap
	// get the provider's throttle answer, for exercising retry+pacing.
	minGap time.Duration
	mu     sync.Mutex
	last   time.Time
}

// NewServer wraps u. minGap <= 0 disables strict-rate mode.
func NewServer(u *universe.Universe, minGap time.Duration) *Server {
	return &Server{u: u, minGap: minGap}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", s.handleAPI)
	return mux
}

// -------------------- helpers --------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

func notOK(w http.ResponseWriter, result string) {
	writeJSON(w, 200, envelope{Status: "0", Message: "NOTOK", Result: result})
}

type txItem struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	BlockNumber string `json:"blockNumber"`
	IsError     string `json:"isError"`
}

// -------------------- handlers --------------------

func (s *Server) throttled() bool {
	if s.minGap <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.minGap {
		return true
	}
	s.last = now
	return false
}

// /api?module=account&action=txlist&address=0x..&page=1&offset=1000
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("module") != "account" || q.Get("action") != "txlist" {
		notOK(w, "Error! Missing or invalid Action name")
		return
	}
	if s.throttled() {
		notOK(w, "Max rate limit reached")
		return
	}
	addr := q.Get("address")
	if addr == "" {
		notOK(w, "Error! Missing or invalid Address")
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset <= 0 {
		offset = 1000
	}

	txs := s.u.Transactions(addr)
	lo := (page - 1) * offset
	if lo >= len(txs) {
		writeJSON(w, 200, envelope{Status: "0", Message: "No transactions found", Result: []txItem{}})
		return
	}
	hi := lo + offset
	if hi > len(txs) {
		hi = len(txs)
	}

	items := make([]txItem, 0, hi-lo)
	for _, tx := range txs[lo:hi] {
		items = append(items, txItem{
			Hash:        tx.Hash,
			From:        tx.From,
			To:          tx.To,
			Value:       tx.ValueWei,
			TimeStamp:   strconv.FormatInt(tx.Time, 10),
			BlockNumber: strconv.FormatInt(tx.BlockNumber, 10),
			IsError:     "0",
		})
	}
	writeJSON(w, 200, envelope{Status: "1", Message: "OK", Result: items})
}
