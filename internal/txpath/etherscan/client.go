// Package etherscan implements discovery.DataSource against the
// Etherscan account API (module=account&action=txlist) or any
// wire-compatible provider.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/model"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/pacing"
)

const DefaultBaseURL = "https://api.etherscan.io/api"

// provider cap: page*offset must not exceed 10000 on txlist
const maxPageSize = 10000

// ErrRateLimited is returned when the provider answers
// "Max rate limit reached". Retryable after backing off.
var ErrRateLimited = errors.New("etherscan: rate limited")

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("etherscan: http status=%d", e.code) }

type Config struct {
	BaseURL string // default DefaultBaseURL
	APIKey  string

	PageSize int // txs per txlist page, default 1000
	MaxPages int // pagination cap, 0 = none

	Timeout time.Duration // per-request, default 10s

	// Pacer runs before every HTTP request, pagination included, so a
	// deep wallet cannot burst past the provider's rate limit.
	Pacer pacing.Pacer

	// IncludeFailed keeps transactions with isError != "0". Off by
	// default: a failed transfer moved nothing, so it proves no link.
	IncludeFailed bool
}

type Client struct {
	base          string
	apiKey        string
	pageSize      int
	maxPages      int
	includeFailed bool
	pacer         pacing.Pacer
	hc            *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Pacer == nil {
		cfg.Pacer = pacing.Nop()
	}
	return &Client{
		base:          strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		pageSize:      cfg.PageSize,
		maxPages:      cfg.MaxPages,
		includeFailed: cfg.IncludeFailed,
		pacer:         cfg.Pacer,
		hc:            &http.Client{Timeout: cfg.Timeout},
	}
}

// txlist item; every field is a string on the wire.
type txItem struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	BlockNumber string `json:"blockNumber"`
	IsError     string `json:"isError"`
}

// envelope: result is an array on success and a bare string on
// provider-side errors.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// FetchTransactions pages through the wallet's txlist and returns it as
// one sequence in provider order (sort=asc).
func (c *Client) FetchTransactions(ctx context.Context, wallet string) ([]model.Transaction, error) {
	var out []model.Transaction
	for page := 1; c.maxPages <= 0 || page <= c.maxPages; page++ {
		batch, err := c.txlistPage(ctx, wallet, page)
		if err != nil {
			return nil, err
		}
		for _, it := range batch {
			if !c.includeFailed && it.IsError != "" && it.IsError != "0" {
				continue
			}
			out = append(out, model.Transaction{
				Hash:        it.Hash,
				From:        it.From,
				To:          it.To,
				BlockNumber: parseI64(it.BlockNumber),
				Time:        parseI64(it.TimeStamp),
				ValueWei:    it.Value,
			})
		}
		if len(batch) < c.pageSize {
			break // short page = last page
		}
	}
	return out, nil
}

func (c *Client) txlistPage(ctx context.Context, wallet string, page int) ([]txItem, error) {
	if err := c.pacer.Pace(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", wallet)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("page", strconv.Itoa(page))
	q.Set("offset", strconv.Itoa(c.pageSize))
	q.Set("sort", "asc")
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &statusError{code: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("etherscan: decode txlist: %w", err)
	}
	if env.Status != "1" {
		// status "0" covers both real errors and the empty-result
		// quirk; the distinguishing text may sit in message or result
		msg := env.Message
		var s string
		if json.Unmarshal(env.Result, &s) == nil && s != "" {
			msg = s
		}
		switch {
		case strings.Contains(env.Message, "No transactions found") || strings.Contains(msg, "No transactions found"):
			return nil, nil
		case strings.Contains(msg, "Max rate limit reached"):
			return nil, ErrRateLimited
		default:
			return nil, fmt.Errorf("etherscan: provider error: %s", msg)
		}
	}

	var items []txItem
	if err := json.Unmarshal(env.Result, &items); err != nil {
		return nil, fmt.Errorf("etherscan: decode txlist result: %w", err)
	}
	return items, nil
}

func parseI64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// IsRetryable classifies fetch errors for retry policies: rate limits,
// provider 5xx and transport errors retry; 4xx and decode errors do
// not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// http.Client.Do wraps transport failures in *url.Error
	var ue *url.Error
	return errors.As(err, &ue)
}
