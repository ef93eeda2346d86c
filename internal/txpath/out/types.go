package out

import (
	"encoding/json"
)

// Envelope is the wire shape for every emitted event.
type Envelope struct {
	Type string          `json:"type"` // e.g. "trace_result"
	TS   int64           `json:"ts"`   // unix milli
	Data json.RawMessage `json:"data"`
}

const TypeTraceResult = "trace_result"

// TraceEvent describes one completed search, found or not.
type TraceEvent struct {
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
	TS       int64    `json:"ts"` // unix milli, search completion time
}
