package model

import "strings"

// Transaction is one observed transfer between two wallets. From, To and
// Hash drive the path search; the remaining fields are provider
// enrichment carried through for reporting.
type Transaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	BlockNumber int64  `json:"block_number,omitempty"`
	Time        int64  `json:"time,omitempty"`
	ValueWei    string `json:"value_wei,omitempty"`
}

// Counterparty returns the other side of the transfer relative to w:
// the receiver when w is the sender, otherwise the sender. Addresses
// compare case-insensitively.
func (t Transaction) Counterparty(w string) string {
	if strings.EqualFold(t.From, w) {
		return t.To
	}
	return t.From
}
