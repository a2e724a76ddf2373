package domain

type TransactionEvent struct {
	Signature   Signature             `json:"signature"`
	IsVote      bool                  `json:"isVote"`
	Slot        uint64                `json:"slot"`
	Index       uint64                `json:"index"`
	Transaction []byte                `json:"transaction"` // serialized transaction as received from the node
	Meta        TransactionStatusMeta `json:"meta"`
}

type TransactionStatusMeta struct {
	Err          string   `json:"err,omitempty"` // empty when the transaction succeeded
	Fee          uint64   `json:"fee"`
	PreBalances  []uint64 `json:"preBalances"`
	PostBalances []uint64 `json:"postBalances"`
	LogMessages  []string `json:"logMessages"`
}
