package domain

type AccountUpdateEvent struct {
	Slot         uint64     `json:"slot"`
	Pubkey       Pubkey     `json:"pubkey"`
	Lamports     uint64     `json:"lamports"`
	Owner        Pubkey     `json:"owner"`
	Executable   bool       `json:"executable"`
	RentEpoch    uint64     `json:"rentEpoch"`
	Data         []byte     `json:"data"`
	WriteVersion uint64     `json:"writeVersion"`
	TxnSignature *Signature `json:"txnSignature,omitempty"`
}
