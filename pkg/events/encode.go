// Package events encodes domain events into the protobuf wire format described by
// proto/geyser/v1/events.proto. Fields are appended in field-number order and proto3
// default values are skipped, so the output is deterministic for a given event.
package events

import (
	"geyser/domain"

	"google.golang.org/protobuf/encoding/protowire"
)

// UpdateAccountEvent field numbers.
const (
	accountSlot         protowire.Number = 1
	accountPubkey       protowire.Number = 2
	accountLamports     protowire.Number = 3
	accountOwner        protowire.Number = 4
	accountExecutable   protowire.Number = 5
	accountRentEpoch    protowire.Number = 6
	accountData         protowire.Number = 7
	accountWriteVersion protowire.Number = 8
	accountTxnSignature protowire.Number = 9
)

// SlotStatusEvent field numbers.
const (
	slotSlot   protowire.Number = 1
	slotParent protowire.Number = 2
	slotStatus protowire.Number = 3
)

// TransactionEvent and TransactionStatusMeta field numbers.
const (
	txSignature   protowire.Number = 1
	txIsVote      protowire.Number = 2
	txSlot        protowire.Number = 3
	txIndex       protowire.Number = 4
	txTransaction protowire.Number = 5
	txMeta        protowire.Number = 6

	metaErr          protowire.Number = 1
	metaFee          protowire.Number = 2
	metaPreBalances  protowire.Number = 3
	metaPostBalances protowire.Number = 4
	metaLogMessages  protowire.Number = 5
)

// MessageWrapper oneof field numbers.
const (
	WrapperAccount     protowire.Number = 1
	WrapperSlot        protowire.Number = 2
	WrapperTransaction protowire.Number = 3
)

// Serializer turns events into payload bytes. The zero value writes bare event messages;
// with Wrap set every payload is enclosed in a MessageWrapper.
type Serializer struct {
	Wrap bool
}

func (s Serializer) AccountUpdate(ev *domain.AccountUpdateEvent) []byte {
	return s.wrap(WrapperAccount, EncodeAccountUpdate(nil, ev))
}

func (s Serializer) SlotStatus(ev *domain.SlotStatusEvent) []byte {
	return s.wrap(WrapperSlot, EncodeSlotStatus(nil, ev))
}

func (s Serializer) Transaction(ev *domain.TransactionEvent) []byte {
	return s.wrap(WrapperTransaction, EncodeTransaction(nil, ev))
}

func (s Serializer) wrap(field protowire.Number, msg []byte) []byte {
	if !s.Wrap {
		return msg
	}
	b := make([]byte, 0, len(msg)+protowire.SizeTag(field)+protowire.SizeVarint(uint64(len(msg))))
	return appendMessage(b, field, msg, true)
}

// EncodeAccountUpdate appends the UpdateAccountEvent encoding of ev to b.
func EncodeAccountUpdate(b []byte, ev *domain.AccountUpdateEvent) []byte {
	b = appendUint64(b, accountSlot, ev.Slot)
	b = appendBytes(b, accountPubkey, ev.Pubkey.Bytes())
	b = appendUint64(b, accountLamports, ev.Lamports)
	b = appendBytes(b, accountOwner, ev.Owner.Bytes())
	b = appendBool(b, accountExecutable, ev.Executable)
	b = appendUint64(b, accountRentEpoch, ev.RentEpoch)
	b = appendBytes(b, accountData, ev.Data)
	b = appendUint64(b, accountWriteVersion, ev.WriteVersion)
	if ev.TxnSignature != nil {
		// optional field: presence is encoded even though the value is never empty
		b = protowire.AppendTag(b, accountTxnSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, ev.TxnSignature.Bytes())
	}
	return b
}

// EncodeSlotStatus appends the SlotStatusEvent encoding of ev to b.
func EncodeSlotStatus(b []byte, ev *domain.SlotStatusEvent) []byte {
	b = appendUint64(b, slotSlot, ev.Slot)
	if ev.Parent != nil {
		b = protowire.AppendTag(b, slotParent, protowire.VarintType)
		b = protowire.AppendVarint(b, *ev.Parent)
	}
	if ev.Status != domain.SlotProcessed {
		b = protowire.AppendTag(b, slotStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ev.Status))
	}
	return b
}

// EncodeTransaction appends the TransactionEvent encoding of ev to b.
func EncodeTransaction(b []byte, ev *domain.TransactionEvent) []byte {
	b = appendBytes(b, txSignature, ev.Signature.Bytes())
	b = appendBool(b, txIsVote, ev.IsVote)
	b = appendUint64(b, txSlot, ev.Slot)
	b = appendUint64(b, txIndex, ev.Index)
	b = appendBytes(b, txTransaction, ev.Transaction)
	b = appendMessage(b, txMeta, encodeStatusMeta(nil, &ev.Meta), false)
	return b
}

func encodeStatusMeta(b []byte, meta *domain.TransactionStatusMeta) []byte {
	if meta.Err != "" {
		b = protowire.AppendTag(b, metaErr, protowire.BytesType)
		b = protowire.AppendString(b, meta.Err)
	}
	b = appendUint64(b, metaFee, meta.Fee)
	b = appendPacked(b, metaPreBalances, meta.PreBalances)
	b = appendPacked(b, metaPostBalances, meta.PostBalances)
	for _, line := range meta.LogMessages {
		b = protowire.AppendTag(b, metaLogMessages, protowire.BytesType)
		b = protowire.AppendString(b, line)
	}
	return b
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendMessage writes an embedded message. Empty messages are skipped unless keepEmpty is
// set, which oneof members need so the selected case survives.
func appendMessage(b []byte, num protowire.Number, msg []byte, keepEmpty bool) []byte {
	if len(msg) == 0 && !keepEmpty {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendPacked(b []byte, num protowire.Number, vs []uint64) []byte {
	if len(vs) == 0 {
		return b
	}
	n := 0
	for _, v := range vs {
		n += protowire.SizeVarint(v)
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(n))
	for _, v := range vs {
		b = protowire.AppendVarint(b, v)
	}
	return b
}
