package events_test

import (
	"testing"

	"geyser/domain"
	"geyser/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type field struct {
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// decodeFields splits a message into its top-level fields, keyed by field number.
func decodeFields(t *testing.T, b []byte) map[protowire.Number][]field {
	t.Helper()
	out := make(map[protowire.Number][]field)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0, "bad tag")
		b = b[n:]

		f := field{typ: typ}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			require.GreaterOrEqual(t, m, 0, "bad varint")
			f.varint = v
			n = m
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			require.GreaterOrEqual(t, m, 0, "bad bytes")
			f.bytes = v
			n = m
		default:
			t.Fatalf("unexpected wire type %v", typ)
		}
		b = b[n:]
		out[num] = append(out[num], f)
	}
	return out
}

func sampleAccount() *domain.AccountUpdateEvent {
	sig := domain.Signature{9, 9, 9}
	return &domain.AccountUpdateEvent{
		Slot:         42,
		Pubkey:       domain.Pubkey{1, 2, 3},
		Lamports:     1_000_000,
		Owner:        domain.Pubkey{4, 5, 6},
		Executable:   true,
		RentEpoch:    361,
		Data:         []byte{0xde, 0xad, 0xbe, 0xef},
		WriteVersion: 7,
		TxnSignature: &sig,
	}
}

func TestEncodeAccountUpdate(t *testing.T) {
	ev := sampleAccount()
	fields := decodeFields(t, events.EncodeAccountUpdate(nil, ev))

	assert.Equal(t, uint64(42), fields[1][0].varint)
	assert.Equal(t, ev.Pubkey.Bytes(), fields[2][0].bytes)
	assert.Equal(t, uint64(1_000_000), fields[3][0].varint)
	assert.Equal(t, ev.Owner.Bytes(), fields[4][0].bytes)
	assert.Equal(t, uint64(1), fields[5][0].varint)
	assert.Equal(t, uint64(361), fields[6][0].varint)
	assert.Equal(t, ev.Data, fields[7][0].bytes)
	assert.Equal(t, uint64(7), fields[8][0].varint)
	assert.Equal(t, ev.TxnSignature.Bytes(), fields[9][0].bytes)
}

func TestEncodeAccountUpdate_SkipsDefaults(t *testing.T) {
	fields := decodeFields(t, events.EncodeAccountUpdate(nil, &domain.AccountUpdateEvent{}))

	// pubkey and owner are fixed-length and always present
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, protowire.Number(2))
	assert.Contains(t, fields, protowire.Number(4))
}

func TestEncodeSlotStatus(t *testing.T) {
	parent := uint64(0)
	fields := decodeFields(t, events.EncodeSlotStatus(nil, &domain.SlotStatusEvent{
		Slot:   100,
		Parent: &parent,
		Status: domain.SlotConfirmed,
	}))

	assert.Equal(t, uint64(100), fields[1][0].varint)
	require.Len(t, fields[2], 1, "explicit zero parent must be present")
	assert.Equal(t, uint64(0), fields[2][0].varint)
	assert.Equal(t, uint64(domain.SlotConfirmed), fields[3][0].varint)

	fields = decodeFields(t, events.EncodeSlotStatus(nil, &domain.SlotStatusEvent{Slot: 100}))
	assert.NotContains(t, fields, protowire.Number(2))
	assert.NotContains(t, fields, protowire.Number(3))
}

func TestEncodeTransaction(t *testing.T) {
	ev := &domain.TransactionEvent{
		Signature:   domain.Signature{1},
		IsVote:      true,
		Slot:        5,
		Index:       3,
		Transaction: []byte{1, 2, 3},
		Meta: domain.TransactionStatusMeta{
			Err:          "InstructionError",
			Fee:          5000,
			PreBalances:  []uint64{10, 300},
			PostBalances: []uint64{5, 305},
			LogMessages:  []string{"Program log: hello", "Program success"},
		},
	}
	fields := decodeFields(t, events.EncodeTransaction(nil, ev))

	assert.Equal(t, ev.Signature.Bytes(), fields[1][0].bytes)
	assert.Equal(t, uint64(1), fields[2][0].varint)
	assert.Equal(t, uint64(5), fields[3][0].varint)
	assert.Equal(t, uint64(3), fields[4][0].varint)
	assert.Equal(t, []byte{1, 2, 3}, fields[5][0].bytes)

	meta := decodeFields(t, fields[6][0].bytes)
	assert.Equal(t, "InstructionError", string(meta[1][0].bytes))
	assert.Equal(t, uint64(5000), meta[2][0].varint)

	pre := meta[3][0].bytes
	v, n := protowire.ConsumeVarint(pre)
	assert.Equal(t, uint64(10), v)
	v, _ = protowire.ConsumeVarint(pre[n:])
	assert.Equal(t, uint64(300), v)

	require.Len(t, meta[5], 2)
	assert.Equal(t, "Program success", string(meta[5][1].bytes))
}

func TestSerializer_Deterministic(t *testing.T) {
	s := events.Serializer{}
	assert.Equal(t, s.AccountUpdate(sampleAccount()), s.AccountUpdate(sampleAccount()))

	slot := &domain.SlotStatusEvent{Slot: 9, Status: domain.SlotRooted}
	assert.Equal(t, s.SlotStatus(slot), s.SlotStatus(slot))

	tx := &domain.TransactionEvent{Slot: 1, Meta: domain.TransactionStatusMeta{LogMessages: []string{"a", "b"}}}
	assert.Equal(t, s.Transaction(tx), s.Transaction(tx))
}

func TestSerializer_Wrap(t *testing.T) {
	plain := events.Serializer{}
	wrapped := events.Serializer{Wrap: true}

	tests := []struct {
		name  string
		field protowire.Number
		plain []byte
		wrap  []byte
	}{
		{
			name:  "account",
			field: events.WrapperAccount,
			plain: plain.AccountUpdate(sampleAccount()),
			wrap:  wrapped.AccountUpdate(sampleAccount()),
		},
		{
			name:  "slot",
			field: events.WrapperSlot,
			plain: plain.SlotStatus(&domain.SlotStatusEvent{Slot: 1}),
			wrap:  wrapped.SlotStatus(&domain.SlotStatusEvent{Slot: 1}),
		},
		{
			name:  "transaction",
			field: events.WrapperTransaction,
			plain: plain.Transaction(&domain.TransactionEvent{Slot: 3}),
			wrap:  wrapped.Transaction(&domain.TransactionEvent{Slot: 3}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := decodeFields(t, tt.wrap)
			require.Len(t, fields, 1)
			require.Len(t, fields[tt.field], 1)
			assert.Equal(t, tt.plain, fields[tt.field][0].bytes)
		})
	}
}
