package domain_test

import (
	"encoding/json"
	"testing"

	"geyser/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkey_String(t *testing.T) {
	var zero domain.Pubkey
	assert.Equal(t, "11111111111111111111111111111111", zero.String())
}

func TestParsePubkey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "system program", input: "11111111111111111111111111111111"},
		{name: "sysvar clock", input: "SysvarC1ock11111111111111111111111111111111"},
		{name: "invalid alphabet", input: "0OIl", wantErr: true},
		{name: "too short", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := domain.ParsePubkey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, p.String())
		})
	}
}

func TestAccountUpdateEvent_JSONUsesBase58(t *testing.T) {
	owner, err := domain.ParsePubkey("SysvarC1ock11111111111111111111111111111111")
	require.NoError(t, err)

	body, err := json.Marshal(domain.AccountUpdateEvent{Owner: owner, Lamports: 5})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"owner":"SysvarC1ock11111111111111111111111111111111"`)

	var decoded domain.AccountUpdateEvent
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, owner, decoded.Owner)
	assert.Equal(t, uint64(5), decoded.Lamports)
}

func TestSlotStatus_Text(t *testing.T) {
	var s domain.SlotStatus
	require.NoError(t, s.UnmarshalText([]byte("rooted")))
	assert.Equal(t, domain.SlotRooted, s)
	assert.Error(t, s.UnmarshalText([]byte("frozen")))
	assert.Equal(t, "SlotStatus(9)", domain.SlotStatus(9).String())
}
