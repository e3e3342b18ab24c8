package quotes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vantage-ops/vantage/internal/shared"
)

func TestApply(t *testing.T) {
	cases := []struct {
		name    string
		current QuoteStatus
		op      Operation
		next    QuoteStatus
		noop    bool
		wantErr bool
	}{
		{name: "send draft", current: QuoteStatusDraft, op: OpSend, next: QuoteStatusSent},
		{name: "send sent", current: QuoteStatusSent, op: OpSend, wantErr: true},
		{name: "send accepted", current: QuoteStatusAccepted, op: OpSend, wantErr: true},
		{name: "accept sent", current: QuoteStatusSent, op: OpAccept, next: QuoteStatusAccepted},
		{name: "accept accepted is noop", current: QuoteStatusAccepted, op: OpAccept, next: QuoteStatusAccepted, noop: true},
		{name: "accept draft", current: QuoteStatusDraft, op: OpAccept, wantErr: true},
		{name: "revoke accepted", current: QuoteStatusAccepted, op: OpRevoke, next: QuoteStatusSent},
		{name: "revoke sent is noop", current: QuoteStatusSent, op: OpRevoke, next: QuoteStatusSent, noop: true},
		{name: "revoke draft", current: QuoteStatusDraft, op: OpRevoke, next: QuoteStatusSent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := Apply(tc.current, tc.op)
			if tc.wantErr {
				require.ErrorIs(t, err, shared.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.next, tr.Next)
			require.Equal(t, tc.noop, tr.NoOp)
		})
	}
}
