package transfer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewView_Unset(t *testing.T) {
	v := NewView(State{Status: StatusIdle, Amount: "0"})

	assert.False(t, v.Connected)
	assert.Empty(t, v.Identity)
	assert.Equal(t, "SOL", v.Ticker)
	assert.Equal(t, "0 SOL", v.YouWillSend)
	assert.Equal(t, Placeholder, v.Balance)
	assert.Equal(t, Placeholder, v.NetworkFee)
	assert.Equal(t, Placeholder, v.ConfirmationTime)
	assert.Nil(t, v.BalanceLamports)
	assert.Nil(t, v.Notice)
}

func TestNewView_Populated(t *testing.T) {
	key := solana.NewWallet().PublicKey()
	sig := solana.Signature{7}
	at := time.Unix(1_700_000_000, 0).UTC()

	st := State{
		Identity:  key,
		Connected: true,
		Status:    StatusPending,
		Pending:   1,
		Amount:    "1.5",
		Notice: &Notice{
			Kind:        NoticeSuccess,
			Message:     "Transaction successful",
			Signature:   sig,
			ExplorerURL: ExplorerURL("devnet", sig),
			At:          at,
		},
	}
	st.Balance.store(2_500_000_000, nil, at)
	st.Fee.store(5000, nil, at)
	st.ConfirmationTime.store(400*time.Millisecond, nil, at)

	v := NewView(st)
	assert.Equal(t, key.String(), v.Identity)
	assert.Equal(t, StatusPending, v.Status)
	assert.Equal(t, "2.5", v.Balance)
	require.NotNil(t, v.BalanceLamports)
	assert.Equal(t, uint64(2_500_000_000), *v.BalanceLamports)
	assert.Equal(t, "0.000005", v.NetworkFee)
	assert.Equal(t, "400ms", v.ConfirmationTime)

	require.NotNil(t, v.Notice)
	assert.Equal(t, sig.String(), v.Notice.Signature)
	assert.Equal(t, NoticeSuccess, v.Notice.Kind)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"explorerUrl":"https://explorer.solana.com/tx/`)
}

func TestNewView_ZeroFeeIsPlaceholder(t *testing.T) {
	st := State{Amount: "0"}
	st.Fee.store(0, nil, time.Now())

	assert.Equal(t, Placeholder, NewView(st).NetworkFee)
}

func TestNewView_ZeroConfirmationTimeIsPlaceholder(t *testing.T) {
	st := State{Amount: "0"}
	st.ConfirmationTime.store(0, nil, time.Now())

	assert.Equal(t, Placeholder, NewView(st).ConfirmationTime)
}

func TestNewView_FailedFieldIsPlaceholder(t *testing.T) {
	st := State{Amount: "0"}
	st.Balance.store(10, nil, time.Now())
	st.Balance.store(0, errLedger, time.Now())

	v := NewView(st)
	assert.Equal(t, Placeholder, v.Balance)
	assert.Nil(t, v.BalanceLamports)
}
