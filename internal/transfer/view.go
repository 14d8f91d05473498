package transfer

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/vultisig/solsend/internal/util"
)

const (
	Ticker      = "SOL"
	Placeholder = "--"
)

// View is the presentation-ready rendering of the orchestrator state.
type View struct {
	Identity         string      `json:"identity,omitempty"`
	Connected        bool        `json:"connected"`
	Ticker           string      `json:"ticker"`
	Status           Status      `json:"status"`
	Pending          int         `json:"pending"`
	Amount           string      `json:"amount"`
	YouWillSend      string      `json:"youWillSend"`
	Balance          string      `json:"balance"`
	BalanceLamports  *uint64     `json:"balanceLamports,omitempty"`
	NetworkFee       string      `json:"networkFee"`
	FeeLamports      *uint64     `json:"feeLamports,omitempty"`
	ConfirmationTime string      `json:"confirmationTime"`
	Notice           *NoticeView `json:"notice,omitempty"`
}

type NoticeView struct {
	Kind        NoticeKind `json:"kind"`
	AttemptID   string     `json:"attemptId,omitempty"`
	Message     string     `json:"message"`
	Signature   string     `json:"signature,omitempty"`
	ExplorerURL string     `json:"explorerUrl,omitempty"`
	Detail      any        `json:"detail,omitempty"`
	At          time.Time  `json:"at"`
}

func NewView(st State) View {
	v := View{
		Connected:        st.Connected,
		Ticker:           Ticker,
		Status:           st.Status,
		Pending:          st.Pending,
		Amount:           st.Amount,
		YouWillSend:      st.Amount + " " + Ticker,
		Balance:          Placeholder,
		NetworkFee:       Placeholder,
		ConfirmationTime: Placeholder,
	}

	if st.Connected {
		v.Identity = st.Identity.String()
	}

	if lamports, ok := st.Balance.Get(); ok {
		v.Balance = util.LamportsToSol(lamports)
		v.BalanceLamports = &lamports
	}

	// zero fee and zero confirmation time render as the placeholder, like unknown ones
	if lamports, ok := st.Fee.Get(); ok && lamports > 0 {
		v.NetworkFee = util.LamportsToSol(lamports)
		v.FeeLamports = &lamports
	}

	if d, ok := st.ConfirmationTime.Get(); ok && d > 0 {
		v.ConfirmationTime = d.String()
	}

	if st.Notice != nil {
		v.Notice = newNoticeView(st.Notice)
	}
	return v
}

func newNoticeView(n *Notice) *NoticeView {
	nv := &NoticeView{
		Kind:        n.Kind,
		AttemptID:   n.AttemptID,
		Message:     n.Message,
		ExplorerURL: n.ExplorerURL,
		Detail:      n.Detail,
		At:          n.At,
	}
	if n.Signature != (solana.Signature{}) {
		nv.Signature = n.Signature.String()
	}
	return nv
}
