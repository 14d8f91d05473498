package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vultisig/solsend/internal/transfer"
)

type amountRequest struct {
	Amount string `json:"amount"`
}

type errorResponse struct {
	Error string        `json:"error"`
	View  transfer.View `json:"view"`
}

type sendResponse struct {
	Signature string        `json:"signature"`
	View      transfer.View `json:"view"`
}

type feeResponse struct {
	Lamports uint64        `json:"lamports"`
	View     transfer.View `json:"view"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orchestrator.View())
}

func (s *Server) handleSetAmount(c echo.Context) error {
	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s.orchestrator.SetAmount(req.Amount)
	return c.JSON(http.StatusOK, s.orchestrator.View())
}

func (s *Server) handleMaxAmount(c echo.Context) error {
	maxAmount, ok := s.orchestrator.MaxAmount()
	if !ok {
		return c.JSON(http.StatusConflict, errorResponse{
			Error: "balance unknown",
			View:  s.orchestrator.View(),
		})
	}
	s.orchestrator.SetAmount(maxAmount)
	return c.JSON(http.StatusOK, s.orchestrator.View())
}

// handleSend waits for the transfer to settle. The request context only
// carries values: a client hanging up does not abandon a submitted transfer.
func (s *Server) handleSend(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	sig, err := s.orchestrator.SubmitTransfer(ctx)
	if err != nil {
		return c.JSON(sendStatus(err), errorResponse{
			Error: err.Error(),
			View:  s.orchestrator.View(),
		})
	}

	return c.JSON(http.StatusOK, sendResponse{
		Signature: sig.String(),
		View:      s.orchestrator.View(),
	})
}

func sendStatus(err error) int {
	switch {
	case errors.Is(err, transfer.ErrSubmissionPending):
		return http.StatusConflict
	case transfer.IsPrecondition(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleEstimateFee(c echo.Context) error {
	fee, err := s.orchestrator.EstimateFee(c.Request().Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, transfer.ErrWalletNotConnected) {
			code = http.StatusBadRequest
		}
		return c.JSON(code, errorResponse{
			Error: err.Error(),
			View:  s.orchestrator.View(),
		})
	}
	return c.JSON(http.StatusOK, feeResponse{
		Lamports: fee,
		View:     s.orchestrator.View(),
	})
}

func (s *Server) handleRefresh(c echo.Context) error {
	s.orchestrator.RefreshDisplayData(c.Request().Context())
	return c.JSON(http.StatusOK, s.orchestrator.View())
}

func (s *Server) handleConnect(c echo.Context) error {
	s.wallet.Connect()
	s.orchestrator.OnContextChanged(c.Request().Context(), s.wallet, nil)
	return c.JSON(http.StatusOK, s.orchestrator.View())
}

func (s *Server) handleDisconnect(c echo.Context) error {
	s.wallet.Disconnect()
	s.orchestrator.OnContextChanged(c.Request().Context(), s.wallet, nil)
	return c.JSON(http.StatusOK, s.orchestrator.View())
}
