package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/solsend/internal/transfer"
)

type Config struct {
	Host           string   `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int      `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"SERVER_ALLOWED_ORIGINS"`
}

// Orchestrator is the transfer surface rendered by the server.
type Orchestrator interface {
	View() transfer.View
	SetAmount(amount string)
	MaxAmount() (string, bool)
	SubmitTransfer(ctx context.Context) (solana.Signature, error)
	EstimateFee(ctx context.Context) (uint64, error)
	RefreshDisplayData(ctx context.Context)
	OnContextChanged(ctx context.Context, wallet transfer.Wallet, ledger transfer.Ledger)
	Subscribe() (<-chan transfer.View, func())
}

// Connector is a wallet the user can connect and disconnect.
type Connector interface {
	transfer.Wallet
	Connect()
	Disconnect()
}

type Server struct {
	cfg          Config
	orchestrator Orchestrator
	wallet       Connector
	logger       *logrus.Logger
	upgrader     websocket.Upgrader
	echo         *echo.Echo
}

func NewServer(
	cfg Config,
	orchestrator Orchestrator,
	wallet Connector,
	middlewares []echo.MiddlewareFunc,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		wallet:       wallet,
		logger:       logger,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middlewares...)

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/state", s.handleState)
	api.PUT("/amount", s.handleSetAmount)
	api.POST("/amount/max", s.handleMaxAmount)
	api.POST("/send", s.handleSend)
	api.POST("/fee", s.handleEstimateFee)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/wallet/connect", s.handleConnect)
	api.POST("/wallet/disconnect", s.handleDisconnect)
	api.GET("/ws", s.handleWebSocket)

	s.echo = e
	return s
}

func DefaultMiddlewares() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.BodyLimit("16K"),
		middleware.CORS(),
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("starting server on %s", addr)
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.echo.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
