// Package web exposes the cost-basis and P&L engine over HTTP.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

type costBasisProvider interface {
	GetCostBasis(ctx context.Context, userID string, asset domain.Asset) (domain.CostBasis, error)
}

type pnlProvider interface {
	GetPnL(ctx context.Context, userID, walletAddress string, asset domain.Asset) (domain.PnL, error)
}

// Server exposes HTTP endpoints serving cost-basis and P&L JSON.
type Server struct {
	Addr      string
	CostBasis costBasisProvider
	PnL       pnlProvider
	logger    *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, costBasis costBasisProvider, pnl pnlProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, CostBasis: costBasis, PnL: pnl, logger: logger}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/costbasis", s.handleCostBasis)
	mux.HandleFunc("/pnl", s.handlePnL)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME, plus an HTTP server on port 80 for HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme http server", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// costBasisResponse is the wire shape of a cost-basis result with
// display-formatted fiat values alongside the raw decimals.
type costBasisResponse struct {
	domain.CostBasis
	CostBasisDisplay string `json:"cost_basis_display,omitempty"`
	AvgPriceDisplay  string `json:"avg_price_display,omitempty"`
}

type pnlResponse struct {
	domain.PnL
	TotalReturnDisplay string `json:"total_return_display,omitempty"`
}

func (s *Server) handleCostBasis(w http.ResponseWriter, r *http.Request) {
	if s.CostBasis == nil {
		http.Error(w, "cost basis service not available", http.StatusServiceUnavailable)
		return
	}

	userID, asset, _, ok := queryParams(w, r, false)
	if !ok {
		return
	}

	basis, err := s.CostBasis.GetCostBasis(r.Context(), userID, asset)
	if err != nil {
		s.logger.Error("cost basis request failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, costBasisResponse{
		CostBasis:        basis,
		CostBasisDisplay: displayCents(basis.CostBasisCents),
		AvgPriceDisplay:  displayCents(basis.AvgPurchasePriceCents),
	})
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	if s.PnL == nil {
		http.Error(w, "pnl service not available", http.StatusServiceUnavailable)
		return
	}

	userID, asset, wallet, ok := queryParams(w, r, true)
	if !ok {
		return
	}

	result, err := s.PnL.GetPnL(r.Context(), userID, wallet, asset)
	if err != nil {
		s.logger.Error("pnl request failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, pnlResponse{
		PnL:                result,
		TotalReturnDisplay: displayCents(result.TotalReturnCents),
	})
}

// queryParams extracts user, asset and (optionally) wallet from the query.
func queryParams(w http.ResponseWriter, r *http.Request, needWallet bool) (userID string, asset domain.Asset, wallet string, ok bool) {
	q := r.URL.Query()
	userID = q.Get("user")
	asset = domain.Asset{
		ChainProvider:   q.Get("chain"),
		ContractAddress: q.Get("contract"),
	}
	wallet = q.Get("wallet")

	if userID == "" || asset.ChainProvider == "" {
		http.Error(w, "user and chain query parameters are required", http.StatusBadRequest)
		return "", domain.Asset{}, "", false
	}
	if needWallet && wallet == "" {
		http.Error(w, "wallet query parameter is required", http.StatusBadRequest)
		return "", domain.Asset{}, "", false
	}
	return userID, asset, wallet, true
}

// displayCents renders a cent value like "$12.34". Absent values render as
// an empty string, never as zero: the consumer treats them as unknown.
func displayCents(cents *decimal.Decimal) string {
	if cents == nil {
		return ""
	}
	return money.New(cents.Round(0).IntPart(), money.USD).Display()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
