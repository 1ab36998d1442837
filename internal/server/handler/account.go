package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// AccountHandler proxies user-scoped exchange queries. The address comes
// from the ?address= query parameter, falling back to the configured default.
type AccountHandler struct {
	client         domain.AccountClient
	defaultAddress string
	dexs           []string
	coins          []string
	logger         *slog.Logger
}

// NewAccountHandler creates an AccountHandler. defaultAddress may be empty,
// in which case every request must carry ?address=.
func NewAccountHandler(client domain.AccountClient, defaultAddress string, dexs, coins []string, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		client:         client,
		defaultAddress: defaultAddress,
		dexs:           dexs,
		coins:          coins,
		logger:         logger,
	}
}

// resolveAddress picks the request address and validates it as a hex address.
func (h *AccountHandler) resolveAddress(r *http.Request) (string, bool) {
	addr := strings.TrimSpace(r.URL.Query().Get("address"))
	if addr == "" {
		addr = h.defaultAddress
	}
	if addr == "" || !common.IsHexAddress(addr) {
		return "", false
	}
	return addr, true
}

// GetBalance returns per-dex clearinghouse state plus the summed account value.
// GET /api/account/balance?address=0x...
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.resolveAddress(r)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidAddress.Error())
		return
	}

	bal, err := h.client.Balance(r.Context(), addr, h.dexs)
	if err != nil {
		logHandler(h.logger, "account_balance").ErrorContext(r.Context(), "balance fetch failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch balance")
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

// GetPositions returns the raw sub-account state for an address.
// GET /api/account/positions?address=0x...
func (h *AccountHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.resolveAddress(r)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidAddress.Error())
		return
	}

	positions, err := h.client.Positions(r.Context(), addr)
	if err != nil {
		logHandler(h.logger, "account_positions").ErrorContext(r.Context(), "positions fetch failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch positions")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(positions)
}

// GetOrders returns historical orders, filtered to the configured coins.
// GET /api/account/orders?address=0x...
func (h *AccountHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.resolveAddress(r)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidAddress.Error())
		return
	}

	orders, err := h.client.HistoricalOrders(r.Context(), addr, h.coins)
	if err != nil {
		logHandler(h.logger, "account_orders").ErrorContext(r.Context(), "orders fetch failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}
