// Package http exposes the wagering API over gin and upgrades WebSocket
// clients onto the ws manager. User identity arrives in the X-User-ID
// header, injected by the edge auth layer in front of this service.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	betdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	crashusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/usecase"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/gateway/ws"
	minesusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/mines/usecase"
	plinkodomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/plinko/domain"
	plinkousecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/plinko/usecase"
	walletdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
	wheeldomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/domain"
	wheelusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/service"
)

// Handler wires the HTTP surface to the game use cases.
type Handler struct {
	crash   *crashusecase.CrashUseCase
	wheel   *wheelusecase.WheelUseCase
	mines   *minesusecase.MinesUseCase
	plinko  *plinkousecase.PlinkoUseCase
	bets    *betusecase.BetUseCase
	ledger  service.LedgerService
	manager *ws.Manager
}

// NewHandler creates a new HTTP handler
func NewHandler(crash *crashusecase.CrashUseCase, wheel *wheelusecase.WheelUseCase, mines *minesusecase.MinesUseCase, plinko *plinkousecase.PlinkoUseCase, bets *betusecase.BetUseCase, ledger service.LedgerService, manager *ws.Manager) *Handler {
	return &Handler{
		crash:   crash,
		wheel:   wheel,
		mines:   mines,
		plinko:  plinko,
		bets:    bets,
		ledger:  ledger,
		manager: manager,
	}
}

// RegisterRoutes mounts the API on the router
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/:game/bets", h.PlaceBet)
		api.POST("/:game/cashout", h.CashOut)
		api.POST("/mines/reveal", h.RevealCell)
		api.GET("/:game/round", h.Round)
		api.GET("/verify", h.VerifyOutcome)
		api.GET("/wallet", h.Wallet)
		api.GET("/bets", h.BetHistory)
	}
	r.GET("/ws", h.HandleWebSocket)
}

// money accepts amounts with at most two decimal places.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			amount := decimal.NewFromFloat(fl.Field().Float())
			return amount.Equal(amount.Round(2))
		})
	}
}

type placeBetRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0,money"`
	AutoCashout float64 `json:"auto_cashout" binding:"omitempty,gt=1"`
	Color       string  `json:"color" binding:"omitempty,oneof=black red green gold"`
	MineCount   int     `json:"mine_count" binding:"omitempty,min=1,max=24"`
	Risk        string  `json:"risk" binding:"omitempty,oneof=low medium high"`
	Rows        int     `json:"rows" binding:"omitempty,oneof=8 12 16"`
	ClientSeed  string  `json:"client_seed" binding:"omitempty,max=64"`
}

// PlaceBet opens a wager on the named game
func (h *Handler) PlaceBet(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount := decimal.NewFromFloat(req.Amount).Round(2)

	switch gamedomain.GameType(c.Param("game")) {
	case gamedomain.GameCrash:
		bet, err := h.crash.PlaceBet(c.Request.Context(), userID, amount, req.AutoCashout)
		h.respondBet(c, bet, err)

	case gamedomain.GameWheel:
		if req.Color == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "color is required"})
			return
		}
		bet, err := h.wheel.PlaceBet(c.Request.Context(), userID, amount, wheeldomain.Color(req.Color))
		h.respondBet(c, bet, err)

	case gamedomain.GameMines:
		if req.MineCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mine_count is required"})
			return
		}
		bet, err := h.mines.Start(c.Request.Context(), userID, amount, req.MineCount, req.ClientSeed)
		h.respondBet(c, bet, err)

	case gamedomain.GamePlinko:
		if req.Risk == "" || req.Rows == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "risk and rows are required"})
			return
		}
		result, err := h.plinko.Drop(c.Request.Context(), userID, amount, plinkodomain.Risk(req.Risk), req.Rows, req.ClientSeed)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
	}
}

type cashOutRequest struct {
	BetID int64 `json:"bet_id"`
}

// CashOut settles the caller's running wager
func (h *Handler) CashOut(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req cashOutRequest
	// The body is optional for crash, whose round implies the bet.
	_ = c.ShouldBindJSON(&req)

	switch gamedomain.GameType(c.Param("game")) {
	case gamedomain.GameCrash:
		bet, err := h.crash.CashOut(c.Request.Context(), userID)
		h.respondBet(c, bet, err)

	case gamedomain.GameMines:
		if req.BetID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bet_id is required"})
			return
		}
		result, err := h.mines.CashOut(c.Request.Context(), req.BetID, userID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "game has no cash-out"})
	}
}

type revealRequest struct {
	BetID int64 `json:"bet_id" binding:"required"`
	Cell  *int  `json:"cell" binding:"required"`
}

// RevealCell opens one mines cell
func (h *Handler) RevealCell(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.mines.Reveal(c.Request.Context(), req.BetID, userID, *req.Cell)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Round returns the public view of the named game's current round
func (h *Handler) Round(c *gin.Context) {
	switch gamedomain.GameType(c.Param("game")) {
	case gamedomain.GameCrash:
		view, recent := h.crash.Round(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"round": view, "history": recent})

	case gamedomain.GameWheel:
		view, pattern, recent := h.wheel.Round(c.Request.Context())
		stats, err := h.wheel.Stats(c.Request.Context())
		if err != nil {
			stats = map[string]int64{}
		}
		c.JSON(http.StatusOK, gin.H{"round": view, "pattern": pattern, "history": recent, "stats": stats})

	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "game has no shared round"})
	}
}

// VerifyOutcome re-derives an outcome from revealed seeds
func (h *Handler) VerifyOutcome(c *gin.Context) {
	nonce, _ := strconv.ParseInt(c.Query("nonce"), 10, 64)
	wheelSize, _ := strconv.Atoi(c.DefaultQuery("wheel_size", "15"))
	mineCount, _ := strconv.Atoi(c.Query("mine_count"))
	rows, _ := strconv.Atoi(c.Query("rows"))

	out, err := fairness.Verify(fairness.VerifyParams{
		Game:       c.Query("game"),
		ServerSeed: c.Query("server_seed"),
		ClientSeed: c.Query("client_seed"),
		Nonce:      nonce,
		WheelSize:  wheelSize,
		MineCount:  mineCount,
		Rows:       rows,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Wallet returns the caller's balances
func (h *Handler) Wallet(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	w, err := h.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// BetHistory returns the caller's recent bets
func (h *Handler) BetHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	bets, err := h.bets.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(bets))
	for _, b := range bets {
		out = append(out, betJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"bets": out})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and attaches it to the manager
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := h.manager.Register(conn, userID)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) userID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user identity"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) respondBet(c *gin.Context, bet *betdomain.Bet, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, betJSON(bet))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gamedomain.ErrInvalidAmount), errors.Is(err, gamedomain.ErrInvalidCell):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, walletdomain.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, gamedomain.ErrBetNotFound), errors.Is(err, walletdomain.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gamedomain.ErrNotAcceptingWagers),
		errors.Is(err, gamedomain.ErrDuplicateWager),
		errors.Is(err, gamedomain.ErrBetAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context()).Err(err).Msg("Unhandled API error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// betJSON shapes a bet for clients: the server seed appears only once the
// bet is terminal, the commitment always.
func betJSON(b *betdomain.Bet) gin.H {
	return gin.H{
		"id":               b.ID,
		"game_type":        b.GameType,
		"round_id":         b.RoundID,
		"bet_amount":       b.BetAmount,
		"status":           b.Status,
		"server_seed_hash": b.ServerSeedHash,
		"server_seed":      b.RevealedSeed(),
		"client_seed":      b.ClientSeed,
		"nonce":            b.Nonce,
		"win_amount":       b.WinAmount,
		"multiplier":       b.Multiplier,
		"profit":           b.Profit,
		"created_at":       b.CreatedAt,
		"settled_at":       b.SettledAt,
	}
}
