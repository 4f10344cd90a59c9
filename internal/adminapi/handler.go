// Package adminapi exposes the lock primitive over HTTP: a thin, explicitly
// optional surface for operators and services that would rather speak REST
// than import internal/lock directly.
package adminapi

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/redislock/internal/audit"
	"github.com/kneutral-org/redislock/internal/lock"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves the lock admin HTTP API. A single Handler is shared
// across requests; it tracks outstanding handles by an opaque id so a
// caller's acquire/release/extend calls can reuse the same Lock instance
// (and, with it, the same identifier and any running renewal worker).
type Handler struct {
	client       *redis.Client
	logger       zerolog.Logger
	sink         lock.EventSink
	auditStore   audit.Store
	signalExpire time.Duration

	mu      sync.Mutex
	handles map[string]*lock.Lock
}

// New creates a new admin API handler.
func New(client *redis.Client, logger zerolog.Logger, sink lock.EventSink, auditStore audit.Store, signalExpire time.Duration) *Handler {
	return &Handler{
		client:       client,
		logger:       logger.With().Str("component", "adminapi").Logger(),
		sink:         sink,
		auditStore:   auditStore,
		signalExpire: signalExpire,
		handles:      make(map[string]*lock.Lock),
	}
}

// RegisterRoutes registers all admin API routes on the provided router group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/:name/acquire", h.Acquire)
	router.POST("/:name/release", h.Release)
	router.POST("/:name/extend", h.Extend)
	router.DELETE("/:name", h.Reset)
	router.POST("/reset-all", h.ResetAll)
	router.GET("/:name", h.Status)
	router.GET("/:name/history", h.History)
}

type acquireRequest struct {
	HandleID string `json:"handleId"`
	Expire   int    `json:"expireSeconds"`
	Blocking bool   `json:"blocking"`
	Timeout  int    `json:"timeoutSeconds"`
}

type acquireResponse struct {
	HandleID string `json:"handleId"`
	OwnerID  string `json:"ownerId"`
	Acquired bool   `json:"acquired"`
}

// Acquire handles POST /:name/acquire. If the request supplies a handleId
// that already corresponds to an outstanding handle, that handle is reused
// so a caller can hold, extend and release across separate HTTP requests.
func (h *Handler) Acquire(c *gin.Context) {
	name := c.Param("name")
	var req acquireRequest
	// A missing or empty body is fine here: every field has a usable
	// zero-value default, so bind errors are not reported to the caller.
	_ = c.ShouldBindJSON(&req)

	handleID := req.HandleID
	if handleID == "" {
		handleID = uuid.NewString()
	}

	l, err := h.handleFor(name, handleID, req.Expire)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok, err := l.Acquire(c.Request.Context(), req.Blocking, req.Timeout)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		h.forget(handleID)
	}

	c.JSON(http.StatusOK, acquireResponse{HandleID: handleID, OwnerID: l.ID(), Acquired: ok})
}

type handleRequest struct {
	HandleID string `json:"handleId" binding:"required"`
}

// Release handles POST /:name/release.
func (h *Handler) Release(c *gin.Context) {
	var req handleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "badRequest", Message: err.Error()})
		return
	}

	l, ok := h.lookup(req.HandleID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknownHandle", Message: "no such handle"})
		return
	}

	if err := l.Release(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	h.forget(req.HandleID)
	c.Status(http.StatusNoContent)
}

type extendRequest struct {
	HandleID string `json:"handleId" binding:"required"`
	Expire   int    `json:"expireSeconds"`
}

// Extend handles POST /:name/extend.
func (h *Handler) Extend(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "badRequest", Message: err.Error()})
		return
	}

	l, ok := h.lookup(req.HandleID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknownHandle", Message: "no such handle"})
		return
	}

	if err := l.Extend(c.Request.Context(), req.Expire); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset handles DELETE /:name. Unlike Release, it does not require the
// caller to hold a handle: it is the administrative crash-recovery path.
func (h *Handler) Reset(c *gin.Context) {
	name := c.Param("name")
	l, err := lock.New(h.client, name, lock.WithSignalExpire(h.signalExpire), lock.WithEventSink(h.sink))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := l.Reset(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resetAllResponse struct {
	Reset int64 `json:"reset"`
}

// ResetAll handles POST /reset-all.
func (h *Handler) ResetAll(c *gin.Context) {
	n, err := lock.ResetAll(c.Request.Context(), h.client, h.signalExpire)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resetAllResponse{Reset: n})
}

type statusResponse struct {
	Name    string `json:"name"`
	Locked  bool   `json:"locked"`
	OwnerID string `json:"ownerId,omitempty"`
}

// Status handles GET /:name.
func (h *Handler) Status(c *gin.Context) {
	name := c.Param("name")
	l, err := lock.New(h.client, name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	locked, err := l.Locked(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	owner := ""
	if locked {
		owner, err = l.GetOwnerID(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, statusResponse{Name: name, Locked: locked, OwnerID: owner})
}

// History handles GET /:name/history.
func (h *Handler) History(c *gin.Context) {
	if h.auditStore == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "auditDisabled", Message: "no audit store configured"})
		return
	}

	events, err := h.auditStore.ListByLock(c.Request.Context(), c.Param("name"), 0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) handleFor(name, handleID string, expireSeconds int) (*lock.Lock, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.handles[handleID]; ok {
		return l, nil
	}

	opts := []lock.Option{lock.WithID(handleID), lock.WithSignalExpire(h.signalExpire)}
	if h.sink != nil {
		opts = append(opts, lock.WithEventSink(h.sink))
	}
	if expireSeconds > 0 {
		opts = append(opts, lock.WithExpire(expireSeconds))
	}

	l, err := lock.New(h.client, name, opts...)
	if err != nil {
		return nil, err
	}
	h.handles[handleID] = l
	return l, nil
}

func (h *Handler) lookup(handleID string) (*lock.Lock, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.handles[handleID]
	return l, ok
}

func (h *Handler) forget(handleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handles, handleID)
}

// respondError maps lock sentinel errors onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internalError"

	switch {
	case errors.Is(err, lock.ErrAlreadyAcquired):
		status, code = http.StatusConflict, "alreadyAcquired"
	case errors.Is(err, lock.ErrNotAcquired):
		status, code = http.StatusConflict, "notAcquired"
	case errors.Is(err, lock.ErrNotExpirable):
		status, code = http.StatusUnprocessableEntity, "notExpirable"
	case errors.Is(err, lock.ErrInvalidTimeout), errors.Is(err, lock.ErrTimeoutNotUsable), errors.Is(err, lock.ErrTimeoutTooLarge):
		status, code = http.StatusBadRequest, "invalidTimeout"
	case errors.Is(err, lock.ErrExpireRequired):
		status, code = http.StatusBadRequest, "expireRequired"
	case errors.Is(err, lock.ErrNegativeExpire):
		status, code = http.StatusBadRequest, "negativeExpire"
	case errors.Is(err, lock.ErrAutoRenewalRequiresExpire):
		status, code = http.StatusBadRequest, "autoRenewalRequiresExpire"
	default:
		var protoErr *lock.ProtocolError
		if errors.As(err, &protoErr) {
			status, code = http.StatusBadGateway, "protocolError"
		}
	}

	h.logger.Warn().Err(err).Str("code", code).Msg("admin api request failed")
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
