package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneutral-org/redislock/internal/audit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupPayloadLimitRouter wires a real Handler behind the payload-limit
// guard, the same order cmd/server/main.go uses, so these tests exercise
// the guard against actual acquire/extend bodies rather than a stand-in route.
func setupPayloadLimitRouter(t *testing.T, maxBytes int64) *gin.Engine {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	h := New(client, logger, nil, audit.NewMemoryStore(), 1000*time.Millisecond)

	router := gin.New()
	locks := router.Group("/locks")
	locks.Use(PayloadLimitErrorHandler(logger))
	locks.Use(PayloadLimit(maxBytes, logger))
	h.RegisterRoutes(locks)

	return router
}

func TestPayloadLimit_AcquireUnderLimit(t *testing.T) {
	router := setupPayloadLimitRouter(t, 1024)

	body, err := json.Marshal(acquireRequest{Expire: 10})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/acquire", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPayloadLimit_AcquireOverLimit_ContentLength(t *testing.T) {
	router := setupPayloadLimitRouter(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/acquire", strings.NewReader(`{"handleId":"`+strings.Repeat("x", 200)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(`{"handleId":"`) + 200 + 2)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp PayloadLimitErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "payloadTooLarge", resp.Error)
	assert.Equal(t, int64(64), resp.MaxBytes)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestPayloadLimit_ExtendOverLimit_StreamedBody(t *testing.T) {
	router := setupPayloadLimitRouter(t, 64)

	body := []byte(`{"handleId":"` + strings.Repeat("x", 200) + `","expireSeconds":10}`)
	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/extend", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1 // unknown length, as chunked transfer would report

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
}

func TestPayloadLimit_EmptyAcquireBodyPasses(t *testing.T) {
	router := setupPayloadLimitRouter(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/acquire", nil)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Every field of acquireRequest has a usable zero value, so an empty
	// body still reaches the handler rather than being rejected here.
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPayloadLimit_ZeroContentLengthPasses(t *testing.T) {
	router := setupPayloadLimitRouter(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/acquire", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = 0

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPayloadLimit_AdminDefaultAllowsRealisticAcquireBody(t *testing.T) {
	router := setupPayloadLimitRouter(t, 100*1024) // matches config.AdminMaxPayloadSize's default order of magnitude

	body, err := json.Marshal(acquireRequest{
		HandleID: "op-initiated-" + strings.Repeat("a", 64),
		Expire:   30,
		Blocking: true,
		Timeout:  5,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/locks/deploy-pipeline/acquire", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPayloadLimit_AdminDefaultRejectsOversizedAcquireBody(t *testing.T) {
	router := setupPayloadLimitRouter(t, 100*1024)

	body, err := json.Marshal(acquireRequest{HandleID: strings.Repeat("x", 200*1024)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/locks/deploy-pipeline/acquire", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPayloadLimit_ResponseFormat(t *testing.T) {
	router := setupPayloadLimitRouter(t, 16)

	body := []byte(`{"handleId":"` + strings.Repeat("x", 200) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/locks/foobar/acquire", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp PayloadLimitErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
