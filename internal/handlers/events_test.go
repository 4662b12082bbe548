package handlers

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vudy/otc-desk/internal/events"
	"github.com/vudy/otc-desk/internal/models"
)

func TestEventsHandler_StreamKey(t *testing.T) {
	bus := events.NewBus()
	handler := NewEventsHandler(bus, "secret")

	t.Run("wrong key rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events?streamKey=wrong", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, 0, bus.Len())
	})

	t.Run("missing key rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestEventsHandler_Stream(t *testing.T) {
	bus := events.NewBus()
	srv := httptest.NewServer(NewEventsHandler(bus, ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the subscription to register before publishing
	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 10*time.Millisecond)

	transactionID := uuid.New()
	bus.Publish(models.TradeEvent{
		Event:         models.EventTransactionAccepted,
		TransactionID: transactionID,
		Code:          "OTC-1756500000000-AB12",
		Status:        models.StatusEscrow,
		EmittedAt:     time.Now().Unix(),
	})

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = line
		case strings.HasPrefix(line, "data: "):
			dataLine = line
		}
	}

	assert.Equal(t, "event: "+models.EventTransactionAccepted, eventLine)
	assert.Contains(t, dataLine, transactionID.String())
	assert.Contains(t, dataLine, models.StatusEscrow)
}

func TestEventsHandler_DisconnectDeregisters(t *testing.T) {
	bus := events.NewBus()
	srv := httptest.NewServer(NewEventsHandler(bus, ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 10*time.Millisecond)

	resp.Body.Close()

	assert.Eventually(t, func() bool { return bus.Len() == 0 }, 2*time.Second, 10*time.Millisecond,
		"closing the client connection must remove the subscription")
}
