package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/form"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsVerdicts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/api/Live", hub.ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/Live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome Message
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome.Type)
	assert.Equal(t, 1, hub.ClientCount())

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, hub.Publish(ctx, stream.Event{
		Session: "s1",
		Frame:   42,
		Score:   0.81,
		Verdict: form.Good,
		Message: form.Good.Message(),
		At:      at,
	}))

	var got struct {
		Type string `json:"type"`
		Data struct {
			Session string  `json:"session"`
			Frame   int     `json:"frame"`
			Score   float64 `json:"score"`
			Verdict string  `json:"verdict"`
			Message string  `json:"message"`
		} `json:"data"`
	}
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "verdict", got.Type)
	assert.Equal(t, "s1", got.Data.Session)
	assert.Equal(t, 42, got.Data.Frame)
	assert.Equal(t, "good", got.Data.Verdict)
	assert.Equal(t, "Good form!", got.Data.Message)
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 1000; i++ {
		require.NoError(t, hub.Publish(context.Background(), stream.Event{Verdict: form.Fair}))
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubStoppedClosesConnections(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	router := gin.New()
	router.GET("/api/Live", hub.ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/Live"

	before, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer before.Close()
	before.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome Message
	require.NoError(t, before.ReadJSON(&welcome))

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}

	//the connected client is closed and its read pump unblocks without a running hub
	_, _, err = before.ReadMessage()
	assert.Error(t, err)

	//a client arriving later is closed instead of hanging the handler
	after, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer after.Close()
	after.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = after.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
	assert.Equal(t, 0, hub.ClientCount())
}
