package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

const (
	streamBuffer       = 64
	streamPingInterval = 30 * time.Second
	streamPongWait     = 60 * time.Second
	streamWriteWait    = 10 * time.Second
)

// Stream message types.
const (
	MessageSnapshot = "snapshot"
	MessageNotice   = "notice"
	MessageError    = "error"
)

// StreamMessage is one frame pushed to a dashboard.
type StreamMessage struct {
	Type      string     `json:"type"`
	Key       string     `json:"key,omitempty"`
	Kind      cache.Kind `json:"kind,omitempty"`
	Data      any        `json:"data,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Stream upgrades to a websocket and pushes cache changes for the status
// snapshot, plus one service (?detail=<id>) and one listing (?list=1 with
// the listing's filters) when asked. Observed keys are refetched when
// invalidated, exactly like a mounted view.
func Stream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(d.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		detail := q.Get("detail")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("failed to upgrade to websocket",
				logger.String("remote_ip", r.RemoteAddr),
				logger.Error(err))
			return
		}
		defer func() { _ = conn.Close() }()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readLoop(conn, cancel, d.Logger)

		if detail != "" {
			if _, err := d.Services.Get(ctx, detail); err != nil {
				_ = writeMessage(conn, StreamMessage{Type: MessageError, Key: cache.ServiceDetail(detail), Error: domain.Message(err)})
				return
			}
		}

		notices := make(chan cache.Notice, streamBuffer)
		push := func(n cache.Notice) {
			select {
			case notices <- n:
			default:
				d.Logger.Debug("stream notice dropped", logger.String("key", n.Key))
			}
		}

		c := d.Queries.Cache()
		keys := []string{cache.StatusPolling()}
		unsubs := []func(){c.Subscribe(cache.StatusPolling(), push)}
		if detail != "" {
			keys = append(keys, cache.ServiceDetail(detail))
			unsubs = append(unsubs, d.Services.ObserveDetail(detail, push))
		}
		if q.Get("list") != "" {
			params := d.Services.Normalize(domain.ParseListParams(q))
			keys = append(keys, cache.ServiceList(params))
			unsubs = append(unsubs, d.Services.ObserveList(params, push))
		}
		defer func() {
			for _, unsubscribe := range unsubs {
				unsubscribe()
			}
		}()

		d.Logger.Info("stream opened",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Strings("keys", keys))

		for _, key := range keys {
			if e, ok := c.Read(key); ok {
				if err := writeMessage(conn, StreamMessage{Type: MessageSnapshot, Key: key, Data: e.Data}); err != nil {
					return
				}
			}
		}

		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				d.Logger.Debug("stream closed", logger.String("remote_ip", r.RemoteAddr))
				return
			case n := <-notices:
				msg := StreamMessage{Type: MessageNotice, Key: n.Key, Kind: n.Kind}
				if n.Kind != cache.Removed {
					if e, ok := c.Read(n.Key); ok {
						msg.Data = e.Data
					}
				}
				if err := writeMessage(conn, msg); err != nil {
					d.Logger.Debug("stream write failed", logger.Error(err))
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
// It cancels the stream once the peer is gone.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc, log logger.Logger) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("stream closed unexpectedly", logger.Error(err))
			}
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write stream message: %w", err)
	}
	return nil
}

// originChecker accepts listed origins, any origin when none are listed,
// and clients that send no Origin at all.
func originChecker(origins []string) func(r *http.Request) bool {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowAll || origin == "" || slices.Contains(origins, origin)
	}
}
