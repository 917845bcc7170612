package client

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketCallback handles incoming websocket frames.
type WebSocketCallback interface {
	OnMessage(message string)
}

type WebSocketConnection struct {
	WebSocketURL   string
	Conn           *websocket.Conn
	ConnectionDone chan bool
	IsConnected    bool
	MaxRetry       int
	RetryCount     int
	Callback       WebSocketCallback

	// Exponential backoff configuration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Dialer    websocket.Dialer

	mu     sync.Mutex
	closed bool
}

// ConnectWithManager dials the websocket, retrying with exponential
// backoff up to MaxRetry attempts. timeoutSeconds bounds the wait for
// the first successful connection; pass a negative value to wait
// indefinitely.
func (w *WebSocketConnection) ConnectWithManager(timeoutSeconds int) error {
	if w.BaseDelay == 0 {
		w.BaseDelay = time.Second
	}
	if w.MaxDelay == 0 {
		w.MaxDelay = time.Minute
	}
	if w.ConnectionDone == nil {
		w.ConnectionDone = make(chan bool, 1)
	}

	connected := make(chan bool, 1)
	attemptConnect := make(chan bool, 1)
	attemptConnect <- true

	go func() {
		retries := 0
		for {
			select {
			case <-attemptConnect:
				err := w.connect()
				if err != nil {
					slog.Error("websocket connection attempt failed", "error", err)
					w.IsConnected = false

					retries++
					if retries > w.MaxRetry {
						slog.Error(fmt.Sprintf("maximum number of retries reached (%d)", w.MaxRetry))
						close(connected)
						return
					}

					time.AfterFunc(w.reconnectDelay(), func() {
						attemptConnect <- true
					})
				} else {
					w.IsConnected = true
					close(connected)
					w.readLoop()
					return
				}
			case <-w.ConnectionDone:
				return
			}
		}
	}()

	if timeoutSeconds > 0 {
		timeout := time.Duration(timeoutSeconds) * time.Second
		select {
		case <-connected:
			if !w.IsConnected {
				return fmt.Errorf("websocket connection failed after %d retries", w.MaxRetry)
			}
			return nil
		case <-time.After(timeout):
			return fmt.Errorf("connection timeout after %v", timeout)
		}
	}

	<-connected
	if !w.IsConnected {
		return fmt.Errorf("websocket connection failed after %d retries", w.MaxRetry)
	}
	return nil
}

func (w *WebSocketConnection) connect() error {
	conn, _, err := w.Dialer.Dial(w.WebSocketURL, nil)
	if err != nil {
		return err
	}
	w.Conn = conn
	return nil
}

func (w *WebSocketConnection) Ping() error {
	return w.Conn.WriteMessage(websocket.PingMessage, nil)
}

// Close tears down the connection and stops the manager goroutine.
func (w *WebSocketConnection) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if w.Conn != nil {
		w.Conn.Close()
	}
	if w.ConnectionDone != nil {
		close(w.ConnectionDone)
	}
}

func (w *WebSocketConnection) readLoop() {
	defer func() {
		w.IsConnected = false
		w.Conn.Close()
	}()
	for {
		_, message, err := w.Conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			closed := w.closed
			w.mu.Unlock()
			if !closed {
				slog.Warn(fmt.Sprintf("websocket read error: %v", err))
			}
			return
		}
		if w.Callback != nil {
			w.Callback.OnMessage(string(message))
		}
	}
}

// reconnectDelay returns BaseDelay * 2^RetryCount capped at MaxDelay.
func (w *WebSocketConnection) reconnectDelay() time.Duration {
	delay := w.BaseDelay * time.Duration(math.Pow(2, float64(w.RetryCount)))
	if delay > w.MaxDelay {
		delay = w.MaxDelay
	}
	w.RetryCount++
	return delay
}

func (w *WebSocketConnection) LockRead() {
	w.mu.Lock()
}

func (w *WebSocketConnection) UnlockRead() {
	w.mu.Unlock()
}
