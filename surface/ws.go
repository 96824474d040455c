package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luc527/checkers_autoplay/core"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// WS is a surface rendered by a remote table and mirrored over a websocket.
// The table pushes its whole state after every change; reads are served
// from the last state received.
type WS struct {
	*latest
	conn     *websocket.Conn
	outgoing chan []byte
	ended    chan struct{}
	logger   *log.Logger
}

var _ Surface = &WS{}

// Dial connects to a table and returns once its first state has arrived.
func Dial(ctx context.Context, url string, logger *log.Logger) (*WS, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("surface: dial %v: %w", url, err)
	}
	ws := &WS{
		latest:   newLatest(),
		conn:     conn,
		outgoing: make(chan []byte),
		ended:    make(chan struct{}),
		logger:   logger,
	}
	_, first, _ := ws.get()

	go ws.reader()
	go ws.writer()

	select {
	case <-first:
	case <-ctx.Done():
		ws.Close()
		return nil, ctx.Err()
	}
	if _, _, err := ws.get(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WS) reader() {
	defer func() {
		ws.conn.Close()
		ws.fail(ErrClosed)
		close(ws.ended)
	}()

	ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.Printf("surface: read: %v", err)
			}
			return
		}
		var envelope Envelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			ws.logger.Printf("surface: invalid message: %v", err)
			continue
		}
		switch envelope.Type {
		case TypeState:
			var data StateData
			if err := json.Unmarshal(envelope.Raw, &data); err != nil {
				ws.logger.Printf("surface: invalid state: %v", err)
				continue
			}
			ws.set(data.View())
		case TypeError:
			var data ErrorData
			if err := json.Unmarshal(envelope.Raw, &data); err == nil {
				ws.logger.Printf("surface: table error: %v", data.Message)
			}
		default:
			ws.logger.Printf("surface: unknown message type %q", envelope.Type)
		}
	}
}

func (ws *WS) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ws.conn.Close()
		ticker.Stop()
	}()

	for {
		select {
		case <-ws.ended:
			return
		case msg := <-ws.outgoing:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				ws.logger.Printf("surface: write: %v", err)
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ws *WS) send(ctx context.Context, typ string, data any) error {
	bs, err := Encode(typ, data)
	if err != nil {
		return err
	}
	select {
	case ws.outgoing <- bs:
		return nil
	case <-ws.ended:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends a close frame and waits for the connection to wind down.
func (ws *WS) Close() error {
	deadline := time.Now().Add(writeWait)
	err := ws.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	select {
	case <-ws.ended:
	case <-time.After(time.Second):
		ws.conn.Close()
		<-ws.ended
	}
	return err
}

func (ws *WS) ReadCells(ctx context.Context) ([]core.RawCell, error) {
	return ws.readCells()
}

func (ws *WS) ReadStatus(ctx context.Context) (string, bool, error) {
	return ws.readStatus()
}

func (ws *WS) ActivateCell(ctx context.Context, c core.Coord) error {
	return ws.send(ctx, TypeClick, NameData{core.CellName(c)})
}

func (ws *WS) ActivateControl(ctx context.Context, name string) error {
	return ws.send(ctx, TypeControl, NameData{name})
}

func (ws *WS) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return ws.waitUntil(ctx, cond, timeout)
}
