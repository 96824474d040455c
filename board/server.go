package board

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/luc527/checkers_autoplay/surface"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the monitor to take a click.
	inputWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{}

type Server struct {
	monitor *Monitor
	logger  *log.Logger
}

func NewServer(m *Monitor) *Server {
	return &Server{m, m.opts.Logger}
}

// Routes registers the websocket endpoint and a plain JSON view of the table.
func (s *Server) Routes(r *mux.Router) {
	r.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	state, err := s.monitor.State(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Printf("board: failed to write state: %v", err)
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("board: failed to upgrade: %v", err)
		return
	}
	l, err := s.monitor.Subscribe()
	if err != nil {
		conn.Close()
		return
	}
	outgoing := make(chan []byte)
	ended := make(chan struct{})
	go s.connWriter(conn, l, outgoing, ended)
	s.connReader(conn, outgoing, ended)
	s.monitor.Unsubscribe(l)
}

func (s *Server) connReader(conn *websocket.Conn, outgoing chan<- []byte, ended chan<- struct{}) {
	defer func() {
		conn.Close()
		close(ended)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleMessage(msg); err != nil {
			bs, merr := surface.Encode(surface.TypeError, surface.ErrorData{Message: err.Error()})
			if merr != nil {
				s.logger.Printf("board: failed to marshal error: %v", merr)
				continue
			}
			outgoing <- bs
		}
	}
}

func (s *Server) handleMessage(msg []byte) error {
	var envelope surface.Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return err
	}
	var data surface.NameData
	if err := json.Unmarshal(envelope.Raw, &data); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), inputWait)
	defer cancel()
	switch envelope.Type {
	case surface.TypeClick:
		return s.monitor.Click(ctx, data.Name)
	case surface.TypeControl:
		return s.monitor.Control(ctx, data.Name)
	default:
		return ErrUnknownInput
	}
}

// connWriter forwards table states and error replies until the reader ends
// or the monitor drops the listener.
func (s *Server) connWriter(conn *websocket.Conn, l Listener, outgoing <-chan []byte, ended <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		conn.Close()
		ticker.Stop()
		// Drain so the reader never blocks on an error reply after we left.
		for {
			select {
			case <-outgoing:
			case <-ended:
				return
			}
		}
	}()

	for {
		select {
		case <-ended:
			return
		case state, ok := <-l:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			bs, err := surface.Encode(surface.TypeState, state)
			if err != nil {
				s.logger.Printf("board: failed to marshal state: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, bs); err != nil {
				return
			}
		case msg := <-outgoing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
