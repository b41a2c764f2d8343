package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/transport/ws/protocol"
)

// QueryService is the part of the application service the channel needs.
type QueryService interface {
	CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.CreateSessionResponse, error)
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	service  QueryService
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *Hub, svc QueryService) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes mounts the upgrade endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: WebSocket error: %v", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WARN: failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeQuery:
		s.handleQuery(conn, data)
	default:
		s.sendError(conn, baseMsg.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to a session.
func (s *Server) handleHello(conn *Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	sessionID := strings.TrimSpace(msg.SessionID)
	source := strings.TrimSpace(msg.DatasetSource)
	if source != "" {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		resp, err := s.service.CreateSession(ctx, domain.CreateSessionRequest{DatasetSource: source, SessionID: sessionID})
		cancel()
		if err != nil {
			s.sendError(conn, msg.RequestID, string(domain.KindOf(err)), err.Error())
			return
		}
		sessionID = resp.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s.hub.BindSession(conn, sessionID, source)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	if err := s.hub.SendJSONToConnection(conn, ack); err != nil {
		log.Printf("WARN: failed to send hello_ack: %v", err)
	}

	log.Printf("Hello handshake completed for session: %s", sessionID)
}

// handleQuery runs a query for the bound session and fans the answer out to
// every connection of that session.
func (s *Server) handleQuery(conn *Connection, data []byte) {
	var msg protocol.QueryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid query message")
		return
	}

	sessionID, source := s.hub.Binding(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}
	if strings.TrimSpace(msg.Query) == "" {
		s.sendError(conn, msg.RequestID, string(domain.KindInvalidRequest), "query is required")
		return
	}

	// Run async so the read loop keeps serving pings and other messages.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.QueryTimeout)
		defer cancel()

		resp, err := s.service.Query(ctx, domain.QueryRequest{
			Query:         msg.Query,
			SessionID:     sessionID,
			DatasetSource: source,
		})
		if err != nil {
			log.Printf("WARN: query failed for session %s: %v", sessionID, err)
			s.sendErrorToSession(sessionID, msg.RequestID, string(domain.KindOf(err)), err.Error())
			return
		}

		out := protocol.ResponseMessage{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeResponse,
				Ts:        time.Now().UnixMilli(),
				RequestID: msg.RequestID,
				SessionID: resp.SessionID,
				RunID:     resp.RunID,
			},
			ResponseType: string(resp.Type),
			Response:     resp.Response,
		}
		if err := s.hub.BroadcastJSON(sessionID, out); err != nil {
			log.Printf("ERROR: failed to broadcast response: %v", err)
		}
	}()
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	sessionID, _ := s.hub.Binding(conn)
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: sessionID,
		},
		Code:    code,
		Message: message,
	}
	if err := s.hub.SendJSONToConnection(conn, errMsg); err != nil {
		log.Printf("WARN: failed to send error: %v", err)
	}
}

// sendErrorToSession sends an error message to all connections of a session.
func (s *Server) sendErrorToSession(sessionID, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: sessionID,
		},
		Code:    code,
		Message: message,
	}
	if err := s.hub.BroadcastJSON(sessionID, errMsg); err != nil {
		log.Printf("ERROR: failed to broadcast error: %v", err)
	}
}
