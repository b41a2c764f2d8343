package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/datachat/internal/transport/ws/protocol"
)

// Client represents a WebSocket client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	done      chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SendHello sends a hello message and waits for hello_ack.
func (c *Client) SendHello(sessionID, datasetSource string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		DatasetSource: datasetSource,
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}

	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}

	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendQuery sends a question about the session's dataset.
func (c *Client) SendQuery(query string) error {
	msg := protocol.QueryMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeQuery,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		Query: query,
	}

	return c.conn.WriteJSON(msg)
}

// ReadMessages reads and prints messages from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}
			fmt.Printf("\n%s\n> ", formatMessage(data))
		}
	}
}

// formatMessage renders a server message for the terminal. TEXT answers are
// printed as plain text, structured answers as indented JSON.
func formatMessage(data []byte) string {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Sprintf("[unparsed] %s", string(data))
	}

	switch base.Type {
	case protocol.TypeResponse:
		var msg protocol.ResponseMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Sprintf("[response] %s", string(data))
		}
		if msg.ResponseType == "TEXT" {
			var text string
			if err := json.Unmarshal(msg.Response, &text); err == nil {
				return fmt.Sprintf("[TEXT run=%s]\n%s", msg.RunID, text)
			}
		}
		var payload interface{}
		if err := json.Unmarshal(msg.Response, &payload); err != nil {
			return fmt.Sprintf("[%s run=%s] %s", msg.ResponseType, msg.RunID, string(msg.Response))
		}
		formatted, _ := json.MarshalIndent(payload, "", "  ")
		return fmt.Sprintf("[%s run=%s]\n%s", msg.ResponseType, msg.RunID, string(formatted))

	case protocol.TypeError:
		var msg protocol.ErrorMessage
		json.Unmarshal(data, &msg)
		return fmt.Sprintf("[error %s] %s", msg.Code, msg.Message)
	}

	var pretty map[string]interface{}
	json.Unmarshal(data, &pretty)
	formatted, _ := json.MarshalIndent(pretty, "", "  ")
	return fmt.Sprintf("[%s] Received:\n%s", base.Type, string(formatted))
}
