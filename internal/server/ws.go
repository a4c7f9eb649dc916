package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/datachat-ai/datachat/internal/agent"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type      string `json:"type"`       // "ask"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type      string          `json:"type"` // "response" or "error"
	SessionID string          `json:"session_id"`
	Content   string          `json:"content"`
	Metadata  *agent.Metadata `json:"metadata,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendWSError(conn, req.SessionID, "content is required")
			continue
		}
		if req.Type != "ask" {
			s.sendWSError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}

		resp, err := s.orch.Answer(r.Context(), req.Content, req.SessionID)
		if err != nil {
			s.sendWSError(conn, req.SessionID, "processing failed: "+err.Error())
			continue
		}

		s.sendWS(conn, wsResponse{
			Type:      "response",
			SessionID: resp.Metadata.SessionID,
			Content:   resp.Content,
			Metadata:  &resp.Metadata,
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, msg string) {
	s.sendWS(conn, wsResponse{Type: "error", SessionID: sessionID, Content: msg})
}
