package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/finchat/internal/llm"
	"github.com/ent0n29/finchat/internal/pipeline"
	"github.com/ent0n29/finchat/internal/protocol"
	"github.com/ent0n29/finchat/internal/retrieval"
)

// handleChatWS serves a persistent chat connection. Queries are processed
// strictly one at a time per connection; each answer is written back whole
// once generation completes. No token streaming.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}

		query, ok := parsed.(protocol.ClientQuery)
		if !ok {
			continue
		}

		backend := llm.BackendGroq
		if query.Backend != "" {
			parsedBackend, err := llm.ParseBackend(query.Backend)
			if err != nil {
				s.writeWS(conn, protocol.ErrorEvent{
					Type:   protocol.TypeErrorEvent,
					Code:   "invalid_backend",
					Detail: err.Error(),
				})
				continue
			}
			backend = parsedBackend
		}

		_ = s.sessions.Touch(sess.Token)
		turns, err := s.pipeline.RunQuery(r.Context(), sess.UserID, query.Query, backend)
		if err != nil {
			s.writeWS(conn, wsErrorEvent(err))
			continue
		}

		s.writeWS(conn, protocol.AssistantAnswer{
			Type:        protocol.TypeAssistantAnswer,
			Query:       query.Query,
			Answer:      turns[0].Response,
			HistoryLen:  len(turns),
			BackendUsed: string(backend),
		})
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteJSON(msg)
}

func wsErrorEvent(err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{Type: protocol.TypeErrorEvent, Detail: err.Error()}
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		ev.Code = "empty_query"
	case errors.Is(err, retrieval.ErrUnavailable):
		ev.Code = "retrieval_unavailable"
		ev.Retryable = true
	default:
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			ev.Code = "generation_failed"
			ev.Retryable = genErr.Retryable
			return ev
		}
		var perr *pipeline.PersistenceError
		if errors.As(err, &perr) {
			ev.Code = "persistence_failed"
			return ev
		}
		ev.Code = "internal_error"
	}
	return ev
}
