package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	"geoportal-service/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.QuestionnaireService
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuestionnaireService, logger *zap.Logger, m *metrics.Metrics) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades the request and drives one questionnaire session. Every
// state change, from this or any other connection, is pushed as a result.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()

	ctx := r.Context()
	joined, err := h.service.Start(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	sessionID = joined.SessionID
	log := h.logger.With(zap.String("session_id", sessionID))

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer h.service.Leave(ctx, sessionID)
	defer cancel()

	// The subscription opens with the current state; that is the joined payload.
	if initial, ok := <-updates; ok {
		joined = initial
	}

	send := make(chan outboundMessage[any], 16)
	send <- outboundMessage[any]{Type: "joined", Payload: joined}
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					// Session ended or evicted: unblock the reader.
					_ = conn.Close()
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "result", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, sessionID, inbound); err != nil {
			if !push(errorMessage(err.Error())) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one inbound message. Successful changes reach the client
// through the session subscription.
func (h *WSHandler) dispatch(r *http.Request, sessionID string, inbound inboundMessage) error {
	ctx := r.Context()
	var err error
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if jsonErr := json.Unmarshal(inbound.Payload, &payload); jsonErr != nil {
			return errInvalidPayload
		}
		_, err = h.service.Answer(ctx, sessionID, domain.UserAnswer{
			QuestionID:       payload.QuestionID,
			SelectedOptionID: payload.OptionID,
		})
	case "reset":
		_, err = h.service.Reset(ctx, sessionID)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	default:
		return errUnsupportedMessage
	}
	return err
}

var (
	errInvalidPayload     = errors.New("invalid answer payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)
