package http

import (
	"encoding/json"
	"net/http"

	"esquematiza/internal/app"
	"esquematiza/internal/domain"
	"github.com/sirupsen/logrus"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type questionPayload struct {
	Index int `json:"index"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string      `json:"message"`
	Kind    domain.Kind `json:"kind"`
}

type answerResult struct {
	QuestionID int64 `json:"question_id"`
	domain.AnswerOutcome
}

// ServeWS upgrades to a websocket that drives the exam of the caller: each inbound
// message maps to one ExamService operation and yields one reply.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.WithField("user_id", userID)
	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply := s.dispatch(r, userID, inbound, log)
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
}

func (s *Server) dispatch(r *http.Request, userID string, in inboundMessage, log logrus.FieldLogger) outboundMessage {
	ctx := r.Context()
	switch in.Type {
	case "start":
		var p startRequest
		if err := decodePayload(in.Payload, &p); err != nil {
			return s.wsError(r, err, log)
		}
		n := app.DefaultSampleSize
		if p.N != nil {
			n = *p.N
		}
		res, err := s.exam.Start(ctx, userID, p.Subjects, n)
		if err != nil {
			return s.wsError(r, err, log)
		}
		return outboundMessage{Type: "started", Payload: res}
	case "question":
		var p questionPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return s.wsError(r, err, log)
		}
		page, err := s.exam.GetQuestion(ctx, userID, p.Index)
		if err != nil {
			return s.wsError(r, err, log)
		}
		return outboundMessage{Type: "question", Payload: page}
	case "answer":
		var p answerRequest
		if err := decodePayload(in.Payload, &p); err != nil {
			return s.wsError(r, err, log)
		}
		out, err := s.exam.Answer(ctx, userID, p.QuestionID, p.Letter)
		if err != nil {
			return s.wsError(r, err, log)
		}
		return outboundMessage{Type: "answerResult", Payload: answerResult{QuestionID: p.QuestionID, AnswerOutcome: out}}
	case "finalize":
		report, err := s.exam.Finalize(ctx, userID)
		if err != nil {
			return s.wsError(r, err, log)
		}
		return outboundMessage{Type: "report", Payload: report}
	default:
		return s.wsError(r, domain.ErrInvalidRequest, log)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.ErrInvalidRequest
	}
	return validateStruct(dst)
}

func (s *Server) wsError(r *http.Request, err error, log logrus.FieldLogger) outboundMessage {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		log.WithError(err).Error("ws request failed")
	}
	return outboundMessage{Type: "error", Payload: errorPayload{
		Message: s.catalog.T(r.Context(), string(kind)),
		Kind:    kind,
	}}
}
