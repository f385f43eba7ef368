package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/bot"
	"github.com/galaxy-digital/line-dice-bot/internal/bot/dto"
)

// Server recebe o webhook do gateway de chat e devolve as respostas
// prontas para entrega. O gateway é quem fala com a plataforma de chat.
type Server struct {
	log         *zap.Logger
	handler     *bot.Handler
	adminUserID string
}

func NewServer(log *zap.Logger, h *bot.Handler, adminUserID string) *Server {
	return &Server{log: log, handler: h, adminUserID: adminUserID}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhook) // POST
	return mux
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn("webhook decode", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var out dto.WebhookResponse
	for _, ev := range req.Events {
		if ev.Type != "message" || ev.Message.Type != "text" {
			continue
		}
		in := bot.Inbound{
			UserID:      ev.Source.UserID,
			DisplayName: ev.Source.DisplayName,
			IsOperator:  s.adminUserID != "" && ev.Source.UserID == s.adminUserID,
			Text:        ev.Message.Text,
		}
		reply := s.handler.Handle(r.Context(), in)
		if reply == nil {
			continue
		}
		out.Replies = append(out.Replies, toOutbound(ev.ReplyToken, reply))
	}

	writeJSON(w, out)
}

func toOutbound(replyToken string, r *bot.Reply) dto.OutboundReply {
	o := dto.OutboundReply{
		ReplyToken: replyToken,
		Code:       string(r.Code),
		Text:       r.Text,
	}
	if r.Render != nil {
		render := &dto.Render{
			Kind:    string(r.Render.Kind),
			RoundID: r.Render.RoundID,
			Result:  r.Render.Result,
		}
		for _, pr := range r.Render.Rounds {
			render.Rounds = append(render.Rounds, dto.PastRound{RoundID: pr.RoundID, Result: pr.Result})
		}
		o.Render = render
	}
	return o
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
