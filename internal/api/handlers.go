package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// inboundMessage is the JSON form of an incoming customer message.
type inboundMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// startConversationRequest is the JSON body for POST /conversations/start.
type startConversationRequest struct {
	Phone string `json:"phone"`
}

// webhookHandler handles POST /webhook. It accepts both the Twilio form
// encoding (From/Body fields) and a JSON body, runs the turn, and delivers
// the agent's replies through the messaging service.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("webhookHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	from, body, err := parseInbound(r)
	if err != nil {
		slog.Warn("webhookHandler invalid payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	replies, err := s.sessions.ProcessMessage(r.Context(), from, body)
	if err != nil {
		slog.Error("webhookHandler turn failed", "error", err, "from", from)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	s.deliver(r, from, replies)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{"replies": replies}))
}

// startConversationHandler handles POST /conversations/start: the agent
// initiates an outbound collection conversation with the given customer.
func (s *Server) startConversationHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("startConversationHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("startConversationHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Phone == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("phone is required"))
		return
	}

	replies, err := s.sessions.StartConversation(r.Context(), req.Phone)
	if err != nil {
		slog.Error("startConversationHandler failed", "error", err, "phone", req.Phone)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start conversation"))
		return
	}

	s.deliver(r, req.Phone, replies)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{"replies": replies}))
}

// parseInbound extracts the sender and body from either encoding.
func parseInbound(r *http.Request) (from, body string, err error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return "", "", err
		}
		from = r.FormValue("From")
		body = r.FormValue("Body")
	} else {
		var msg inboundMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			return "", "", err
		}
		from = msg.From
		body = msg.Body
	}
	if from == "" {
		return "", "", errors.New("missing sender")
	}
	return from, body, nil
}

// deliver sends replies out through the messaging service. Delivery failures
// are logged but do not fail the webhook; Twilio would otherwise retry the
// whole inbound message and replay the turn.
func (s *Server) deliver(r *http.Request, to string, replies []string) {
	for _, reply := range replies {
		if err := s.msgService.SendMessage(r.Context(), to, reply); err != nil {
			slog.Error("reply delivery failed", "error", err, "to", to)
		}
	}
}

// listPromisesHandler handles GET /records/promises.
func (s *Server) listPromisesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	promises, err := s.st.ListPromises()
	if err != nil {
		slog.Error("listPromisesHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list promises"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(promises))
}

// listDisputesHandler handles GET /records/disputes.
func (s *Server) listDisputesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	disputes, err := s.st.ListDisputes()
	if err != nil {
		slog.Error("listDisputesHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list disputes"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(disputes))
}

// listCallRecordsHandler handles GET /records/calls.
func (s *Server) listCallRecordsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	calls, err := s.st.ListCallRecords()
	if err != nil {
		slog.Error("listCallRecordsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list call records"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(calls))
}
