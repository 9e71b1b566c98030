package proxy

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/logging"
	"github.com/Prathap331/SB-Next/internal/payments"
	"github.com/Prathap331/SB-Next/internal/pricing"
)

const (
	invalidBodyMessage   = "Invalid JSON in request body"
	topicRequiredMessage = "Topic is required and must be a non-empty string"
	webhookTimeout       = 60 * time.Second
	// isoMillis matches JavaScript's Date.toISOString.
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

var (
	processTopicRoute = route{name: "process-topic", endpoint: "/process-topic", describe: prefixedError}
	generateRoute     = route{name: "generate-script", endpoint: "/generate-script", describe: extractedError}
	createOrderRoute  = route{name: "create-order", endpoint: "/payments/create-order", describe: extractedError}
)

func (s *Server) handleProcessTopicStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "Process Topic API route is active",
		"timestamp": s.now().UTC().Format(isoMillis),
	})
}

func (s *Server) handleProcessTopic(w http.ResponseWriter, r *http.Request) {
	logger := logging.Get(r.Context())
	logger.Info().Msg("process-topic request received")

	body, status, err := readJSONBody(w, r)
	if err != nil {
		logger.Warn().Err(err).Msg("rejecting process-topic body")
		if status == http.StatusBadRequest {
			writeError(w, status, invalidBodyMessage)
		} else {
			writeError(w, status, err.Error())
		}
		return
	}

	topic, ok := topicField(body)
	if !ok {
		writeError(w, http.StatusBadRequest, topicRequiredMessage)
		return
	}
	logger.Info().Str("topic", topic).Msg("processing topic")

	forwarded, err := json.Marshal(api.ProcessTopicRequest{Topic: topic})
	if err != nil {
		writeError(w, http.StatusInternalServerError, unexpectedMessage)
		return
	}
	s.forward(w, r, processTopicRoute, forwarded)
}

// topicField extracts a non-blank string topic, trimmed.
func topicField(body []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	var topic string
	if err := json.Unmarshal(fields["topic"], &topic); err != nil {
		return "", false
	}
	topic = strings.TrimSpace(topic)
	return topic, topic != ""
}

func (s *Server) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	logger := logging.Get(r.Context())
	logger.Info().Msg("generate-script request received")

	body, status, err := readJSONBody(w, r)
	if err != nil {
		logger.Warn().Err(err).Msg("rejecting generate-script body")
		if status == http.StatusBadRequest {
			writeError(w, status, invalidBodyMessage)
		} else {
			writeError(w, status, err.Error())
		}
		return
	}
	s.forward(w, r, generateRoute, body)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required. Please login first.")
		return
	}

	body, status, err := readJSONBody(w, r)
	if err != nil {
		writeError(w, status, invalidBodyMessage)
		return
	}
	var order api.CreateOrderRequest
	if err := json.Unmarshal(body, &order); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}
	if order.Amount <= 0 || strings.TrimSpace(order.TargetTier) == "" {
		writeError(w, http.StatusBadRequest, "amount must be positive and target_tier is required")
		return
	}
	if order.Currency == "" {
		order.Currency = payments.Currency
	}

	forwarded, err := json.Marshal(order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, unexpectedMessage)
		return
	}
	s.forward(w, r, createOrderRoute, forwarded)
}

func (s *Server) handleWebhookStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Razorpay webhook endpoint is active",
		"note":    "This endpoint should only receive POST requests from Razorpay",
	})
}

// handleWebhook forwards settled payments to the backend. Signatures are not
// verified here; the backend verifies the payment itself.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := logging.Get(r.Context())

	body, _, err := readJSONBody(w, r)
	var event *payments.Event
	if err == nil {
		event, err = payments.ParseEvent(body)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("invalid webhook payload")
		writeJSON(w, http.StatusBadRequest, api.Ack{Message: "Invalid webhook payload"})
		return
	}

	if !event.Settles() {
		logger.Info().Str("event", event.Name).Msg("webhook event not handled")
		writeJSON(w, http.StatusOK, api.Ack{Success: true, Message: "Event received but not processed"})
		return
	}

	entity := event.Entity()
	logger.Info().
		Str("event", event.Name).
		Str("order_id", entity.OrderID).
		Str("payment_id", entity.ID).
		Str("amount", entity.Amount.String()).
		Msg("payment successful")

	resp, err := s.backend.PostJSON(r.Context(), "/payments/webhook", nil, event.Raw, webhookTimeout)
	if err != nil {
		logger.Error().Err(err).Msg("error forwarding webhook")
		metricUpstream.WithLabelValues("webhook", "error").Inc()
		writeJSON(w, http.StatusInternalServerError, api.Ack{Message: "Error forwarding webhook"})
		return
	}
	if !resp.OK() {
		logger.Error().Int("status", resp.StatusCode).Str("body", truncate(string(resp.Body), rawErrorLimit)).
			Msg("backend webhook processing failed")
		metricUpstream.WithLabelValues("webhook", "status_error").Inc()
		writeJSON(w, http.StatusInternalServerError, api.Ack{Message: "Backend processing failed"})
		return
	}

	metricUpstream.WithLabelValues("webhook", "ok").Inc()
	writeJSON(w, http.StatusOK, api.Ack{Success: true, Message: "Webhook processed successfully"})
}

func (s *Server) handleBackendHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.backend.Probe(r.Context())
	payload := map[string]any{
		"ready":  err == nil && status == http.StatusOK,
		"status": status,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	code := http.StatusOK
	if payload["ready"] != true {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (s *Server) handlePricing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": pricing.Plans()})
}

// handleSite exposes the public client settings. The identity anon key is a
// publishable key.
func (s *Server) handleSite(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"site_url":     s.cfg.Site.URL,
		"identity_url": s.cfg.Identity.URL,
		"anon_key":     s.cfg.Identity.AnonKey,
	})
}
