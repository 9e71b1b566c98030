package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/logging"
)

const (
	unreachableMessage = "Unable to connect to backend server. Please check your network connection and try again."
	unexpectedMessage  = "An unexpected error occurred while processing your request."
	invalidJSONMessage = "Invalid JSON response from backend"
	genericAPIError    = "Failed to generate script due to an external API error."
	// rawErrorLimit is the longest plain-text backend error passed through.
	rawErrorLimit = 500
)

// route describes how one endpoint is forwarded.
type route struct {
	// describe turns a non-2xx backend body into the error message.
	describe func(status int, text string) string
	name     string
	endpoint string
}

// forward posts body to the backend and translates the outcome for the
// browser. The inbound Authorization header is passed through.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, rt route, body []byte) {
	logger := logging.Get(r.Context()).With().Str("route", rt.name).Logger()

	header := http.Header{}
	if auth := r.Header.Get("Authorization"); auth != "" {
		header.Set("Authorization", auth)
	}

	logger.Info().Str("backend", s.backend.URL(rt.endpoint)).Msg("forwarding to backend")
	resp, err := s.backend.PostJSON(r.Context(), rt.endpoint, header, body, s.cfg.Server.UpstreamTimeout)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrTimeout):
			logger.Error().Err(err).Dur("timeout", s.cfg.Server.UpstreamTimeout).Msg("backend request timed out")
			metricUpstream.WithLabelValues(rt.name, "timeout").Inc()
			writeError(w, http.StatusRequestTimeout, timeoutMessage(s.cfg.Server.UpstreamTimeout))
		case errors.Is(err, backend.ErrUnreachable):
			logger.Error().Err(err).Msg("backend unreachable")
			metricUpstream.WithLabelValues(rt.name, "unreachable").Inc()
			writeError(w, http.StatusServiceUnavailable, unreachableMessage)
		default:
			logger.Error().Err(err).Msg("backend request failed")
			metricUpstream.WithLabelValues(rt.name, "error").Inc()
			writeError(w, http.StatusInternalServerError, unexpectedMessage)
		}
		return
	}

	logger.Info().Int("status", resp.StatusCode).Msg("backend responded")

	if !resp.OK() {
		text := string(resp.Body)
		logger.Error().Int("status", resp.StatusCode).Str("body", truncate(text, rawErrorLimit)).Msg("backend error")
		metricUpstream.WithLabelValues(rt.name, "status_error").Inc()

		status := resp.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, api.ErrorBody{
			Error:  rt.describe(resp.StatusCode, text),
			Status: resp.StatusCode,
		})
		return
	}

	if !json.Valid(resp.Body) {
		logger.Error().Msg("backend returned invalid JSON")
		metricUpstream.WithLabelValues(rt.name, "invalid_json").Inc()
		writeError(w, http.StatusBadGateway, invalidJSONMessage)
		return
	}

	metricUpstream.WithLabelValues(rt.name, "ok").Inc()
	w.Header().Set("Cache-Control", noStore)
	writeRaw(w, http.StatusOK, resp.Body)
}

// prefixedError reports the backend body verbatim behind a fixed prefix.
func prefixedError(status int, text string) string {
	if text == "" {
		text = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return "Backend API error: " + text
}

// extractedError prefers the backend's detail, error or message field, then
// short plain text, then a generic message.
func extractedError(_ int, text string) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		if text != "" && len(text) < rawErrorLimit {
			return text
		}
		return genericAPIError
	}
	for _, field := range []string{"detail", "error", "message"} {
		if msg := jsonText(payload[field]); msg != "" {
			return msg
		}
	}
	return genericAPIError
}

// jsonText renders a JSON value as text: strings unquoted, anything else
// compacted.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func timeoutMessage(d time.Duration) string {
	return fmt.Sprintf("Request timed out after %s. The server is taking too long to respond.", humanDuration(d))
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d > time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	case d == time.Second:
		return "1 second"
	case d > time.Second && d%time.Second == 0:
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	default:
		return d.String()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
