package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"sentryrelay/internal"
)

// SentryHandler receives Sentry alert webhooks, filters them by deployment
// environment and configured rules, and forwards the survivors to Google
// Chat. One inbound request maps to at most one outbound delivery attempt.
type SentryHandler struct {
	environments *internal.EnvironmentSet
	rules        *internal.RuleEngine
	notifier     internal.Notifier
	reporter     internal.Reporter
	logger       *log.Logger
	maxBodyBytes int64
}

func NewSentryHandler(
	environments *internal.EnvironmentSet,
	rules *internal.RuleEngine,
	notifier internal.Notifier,
	reporter internal.Reporter,
	logger *log.Logger,
	maxBodyBytes int64,
) *SentryHandler {
	if reporter == nil {
		reporter = internal.NopReporter{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &SentryHandler{
		environments: environments,
		rules:        rules,
		notifier:     notifier,
		reporter:     reporter,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// ServeHTTP handles POST requests carrying a Sentry alert payload. The
// outbound delivery runs on a context detached from the inbound request, so
// a caller that hangs up early does not cancel an in-flight forward; the
// notifier's own timeout still bounds the attempt.
func (h *SentryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		internal.IncParseError("body")
		internal.IncOutcome(internal.OutcomeValidationFailed)
		writeJSON(w, http.StatusBadRequest, errorBody("unable to read request body"))
		return
	}

	alert, err := internal.ParseAlert(rawBody)
	if err != nil {
		h.logger.Printf("sentry parse failed: %v", err)
		internal.IncParseError("payload")
		internal.IncOutcome(internal.OutcomeValidationFailed)
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if !h.environments.Contains(alert.Environment) {
		h.logger.Printf("skipping alert for environment %q (allowed: %v)", alert.Environment, h.environments.Names())
		internal.IncOutcome(internal.OutcomeSkippedEnvironment)
		writeJSON(w, http.StatusOK, messageBody("Environment not allowed. Skipping notification."))
		return
	}

	if !h.rules.Matches(alert) {
		h.logger.Printf("skipping alert %q: no filter rule matched", alert.Title)
		internal.IncOutcome(internal.OutcomeSkippedRules)
		writeJSON(w, http.StatusOK, messageBody("Alert filtered by rules. Skipping notification."))
		return
	}

	payload, err := json.Marshal(BuildChatMessage(alert))
	if err != nil {
		h.reporter.CaptureError(err)
		writeJSON(w, http.StatusInternalServerError, errorBody("unable to build chat message"))
		return
	}

	if err := h.notifier.Notify(context.WithoutCancel(r.Context()), payload); err != nil {
		h.logger.Printf("delivery failed: %v", err)
		h.reporter.CaptureError(err)
		internal.IncOutcome(internal.OutcomeDeliveryFailed)
		writeJSON(w, http.StatusBadGateway, errorBody("failed to forward alert to Google Chat"))
		return
	}

	internal.IncOutcome(internal.OutcomeForwarded)
	writeJSON(w, http.StatusOK, messageBody("Webhook received and forwarded to Google Chat successfully"))
}
