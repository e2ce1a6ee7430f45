package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	apperrors "github.com/harrison001/NexusBot/internal/errors"
	"github.com/harrison001/NexusBot/internal/metrics"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// telegramNets are the provider-owned address ranges webhook traffic
// originates from.
var telegramNets = []netip.Prefix{
	netip.MustParsePrefix("149.154.160.0/20"),
	netip.MustParsePrefix("91.108.4.0/22"),
}

// handleWebhook authenticates one push notification and acknowledges it
// immediately, deferring the actual processing to the dispatch pool.
func (s *Server) handleWebhook(c echo.Context) error {
	if s.pool == nil {
		metrics.UpdatesRejectedTotal.WithLabelValues("not_ready").Inc()
		return apperrors.UnavailableError("bot not initialized")
	}

	origin := clientOrigin(c.Request())

	if s.config.WebhookVerifyIP && !originAllowed(origin) {
		slog.Warn("Webhook request from unauthorized IP", "client_ip", origin)
		metrics.UpdatesRejectedTotal.WithLabelValues("origin").Inc()
		return apperrors.UnauthorizedError("unauthorized origin")
	}

	if s.config.WebhookSecretToken != "" {
		token := c.Request().Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.WebhookSecretToken)) != 1 {
			slog.Warn("Webhook request with invalid secret token", "client_ip", origin)
			metrics.UpdatesRejectedTotal.WithLabelValues("secret").Inc()
			return apperrors.UnauthorizedError("invalid secret token")
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		metrics.UpdatesRejectedTotal.WithLabelValues("parse").Inc()
		return apperrors.ValidationError("invalid request data")
	}

	if !s.pool.Enqueue(update) {
		// Full queue: refuse so Telegram re-delivers instead of losing the
		// update behind a hollow acknowledgement.
		slog.Warn("Dispatch queue full, refusing update", "update_id", update.UpdateID)
		metrics.UpdatesRejectedTotal.WithLabelValues("queue_full").Inc()
		return apperrors.UnavailableError("update queue full")
	}

	metrics.UpdatesReceivedTotal.Inc()
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// clientOrigin extracts the requesting address, preferring the first
// X-Forwarded-For entry over the raw connection address so the check works
// behind a reverse proxy.
func clientOrigin(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func originAllowed(origin string) bool {
	addr, err := netip.ParseAddr(origin)
	if err != nil {
		return false
	}
	for _, prefix := range telegramNets {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
