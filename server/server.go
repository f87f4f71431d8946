// Package server exposes the webhook transport: verification handshake,
// signature checking, and background dispatch of inbound messages to the
// bot router.
package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gthalib/tulip/internal/bot"
	"github.com/gthalib/tulip/internal/profile"
	"github.com/gthalib/tulip/server/whatsapp"
	"github.com/gthalib/tulip/store"
)

const typingRefreshInterval = 15 * time.Second

// Server is the webhook HTTP server.
type Server struct {
	profile   *profile.Profile
	store     *store.Store
	router    *bot.Router
	messenger *whatsapp.Client

	echoServer *echo.Echo
}

// NewServer creates the webhook server and registers its routes.
func NewServer(profile *profile.Profile, store *store.Store, router *bot.Router) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		profile:    profile,
		store:      store,
		router:     router,
		messenger:  whatsapp.NewClient(profile.MessagingURL, profile.MessagingKey),
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/webhook", s.verifyWebhook)
	e.POST("/webhook", s.receiveWebhook)

	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown runs.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("tulip stopped properly")
}

// verifyWebhook answers the provider's subscription handshake.
func (s *Server) verifyWebhook(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == s.profile.VerifyToken {
		slog.Info("webhook verified successfully")
		return c.String(http.StatusOK, challenge)
	}

	slog.Warn("webhook verification failed", "mode", mode)
	return c.String(http.StatusForbidden, "Forbidden")
}

// receiveWebhook validates the signature, acknowledges immediately with 202,
// and processes each inbound message in the background so provider latency
// never stalls the webhook.
func (s *Server) receiveWebhook(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "Bad request")
	}

	if s.profile.AppSecret != "" {
		signature := c.Request().Header.Get("X-Hub-Signature-256")
		if !verifySignature(s.profile.AppSecret, raw, signature) {
			slog.Warn("invalid webhook signature")
			return c.String(http.StatusUnauthorized, "Invalid signature")
		}
	}

	batches, err := normalizeWebhook(raw, s.profile.PhoneNumberID)
	if err != nil {
		slog.Warn("failed to parse webhook payload", "error", err)
		return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
	}

	for _, batch := range batches {
		go s.processMessage(context.Background(), batch)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// processMessage runs one full turn for an inbound message.
func (s *Server) processMessage(ctx context.Context, batch inboundBatch) {
	message := batch.Message
	if message.Gateway.Direction == "outbound" {
		return
	}

	whitelisted, err := s.store.HasWhitelistEntry(ctx, message.From)
	if err != nil {
		slog.Error("failed to check whitelist, dropping message", "from", message.From, "error", err)
		return
	}
	if !whitelisted {
		slog.Info("ignoring message from non-whitelisted sender", "from", message.From)
		return
	}

	if message.ID != "" {
		if err := s.messenger.MarkRead(ctx, batch.PhoneNumberID, message.ID); err != nil {
			slog.Debug("failed to mark message read", "error", err)
		}
	}

	// Keep the typing indicator alive while the turn is in flight.
	typingCtx, stopTyping := context.WithCancel(ctx)
	defer stopTyping()
	go s.refreshTyping(typingCtx, batch.PhoneNumberID, message.ID)

	reply, err := s.router.HandleTurn(ctx, message.From, message.Text.Body)
	if err != nil {
		// No reply and no acknowledgement; the provider may redeliver.
		slog.Error("turn failed", "from", message.From, "error", err)
		return
	}
	stopTyping()

	if err := s.messenger.SendText(ctx, batch.PhoneNumberID, message.From, formatReply(reply)); err != nil {
		slog.Error("failed to send reply", "to", message.From, "error", err)
	}
}

// refreshTyping re-issues the read receipt on an interval so the typing
// indicator does not expire during long turns.
func (s *Server) refreshTyping(ctx context.Context, phoneNumberID, messageID string) {
	if messageID == "" {
		return
	}

	ticker := time.NewTicker(typingRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.messenger.MarkRead(ctx, phoneNumberID, messageID); err != nil {
				slog.Debug("failed to refresh typing indicator", "error", err)
			}
		}
	}
}

// formatReply renders the reply record with its metadata header.
func formatReply(reply *bot.Reply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module: %s\n", reply.Module)
	fmt.Fprintf(&b, "Intent: %s\n", reply.Intent)
	model := reply.ModelUsed
	if model == "" {
		model = "None"
	}
	fmt.Fprintf(&b, "Model: %s\n\n", model)
	b.WriteString(reply.Body)
	return b.String()
}

// verifySignature checks the X-Hub-Signature-256 header against an
// HMAC-SHA256 of the raw body.
func verifySignature(appSecret string, body []byte, header string) bool {
	signature, found := strings.CutPrefix(header, "sha256=")
	if !found {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
