package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/zuma-group/bill-integration-platform/internal/gmail"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/service"
)

const (
	defaultPollMax = 10
	maxPollMax     = 50
)

// ConsentFlow runs the OAuth consent that yields a mailbox refresh token.
type ConsentFlow interface {
	Configured() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// GmailHandler handles mailbox ingestion endpoints.
type GmailHandler struct {
	gmail   service.GmailService
	consent ConsentFlow
}

// NewGmailHandler creates a new GmailHandler.
func NewGmailHandler(gmail service.GmailService, consent ConsentFlow) *GmailHandler {
	return &GmailHandler{gmail: gmail, consent: consent}
}

// Poll handles GET and POST /api/v1/gmail/poll
// @Summary Poll the mailbox
// @Description Ingests unprocessed messages with attachments and queues the extracted invoices
// @Tags gmail
// @Produce json
// @Param max query int false "Messages to process (1-50)" default(10)
// @Success 200 {object} Response{data=service.IngestResult}
// @Failure 503 {object} ErrorResponseBody "Gmail disabled"
// @Router /gmail/poll [get]
// @Router /gmail/poll [post]
func (h *GmailHandler) Poll(c *gin.Context) {
	limit := defaultPollMax
	if raw := c.Query("max"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPollMax {
		limit = maxPollMax
	}

	result, err := h.gmail.Poll(c.Request.Context(), limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Notification handles POST /api/v1/gmail/notifications
// @Summary Receive a Pub/Sub push
// @Description Processes messages added since the last known history id
// @Tags gmail
// @Accept json
// @Produce json
// @Param body body PubSubPushRequest true "Pub/Sub push envelope"
// @Success 200 {object} Response{data=service.IngestResult}
// @Failure 400 {object} ErrorResponseBody
// @Router /gmail/notifications [post]
func (h *GmailHandler) Notification(c *gin.Context) {
	var req PubSubPushRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message.Data == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "message.data is required")
		return
	}
	result, err := h.gmail.HandleNotification(c.Request.Context(), req.Message.Data)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Watch handles POST /api/v1/gmail/watch
// @Summary Subscribe the mailbox to Pub/Sub
// @Tags gmail
// @Accept json
// @Produce json
// @Param body body WatchRequest false "Label filter"
// @Success 200 {object} Response{data=WatchResponse}
// @Failure 400 {object} ErrorResponseBody
// @Router /gmail/watch [post]
func (h *GmailHandler) Watch(c *gin.Context) {
	var req WatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
			return
		}
	}
	res, err := h.gmail.Watch(c.Request.Context(), req.LabelIDs)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, WatchResponse{HistoryID: res.HistoryID, Expiration: res.Expiration})
}

// Auth handles GET /api/v1/gmail/auth
// @Summary Start mailbox OAuth consent
// @Tags gmail
// @Success 302
// @Failure 503 {object} ErrorResponseBody
// @Router /gmail/auth [get]
func (h *GmailHandler) Auth(c *gin.Context) {
	if h.consent == nil || !h.consent.Configured() {
		RespondError(c, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "gmail OAuth client is not configured")
		return
	}
	c.Redirect(http.StatusFound, h.consent.AuthURL(uuid.NewString()))
}

// Callback handles GET /api/v1/gmail/callback
// @Summary Finish mailbox OAuth consent
// @Description Exchanges the authorisation code and returns the refresh token to configure
// @Tags gmail
// @Produce json
// @Param code query string true "Authorisation code"
// @Success 200 {object} Response{data=OAuthCallbackResponse}
// @Failure 400 {object} ErrorResponseBody
// @Failure 502 {object} ErrorResponseBody
// @Router /gmail/callback [get]
func (h *GmailHandler) Callback(c *gin.Context) {
	if h.consent == nil || !h.consent.Configured() {
		RespondError(c, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "gmail OAuth client is not configured")
		return
	}
	if msg := c.Query("error"); msg != "" {
		RespondError(c, http.StatusBadRequest, "OAUTH_DENIED", msg)
		return
	}
	code := c.Query("code")
	if code == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_CODE", "code parameter is required")
		return
	}

	tok, err := h.consent.Exchange(c.Request.Context(), code)
	if errors.Is(err, gmail.ErrNoRefreshToken) {
		RespondError(c, http.StatusBadRequest, "NO_REFRESH_TOKEN", err.Error())
		return
	}
	if err != nil {
		l := logger.FromContext(c.Request.Context())
		l.Error().Err(err).Msg("gmail oauth exchange failed")
		RespondError(c, http.StatusBadGateway, "OAUTH_EXCHANGE_FAILED", "could not exchange authorisation code")
		return
	}
	RespondOK(c, OAuthCallbackResponse{
		RefreshToken: tok.RefreshToken,
		Message:      "Set BIP_GMAIL_REFRESH_TOKEN to this value and restart the server.",
	})
}
