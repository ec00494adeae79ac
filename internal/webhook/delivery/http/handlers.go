package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"git-integration/internal/middleware"
	"git-integration/internal/model"
	"git-integration/internal/webhook"
	"git-integration/pkg/response"
)

// Receive godoc
// @Summary     Receive a provider webhook delivery
// @Description Verifies the signature with the connection's secret, stores the delivery and acknowledges it before any processing.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
// @Param       provider     path string true "Provider identifier (github, gitlab, bitbucket)"
// @Param       connectionID path string true "Connection ID"
// @Success     202 {object} receiveResp
// @Failure     400 {object} response.Resp "Unknown provider or malformed payload"
// @Failure     401 {object} response.Resp "Invalid signature"
// @Failure     404 {object} response.Resp "Connection not found"
// @Failure     410 {object} response.Resp "Connection inactive"
// @Failure     413 {object} response.Resp "Payload too large"
// @Failure     429 {object} response.Resp "Too many deliveries"
// @Router      /webhook/{provider}/{connectionID} [POST]
func (h *handler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	prov := c.Param("provider")

	if !h.guard.allowIP(c.ClientIP()) {
		h.l.Warnf(ctx, "webhook.delivery.http.Receive: rejected source %s", c.ClientIP())
		response.Error(c, errForbiddenSource, nil)
		return
	}
	if err := h.guard.allowRate(prov); err != nil {
		h.l.Warnf(ctx, "webhook.delivery.http.Receive: %v", err)
		response.Error(c, errTooManyRequests, nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.guard.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, errBodyTooLarge, nil)
			return
		}
		response.Error(c, errUnreadableBody, nil)
		return
	}

	output, err := h.uc.Receive(ctx, webhook.ReceiveInput{
		Provider:     model.Provider(prov),
		ConnectionID: c.Param("connectionID"),
		Headers:      c.Request.Header,
		Body:         body,
	})
	if err != nil {
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.Accepted(c, newReceiveResp(output))
}

// ListEvents godoc
// @Summary     List webhook events of a connection
// @Description Returns stored deliveries newest first, optionally filtered by status.
// @Tags        Webhooks
// @Produce     json
// @Param       id     path  string true  "Connection ID"
// @Param       status query string false "PENDING, PROCESSING, PROCESSED, FAILED or IGNORED"
// @Param       limit  query int    false "Page size (max 200)"
// @Param       offset query int    false "Offset"
// @Success     200 {array}  eventResp
// @Failure     401 {object} response.Resp "Unauthorized"
// @Failure     404 {object} response.Resp "Connection not found"
// @Router      /api/v1/connections/{id}/webhook-events [GET]
func (h *handler) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()

	var req listEventsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, errWrongQuery, nil)
		return
	}

	events, err := h.uc.ListEvents(ctx, middleware.GetScope(c), req.toInput(c.Param("id")))
	if err != nil {
		h.l.Errorf(ctx, "uc.ListEvents: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newEventListResp(events))
}
