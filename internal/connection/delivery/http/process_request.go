package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *handler) processAuthorizeReq(c *gin.Context) (authorizeReq, error) {
	var req authorizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.l.Warnf(c.Request.Context(), "connection.delivery.http.processAuthorizeReq: %v", err)
		return authorizeReq{}, errWrongBody
	}
	return req, nil
}

func (h *handler) processCallbackReq(c *gin.Context) (callbackReq, error) {
	var req callbackReq
	if err := c.ShouldBindQuery(&req); err != nil {
		return callbackReq{}, errWrongQuery
	}
	return req, nil
}

func (h *handler) processCreateReq(c *gin.Context) (createReq, error) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.l.Warnf(c.Request.Context(), "connection.delivery.http.processCreateReq: %v", err)
		return createReq{}, errWrongBody
	}
	return req, nil
}

func (h *handler) processUpdateReq(c *gin.Context) (updateReq, error) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.l.Warnf(c.Request.Context(), "connection.delivery.http.processUpdateReq: %v", err)
		return updateReq{}, errWrongBody
	}
	return req, nil
}

func (h *handler) processPageQuery(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errWrongQuery
	}
	return page, nil
}
