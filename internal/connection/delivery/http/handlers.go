package http

import (
	"github.com/gin-gonic/gin"

	"git-integration/internal/connection"
	"git-integration/internal/middleware"
	"git-integration/pkg/response"
)

// Authorize godoc
// @Summary     Begin OAuth authorization
// @Description Issues a single-use state and returns the provider consent URL.
// @Tags        Connections
// @Accept      json
// @Produce     json
// @Param       body body authorizeReq true "Authorization request"
// @Success     200 {object} authorizeResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     401 {object} response.Resp "Unauthorized"
// @Router      /api/v1/connections/authorize [POST]
func (h *handler) Authorize(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processAuthorizeReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	output, err := h.uc.BeginAuthorization(ctx, middleware.GetScope(c), req.toInput())
	if err != nil {
		h.l.Errorf(ctx, "uc.BeginAuthorization: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newAuthorizeResp(output))
}

// Callback godoc
// @Summary     Complete OAuth authorization
// @Description Consumes the state, exchanges the code and returns the connection.
// @Tags        Connections
// @Produce     json
// @Param       code  query string true "Authorization code"
// @Param       state query string true "State token"
// @Success     200 {object} connectionResp
// @Failure     400 {object} response.Resp "Invalid or expired state"
// @Failure     502 {object} response.Resp "Authorization exchange failed"
// @Router      /api/v1/oauth/callback [GET]
func (h *handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processCallbackReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	conn, err := h.uc.CompleteAuthorization(ctx, connection.CompleteAuthorizationInput{Code: req.Code, State: req.State})
	if err != nil {
		h.l.Warnf(ctx, "uc.CompleteAuthorization: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newConnectionResp(conn))
}

// Create godoc
// @Summary     Create a connection from an issued token
// @Tags        Connections
// @Accept      json
// @Produce     json
// @Param       body body createReq true "Connection data"
// @Success     200 {object} connectionResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     409 {object} response.Resp "Conflict"
// @Router      /api/v1/connections [POST]
func (h *handler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processCreateReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	conn, err := h.uc.Create(ctx, middleware.GetScope(c), req.toInput())
	if err != nil {
		h.l.Errorf(ctx, "uc.Create: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newConnectionResp(conn))
}

// Detail godoc
// @Summary     Get a connection
// @Tags        Connections
// @Produce     json
// @Param       id path string true "Connection ID"
// @Success     200 {object} connectionResp
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/connections/{id} [GET]
func (h *handler) Detail(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := h.uc.Detail(ctx, middleware.GetScope(c), c.Param("id"))
	if err != nil {
		h.l.Errorf(ctx, "uc.Detail: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newConnectionResp(conn))
}

// Update godoc
// @Summary     Update a connection
// @Description Partial update; changing the repository re-registers the webhook.
// @Tags        Connections
// @Accept      json
// @Produce     json
// @Param       id   path string    true "Connection ID"
// @Param       body body updateReq true "Fields to update"
// @Success     200 {object} connectionResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/connections/{id} [PUT]
func (h *handler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processUpdateReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	conn, err := h.uc.Update(ctx, middleware.GetScope(c), req.toInput(c.Param("id")))
	if err != nil {
		h.l.Errorf(ctx, "uc.Update: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newConnectionResp(conn))
}

// Delete godoc
// @Summary     Delete a connection
// @Description Deactivates the connection, removes the provider webhook and soft-deletes it.
// @Tags        Connections
// @Produce     json
// @Param       id path string true "Connection ID"
// @Success     200 {object} response.Resp "OK"
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/connections/{id} [DELETE]
func (h *handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.uc.Delete(ctx, middleware.GetScope(c), c.Param("id")); err != nil {
		h.l.Errorf(ctx, "uc.Delete: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, nil)
}

// ListByProject godoc
// @Summary     List a project's connections
// @Tags        Connections
// @Produce     json
// @Param       projectID path string true "Project ID"
// @Success     200 {object} listResp
// @Router      /api/v1/projects/{projectID}/connections [GET]
func (h *handler) ListByProject(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.uc.ListByProject(ctx, middleware.GetScope(c), c.Param("projectID"))
	if err != nil {
		h.l.Errorf(ctx, "uc.ListByProject: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newListResp(list))
}

// ListRepositories godoc
// @Summary     List repositories visible to the connection's token
// @Tags        Connections
// @Produce     json
// @Param       id   path  string true  "Connection ID"
// @Param       page query int    false "Page (default 1)"
// @Success     200 {object} repositoriesResp
// @Failure     410 {object} response.Resp "Connection inactive"
// @Router      /api/v1/connections/{id}/repositories [GET]
func (h *handler) ListRepositories(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := h.processPageQuery(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	out, err := h.uc.ListRepositories(ctx, middleware.GetScope(c), c.Param("id"), page)
	if err != nil {
		h.l.Errorf(ctx, "uc.ListRepositories: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newRepositoriesResp(out))
}

// ListBranches godoc
// @Summary     List branches of the connected repository
// @Tags        Connections
// @Produce     json
// @Param       id path string true "Connection ID"
// @Success     200 {array} branchResp
// @Failure     422 {object} response.Resp "No repository bound"
// @Router      /api/v1/connections/{id}/branches [GET]
func (h *handler) ListBranches(c *gin.Context) {
	ctx := c.Request.Context()

	branches, err := h.uc.ListBranches(ctx, middleware.GetScope(c), c.Param("id"))
	if err != nil {
		h.l.Errorf(ctx, "uc.ListBranches: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newBranchesResp(branches))
}
