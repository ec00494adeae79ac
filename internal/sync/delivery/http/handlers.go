package http

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"git-integration/internal/middleware"
	"git-integration/internal/model"
	"git-integration/internal/sync"
	"git-integration/pkg/response"
)

// Trigger godoc
// @Summary     Run a manual sync
// @Description Syncs new commits of a branch (default branch when omitted) and optionally open pull requests.
// @Tags        Sync
// @Accept      json
// @Produce     json
// @Param       id   path string     true  "Connection ID"
// @Param       body body triggerReq false "Sync options"
// @Success     200 {object} triggerResp
// @Failure     404 {object} response.Resp "Connection not found"
// @Failure     410 {object} response.Resp "Connection inactive"
// @Failure     429 {object} response.Resp "Provider rate limit exceeded"
// @Failure     502 {object} response.Resp "Provider unavailable"
// @Router      /api/v1/connections/{id}/sync [POST]
func (h *handler) Trigger(c *gin.Context) {
	ctx := c.Request.Context()

	var req triggerReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.l.Warnf(ctx, "sync.delivery.http.Trigger: %v", err)
		response.Error(c, errWrongBody, nil)
		return
	}

	out, err := h.uc.Trigger(ctx, middleware.GetScope(c), req.toInput(c.Param("id")))
	if err != nil {
		h.l.Errorf(ctx, "uc.Trigger: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newTriggerResp(out))
}

// ListCommits godoc
// @Summary     List synced commits
// @Tags        Sync
// @Produce     json
// @Param       id     path  string true  "Connection ID"
// @Param       branch query string false "Branch filter"
// @Param       limit  query int    false "Page size (max 200)"
// @Param       offset query int    false "Offset"
// @Success     200 {array}  commitResp
// @Failure     404 {object} response.Resp "Connection not found"
// @Router      /api/v1/connections/{id}/commits [GET]
func (h *handler) ListCommits(c *gin.Context) {
	ctx := c.Request.Context()

	var req listReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, errWrongQuery, nil)
		return
	}

	commits, err := h.uc.ListCommits(ctx, middleware.GetScope(c), sync.ListCommitsInput{
		ConnectionID: c.Param("id"),
		Branch:       req.Branch,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		h.l.Errorf(ctx, "uc.ListCommits: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newCommitListResp(commits))
}

// GetCommit godoc
// @Summary     Get one commit
// @Description Served from storage; fetched from the provider and recorded on a miss.
// @Tags        Sync
// @Produce     json
// @Param       id  path string true "Connection ID"
// @Param       sha path string true "Commit SHA"
// @Success     200 {object} commitResp
// @Failure     404 {object} response.Resp "Commit not found"
// @Router      /api/v1/connections/{id}/commits/{sha} [GET]
func (h *handler) GetCommit(c *gin.Context) {
	ctx := c.Request.Context()

	commit, err := h.uc.GetCommit(ctx, middleware.GetScope(c), c.Param("id"), c.Param("sha"))
	if err != nil {
		h.l.Errorf(ctx, "uc.GetCommit: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newCommitResp(commit))
}

// ListPullRequests godoc
// @Summary     List synced pull requests
// @Tags        Sync
// @Produce     json
// @Param       id     path  string true  "Connection ID"
// @Param       state  query string false "open, closed or merged"
// @Param       limit  query int    false "Page size (max 200)"
// @Param       offset query int    false "Offset"
// @Success     200 {array}  pullRequestResp
// @Failure     404 {object} response.Resp "Connection not found"
// @Router      /api/v1/connections/{id}/pull-requests [GET]
func (h *handler) ListPullRequests(c *gin.Context) {
	ctx := c.Request.Context()

	var req listReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, errWrongQuery, nil)
		return
	}

	prs, err := h.uc.ListPullRequests(ctx, middleware.GetScope(c), sync.ListPullRequestsInput{
		ConnectionID: c.Param("id"),
		State:        model.PullRequestState(req.State),
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		h.l.Errorf(ctx, "uc.ListPullRequests: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newPullRequestListResp(prs))
}

// GetPullRequest godoc
// @Summary     Get one pull request
// @Description Served from storage; fetched from the provider and recorded on a miss.
// @Tags        Sync
// @Produce     json
// @Param       id     path string true "Connection ID"
// @Param       number path int    true "Pull request number"
// @Success     200 {object} pullRequestResp
// @Failure     400 {object} response.Resp "Invalid number"
// @Failure     404 {object} response.Resp "Pull request not found"
// @Router      /api/v1/connections/{id}/pull-requests/{number} [GET]
func (h *handler) GetPullRequest(c *gin.Context) {
	ctx := c.Request.Context()

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.Error(c, errWrongQuery, nil)
		return
	}

	pr, err := h.uc.GetPullRequest(ctx, middleware.GetScope(c), c.Param("id"), number)
	if err != nil {
		h.l.Errorf(ctx, "uc.GetPullRequest: %v", err)
		response.Error(c, h.mapError(err), nil)
		return
	}

	response.OK(c, newPullRequestResp(pr))
}
