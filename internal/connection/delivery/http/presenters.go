package http

import (
	"time"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/pkg/response"
)

type authorizeReq struct {
	ProjectID   string `json:"project_id" binding:"required"`
	Provider    string `json:"provider" binding:"required"`
	RedirectURL string `json:"redirect_url" binding:"required"`
	Repository  string `json:"repository"`
}

func (r authorizeReq) toInput() connection.BeginAuthorizationInput {
	return connection.BeginAuthorizationInput{
		ProjectID:   r.ProjectID,
		Provider:    model.ParseProvider(r.Provider),
		RedirectURL: r.RedirectURL,
		Repository:  r.Repository,
	}
}

type authorizeResp struct {
	AuthorizationURL string            `json:"authorization_url"`
	State            string            `json:"state"`
	ExpiresAt        response.DateTime `json:"expires_at"`
}

func newAuthorizeResp(o connection.BeginAuthorizationOutput) authorizeResp {
	return authorizeResp{
		AuthorizationURL: o.AuthorizationURL,
		State:            o.State,
		ExpiresAt:        response.DateTime(o.ExpiresAt),
	}
}

type callbackReq struct {
	Code  string `form:"code"`
	State string `form:"state"`
}

type createReq struct {
	ProjectID          string     `json:"project_id" binding:"required"`
	Provider           string     `json:"provider" binding:"required"`
	RepositoryFullName string     `json:"repository_full_name"`
	AccessToken        string     `json:"access_token" binding:"required"`
	RefreshToken       string     `json:"refresh_token"`
	TokenExpiry        *time.Time `json:"token_expiry"`
	WebhookEvents      []string   `json:"webhook_events"`
}

func (r createReq) toInput() connection.CreateInput {
	in := connection.CreateInput{
		ProjectID:          r.ProjectID,
		Provider:           model.ParseProvider(r.Provider),
		RepositoryFullName: r.RepositoryFullName,
		AccessToken:        r.AccessToken,
		RefreshToken:       r.RefreshToken,
		WebhookEvents:      toEventKinds(r.WebhookEvents),
	}
	if r.TokenExpiry != nil {
		in.TokenExpiry = *r.TokenExpiry
	}
	return in
}

type updateReq struct {
	RepositoryFullName *string  `json:"repository_full_name"`
	DefaultBranch      *string  `json:"default_branch"`
	WebhookEvents      []string `json:"webhook_events"`
	Active             *bool    `json:"active"`
}

func (r updateReq) toInput(id string) connection.UpdateInput {
	return connection.UpdateInput{
		ID:                 id,
		RepositoryFullName: r.RepositoryFullName,
		DefaultBranch:      r.DefaultBranch,
		WebhookEvents:      toEventKinds(r.WebhookEvents),
		Active:             r.Active,
	}
}

func toEventKinds(in []string) []model.EventKind {
	if in == nil {
		return nil
	}
	out := make([]model.EventKind, 0, len(in))
	for _, s := range in {
		out = append(out, model.EventKind(s))
	}
	return out
}

// connectionResp never carries token material or the webhook secret.
type connectionResp struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id"`
	ProjectID          string            `json:"project_id"`
	Provider           string            `json:"provider"`
	RepositoryName     string            `json:"repository_name"`
	RepositoryFullName string            `json:"repository_full_name"`
	RepositoryURL      string            `json:"repository_url"`
	DefaultBranch      string            `json:"default_branch"`
	TokenExpiry        response.DateTime `json:"token_expiry"`
	WebhookRegistered  bool              `json:"webhook_registered"`
	WebhookEvents      []model.EventKind `json:"webhook_events"`
	Active             bool              `json:"active"`
	LastSyncAt         response.DateTime `json:"last_sync_at"`
	LastSyncCursor     string            `json:"last_sync_cursor"`
	SyncStatus         string            `json:"sync_status"`
	LastSyncError      string            `json:"last_sync_error,omitempty"`
	CreatedAt          response.DateTime `json:"created_at"`
	UpdatedAt          response.DateTime `json:"updated_at"`
}

func newConnectionResp(c model.GitConnection) connectionResp {
	return connectionResp{
		ID:                 c.ID,
		UserID:             c.UserID,
		ProjectID:          c.ProjectID,
		Provider:           string(c.Provider),
		RepositoryName:     c.RepositoryName,
		RepositoryFullName: c.RepositoryFullName,
		RepositoryURL:      c.RepositoryURL,
		DefaultBranch:      c.DefaultBranch,
		TokenExpiry:        response.DateTime(c.TokenExpiry),
		WebhookRegistered:  c.WebhookID != "",
		WebhookEvents:      c.WebhookEvents,
		Active:             c.Active,
		LastSyncAt:         response.DateTime(c.LastSyncAt),
		LastSyncCursor:     c.LastSyncCursor,
		SyncStatus:         string(c.SyncStatus),
		LastSyncError:      c.LastSyncError,
		CreatedAt:          response.DateTime(c.CreatedAt),
		UpdatedAt:          response.DateTime(c.UpdatedAt),
	}
}

type listResp struct {
	Connections []connectionResp `json:"connections"`
	Count       int              `json:"count"`
}

func newListResp(list []model.GitConnection) listResp {
	out := listResp{Connections: make([]connectionResp, 0, len(list)), Count: len(list)}
	for _, c := range list {
		out.Connections = append(out.Connections, newConnectionResp(c))
	}
	return out
}

type repositoryResp struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

type repositoriesResp struct {
	Repositories []repositoryResp `json:"repositories"`
	NextPage     int              `json:"next_page"`
}

func newRepositoriesResp(p provider.RepositoryPage) repositoriesResp {
	out := repositoriesResp{Repositories: make([]repositoryResp, 0, len(p.Items)), NextPage: p.NextPage}
	for _, r := range p.Items {
		out.Repositories = append(out.Repositories, repositoryResp{
			ID: r.ID, Name: r.Name, FullName: r.FullName, URL: r.URL, DefaultBranch: r.DefaultBranch, Private: r.Private,
		})
	}
	return out
}

type branchResp struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

func newBranchesResp(branches []provider.Branch) []branchResp {
	out := make([]branchResp, 0, len(branches))
	for _, b := range branches {
		out = append(out, branchResp{Name: b.Name, SHA: b.SHA})
	}
	return out
}
