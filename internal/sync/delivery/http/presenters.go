package http

import (
	"git-integration/internal/model"
	"git-integration/internal/sync"
	"git-integration/pkg/response"
)

type triggerReq struct {
	Branch       string `json:"branch"`
	PullRequests bool   `json:"pull_requests"`
}

func (r triggerReq) toInput(connectionID string) sync.TriggerInput {
	return sync.TriggerInput{ConnectionID: connectionID, Branch: r.Branch, PullRequests: r.PullRequests}
}

type listReq struct {
	Branch string `form:"branch"`
	State  string `form:"state" binding:"omitempty,oneof=open closed merged"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type commitResp struct {
	SHA         string            `json:"sha"`
	Branch      string            `json:"branch,omitempty"`
	Message     string            `json:"message"`
	AuthorName  string            `json:"author_name"`
	AuthorEmail string            `json:"author_email"`
	URL         string            `json:"url"`
	CommittedAt response.DateTime `json:"committed_at"`
}

func newCommitResp(c model.Commit) commitResp {
	return commitResp{
		SHA:         c.SHA,
		Branch:      c.Branch,
		Message:     c.Message,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		URL:         c.URL,
		CommittedAt: response.DateTime(c.CommittedAt),
	}
}

func newCommitListResp(commits []model.Commit) []commitResp {
	out := make([]commitResp, 0, len(commits))
	for _, c := range commits {
		out = append(out, newCommitResp(c))
	}
	return out
}

type pullRequestResp struct {
	Number       int               `json:"number"`
	Title        string            `json:"title"`
	State        string            `json:"state"`
	SourceBranch string            `json:"source_branch"`
	TargetBranch string            `json:"target_branch"`
	HeadSHA      string            `json:"head_sha"`
	AuthorLogin  string            `json:"author_login"`
	URL          string            `json:"url"`
	CreatedAt    response.DateTime `json:"created_at"`
	UpdatedAt    response.DateTime `json:"updated_at"`
	MergedAt     response.DateTime `json:"merged_at"`
	ClosedAt     response.DateTime `json:"closed_at"`
}

func newPullRequestResp(pr model.PullRequest) pullRequestResp {
	return pullRequestResp{
		Number:       pr.Number,
		Title:        pr.Title,
		State:        string(pr.State),
		SourceBranch: pr.SourceBranch,
		TargetBranch: pr.TargetBranch,
		HeadSHA:      pr.HeadSHA,
		AuthorLogin:  pr.AuthorLogin,
		URL:          pr.URL,
		CreatedAt:    response.DateTime(pr.CreatedAt),
		UpdatedAt:    response.DateTime(pr.UpdatedAt),
		MergedAt:     response.DateTime(pr.MergedAt),
		ClosedAt:     response.DateTime(pr.ClosedAt),
	}
}

func newPullRequestListResp(prs []model.PullRequest) []pullRequestResp {
	out := make([]pullRequestResp, 0, len(prs))
	for _, pr := range prs {
		out = append(out, newPullRequestResp(pr))
	}
	return out
}

type triggerResp struct {
	Branch       string            `json:"branch"`
	Commits      []commitResp      `json:"commits"`
	PullRequests []pullRequestResp `json:"pull_requests"`
}

func newTriggerResp(o sync.TriggerOutput) triggerResp {
	return triggerResp{
		Branch:       o.Branch,
		Commits:      newCommitListResp(o.Commits),
		PullRequests: newPullRequestListResp(o.PullRequests),
	}
}
