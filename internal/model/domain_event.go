package model

// Domain event types raised for downstream collaborators.
const (
	DomainEventConnectionConnected = "git.connection.connected"
	DomainEventConnectionDeleted   = "git.connection.deleted"
	DomainEventCommitsSynced       = "git.commits.synced"
	DomainEventPullRequestsSynced  = "git.pullrequests.synced"
)

// Environment names recognised in configuration.
const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)
