package model

// CallerIdentity is the per-request identity resolved from a verified
// bearer token. It is the only input that scopes metadata and blob access;
// it is never persisted.
type CallerIdentity struct {
	UserID string
	Email  string
}
