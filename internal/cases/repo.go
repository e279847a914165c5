package cases

import "context"

// Repo defines persistence operations for cases and their nested hearings and
// file references. Every operation is scoped to the owning user; a caseId or
// hearingId that belongs to another user or another case is not reachable.
type Repo interface {
	ListByUser(ctx context.Context, userID string) ([]Case, error)
	GetByID(ctx context.Context, userID, caseID string) (Case, error)
	Create(ctx context.Context, c Case) error
	Update(ctx context.Context, userID, caseID string, upd CaseUpdate) (Case, error)
	// Delete removes the case and all nested hearings and file references.
	// Deleting an absent id is a no-op.
	Delete(ctx context.Context, userID, caseID string) error

	AddHearing(ctx context.Context, userID, caseID string, h HearingDate) error
	UpdateHearing(ctx context.Context, userID, caseID, hearingID string, upd HearingUpdate) error
	DeleteHearing(ctx context.Context, userID, caseID, hearingID string) error

	AddFile(ctx context.Context, userID, caseID string, f CaseFile) error
	DeleteFile(ctx context.Context, userID, caseID, fileID string) (CaseFile, error)
}
