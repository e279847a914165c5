package cases

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo used when no database is
// configured. Mutations serialize on a mutex; reads return deep copies so
// callers never observe later writes.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Case // userId -> cases
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Case),
	}
}

// ListByUser returns the user's cases, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Case, 0, len(r.data[userID]))
	for _, c := range r.data[userID] {
		out = append(out, cloneCase(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByID returns a case by id for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, caseID string) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return Case{}, ErrNotFound
	}
	return cloneCase(*c), nil
}

// Create stores a new case.
func (r *MemoryRepo) Create(ctx context.Context, c Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.UserID] = append(r.data[c.UserID], cloneCase(c))
	return nil
}

// Update merges the provided fields into the stored case.
func (r *MemoryRepo) Update(ctx context.Context, userID, caseID string, upd CaseUpdate) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return Case{}, ErrNotFound
	}
	if upd.ClientName != nil {
		c.ClientName = *upd.ClientName
	}
	if upd.CaseNumber != nil {
		c.CaseNumber = *upd.CaseNumber
	}
	if upd.CourtName != nil {
		c.CourtName = *upd.CourtName
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	upd.Notes.Apply(&c.Notes)
	return cloneCase(*c), nil
}

// Delete removes the case and everything nested in it. Absent ids are a no-op.
func (r *MemoryRepo) Delete(ctx context.Context, userID, caseID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.data[userID]
	for i := range list {
		if list[i].ID == caseID {
			r.data[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddHearing appends a hearing to the case's hearing set.
func (r *MemoryRepo) AddHearing(ctx context.Context, userID, caseID string, h HearingDate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return ErrNotFound
	}
	c.HearingDates = append(c.HearingDates, cloneHearing(h))
	return nil
}

// UpdateHearing merges fields into a hearing, matching on both caseId and
// hearingId.
func (r *MemoryRepo) UpdateHearing(ctx context.Context, userID, caseID, hearingID string, upd HearingUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return ErrNotFound
	}
	for i := range c.HearingDates {
		if c.HearingDates[i].ID != hearingID {
			continue
		}
		if upd.Date != nil {
			c.HearingDates[i].Date = *upd.Date
		}
		upd.Time.Apply(&c.HearingDates[i].Time)
		upd.Notes.Apply(&c.HearingDates[i].Notes)
		return nil
	}
	return ErrNotFound
}

// DeleteHearing removes a hearing, matching on both caseId and hearingId.
func (r *MemoryRepo) DeleteHearing(ctx context.Context, userID, caseID, hearingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return ErrNotFound
	}
	for i := range c.HearingDates {
		if c.HearingDates[i].ID == hearingID {
			c.HearingDates = append(c.HearingDates[:i], c.HearingDates[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AddFile appends a file reference; insertion order is preserved.
func (r *MemoryRepo) AddFile(ctx context.Context, userID, caseID string, f CaseFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return ErrNotFound
	}
	c.Files = append(c.Files, f)
	return nil
}

// DeleteFile removes a file reference, keeping the order of the rest, and
// returns the removed file so callers can clean up external storage.
func (r *MemoryRepo) DeleteFile(ctx context.Context, userID, caseID, fileID string) (CaseFile, error) {
	if err := ctx.Err(); err != nil {
		return CaseFile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, ok := r.find(userID, caseID)
	if !ok {
		return CaseFile{}, ErrNotFound
	}
	for i := range c.Files {
		if c.Files[i].ID == fileID {
			removed := c.Files[i]
			c.Files = append(c.Files[:i], c.Files[i+1:]...)
			return removed, nil
		}
	}
	return CaseFile{}, ErrNotFound
}

// find returns a pointer into the stored slice; callers hold the lock.
func (r *MemoryRepo) find(userID, caseID string) (*Case, int, bool) {
	list := r.data[userID]
	for i := range list {
		if list[i].ID == caseID {
			return &list[i], i, true
		}
	}
	return nil, 0, false
}

func cloneCase(c Case) Case {
	out := c
	out.Notes = cloneStringPtr(c.Notes)
	out.Files = append([]CaseFile(nil), c.Files...)
	out.HearingDates = make([]HearingDate, 0, len(c.HearingDates))
	for _, h := range c.HearingDates {
		out.HearingDates = append(out.HearingDates, cloneHearing(h))
	}
	return out
}

func cloneHearing(h HearingDate) HearingDate {
	out := h
	out.Time = cloneStringPtr(h.Time)
	out.Notes = cloneStringPtr(h.Notes)
	return out
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ Repo = (*MemoryRepo)(nil)
