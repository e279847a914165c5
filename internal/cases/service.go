package cases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"casetrack-backend/internal/shared/metrics"
	"casetrack-backend/internal/shared/storage/object"
	"casetrack-backend/internal/shared/telemetry"
)

// MaxFileSizeBytes is the per-file attachment limit.
const MaxFileSizeBytes = 50 << 20 // 50MB

// Service contains business logic for cases. Validation happens here, before
// anything reaches the repository.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// CreateCaseInput is the validated boundary input for a new case.
type CreateCaseInput struct {
	ClientName   string
	CaseNumber   string
	CourtName    string
	Status       Status
	Notes        *string
	HearingDates []HearingDate
	Files        []CaseFile
}

// CreateCase validates the input, assigns ids and timestamps, and persists
// the case. At least one hearing date is required at this boundary.
func (s *Service) CreateCase(ctx context.Context, userID string, in CreateCaseInput) (Case, error) {
	if strings.TrimSpace(in.ClientName) == "" {
		return Case{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.CaseNumber) == "" {
		return Case{}, fmt.Errorf("%w: case number is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.CourtName) == "" {
		return Case{}, fmt.Errorf("%w: court name is required", ErrInvalidInput)
	}
	if len(in.HearingDates) == 0 {
		return Case{}, fmt.Errorf("%w: at least one hearing date is required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return Case{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}

	now := time.Now().UTC()
	c := Case{
		ID:         uuid.NewString(),
		UserID:     userID,
		ClientName: in.ClientName,
		CaseNumber: in.CaseNumber,
		CourtName:  in.CourtName,
		Status:     in.Status,
		Notes:      in.Notes,
		CreatedAt:  now,
	}

	for _, h := range in.HearingDates {
		if err := validateHearingDate(h.Date); err != nil {
			return Case{}, err
		}
		h.ID = uuid.NewString()
		c.HearingDates = append(c.HearingDates, h)
	}
	for _, f := range in.Files {
		f.ID = uuid.NewString()
		if f.UploadedAt.IsZero() {
			f.UploadedAt = now
		}
		c.Files = append(c.Files, f)
	}

	if err := s.Repo.Create(ctx, c); err != nil {
		return Case{}, err
	}
	metrics.IncCasesCreated()
	return c, nil
}

// UpdateCase merges the provided fields. Provided names must stay non-empty.
func (s *Service) UpdateCase(ctx context.Context, userID, caseID string, upd CaseUpdate) (Case, error) {
	if upd.ClientName != nil && strings.TrimSpace(*upd.ClientName) == "" {
		return Case{}, fmt.Errorf("%w: client name cannot be empty", ErrInvalidInput)
	}
	if upd.CaseNumber != nil && strings.TrimSpace(*upd.CaseNumber) == "" {
		return Case{}, fmt.Errorf("%w: case number cannot be empty", ErrInvalidInput)
	}
	if upd.CourtName != nil && strings.TrimSpace(*upd.CourtName) == "" {
		return Case{}, fmt.Errorf("%w: court name cannot be empty", ErrInvalidInput)
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return Case{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *upd.Status)
	}
	return s.Repo.Update(ctx, userID, caseID, upd)
}

// DeleteCase removes the case, its hearings, and its file references, then
// best-effort deletes externally stored file content.
func (s *Service) DeleteCase(ctx context.Context, userID, caseID string) error {
	c, err := s.Repo.GetByID(ctx, userID, caseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil // idempotent
		}
		return err
	}

	if err := s.Repo.Delete(ctx, userID, caseID); err != nil {
		return err
	}
	metrics.IncCasesDeleted()

	for _, f := range c.Files {
		if !f.Stored() || s.Store == nil {
			continue
		}
		if err := s.Store.Delete(ctx, f.StoragePath); err != nil {
			telemetry.Error("cases.file.cleanup_failed", map[string]any{
				"case_id": caseID,
				"file_id": f.ID,
				"key":     f.StoragePath,
				"err":     err.Error(),
			})
		}
	}
	return nil
}

// AddHearing validates and appends a hearing date.
func (s *Service) AddHearing(ctx context.Context, userID, caseID string, h HearingDate) (HearingDate, error) {
	if err := validateHearingDate(h.Date); err != nil {
		return HearingDate{}, err
	}
	h.ID = uuid.NewString()
	if err := s.Repo.AddHearing(ctx, userID, caseID, h); err != nil {
		return HearingDate{}, err
	}
	return h, nil
}

// UpdateHearing merges the provided hearing fields.
func (s *Service) UpdateHearing(ctx context.Context, userID, caseID, hearingID string, upd HearingUpdate) error {
	if upd.Date != nil {
		if err := validateHearingDate(*upd.Date); err != nil {
			return err
		}
	}
	return s.Repo.UpdateHearing(ctx, userID, caseID, hearingID, upd)
}

// DeleteHearing removes a hearing scoped to its case. Deleting an absent
// hearing is a no-op.
func (s *Service) DeleteHearing(ctx context.Context, userID, caseID, hearingID string) error {
	if err := s.Repo.DeleteHearing(ctx, userID, caseID, hearingID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil // idempotent
		}
		return err
	}
	return nil
}

// FileUpload is one item of a multi-file attachment batch.
type FileUpload struct {
	FileName string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FileResult reports the outcome for one uploaded file. Err is nil on
// success, in which case File holds the attached reference.
type FileResult struct {
	FileName string
	File     *CaseFile
	Err      error
}

// Failed reports whether this item failed.
func (r FileResult) Failed() bool { return r.Err != nil }

// UploadFiles transfers each file to the object store and appends the
// successful ones to the case in their original relative order. One file's
// failure never aborts the others; each item's outcome is reported
// individually.
func (s *Service) UploadFiles(ctx context.Context, userID, caseID string, uploads []FileUpload) ([]FileResult, error) {
	if _, err := s.Repo.GetByID(ctx, userID, caseID); err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(uploads))
	for _, up := range uploads {
		results = append(results, s.uploadOne(ctx, userID, caseID, up))
	}
	return results, nil
}

func (s *Service) uploadOne(ctx context.Context, userID, caseID string, up FileUpload) FileResult {
	res := FileResult{FileName: up.FileName}

	if up.Size > MaxFileSizeBytes {
		metrics.IncFilesRejected()
		res.Err = fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, up.FileName, up.Size, MaxFileSizeBytes)
		return res
	}

	body, err := up.Open()
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", up.FileName, err)
		return res
	}
	defer body.Close()

	start := time.Now()
	key, _, mimeType, err := s.Store.Save(ctx, userID, up.FileName, body)
	if err != nil {
		res.Err = fmt.Errorf("store %s: %w", up.FileName, err)
		return res
	}
	metrics.ObserveUploadDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)

	f := CaseFile{
		ID:          uuid.NewString(),
		FileName:    up.FileName,
		FileType:    mimeType,
		FileData:    s.Store.PublicURL(key),
		StoragePath: key,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.Repo.AddFile(ctx, userID, caseID, f); err != nil {
		res.Err = fmt.Errorf("attach %s: %w", up.FileName, err)
		return res
	}
	metrics.IncFilesUploaded()

	res.File = &f
	return res
}

// RegisterStoredFile attaches an object that was uploaded directly to the
// blob store (presign flow) as a case file.
func (s *Service) RegisterStoredFile(ctx context.Context, userID, caseID, storageKey, fileName, fileType string) (CaseFile, error) {
	if strings.TrimSpace(storageKey) == "" {
		return CaseFile{}, fmt.Errorf("%w: storage key is required", ErrInvalidInput)
	}
	if strings.TrimSpace(fileName) == "" {
		return CaseFile{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	f := CaseFile{
		ID:          uuid.NewString(),
		FileName:    fileName,
		FileType:    fileType,
		FileData:    s.Store.PublicURL(storageKey),
		StoragePath: storageKey,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.Repo.AddFile(ctx, userID, caseID, f); err != nil {
		return CaseFile{}, err
	}
	return f, nil
}

// DeleteFile removes the reference and best-effort deletes stored content.
// Deleting an absent file is a no-op.
func (s *Service) DeleteFile(ctx context.Context, userID, caseID, fileID string) error {
	removed, err := s.Repo.DeleteFile(ctx, userID, caseID, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil // idempotent
		}
		return err
	}
	if removed.Stored() && s.Store != nil {
		if err := s.Store.Delete(ctx, removed.StoragePath); err != nil {
			telemetry.Error("cases.file.cleanup_failed", map[string]any{
				"case_id": caseID,
				"file_id": fileID,
				"key":     removed.StoragePath,
				"err":     err.Error(),
			})
		}
	}
	return nil
}

// List returns the user's cases.
func (s *Service) List(ctx context.Context, userID string) ([]Case, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Get returns one case.
func (s *Service) Get(ctx context.Context, userID, caseID string) (Case, error) {
	return s.Repo.GetByID(ctx, userID, caseID)
}

func validateHearingDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: hearing date must be YYYY-MM-DD, got %q", ErrInvalidInput, date)
	}
	return nil
}
