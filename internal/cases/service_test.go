package cases

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeStore records saves and deletes without touching disk.
type fakeStore struct {
	saved   []string
	deleted []string
	saveErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saveErr: make(map[string]error)}
}

func (f *fakeStore) Save(ctx context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	_ = ctx
	if err := f.saveErr[fileName]; err != nil {
		return "", 0, "", err
	}
	data, _ := io.ReadAll(r)
	key := userID + "/" + fileName
	f.saved = append(f.saved, key)
	return key, int64(len(data)), "application/pdf", nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "/api/v1/files/" + key
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return &Service{Repo: NewMemoryRepo(), Store: store}, store
}

func validInput() CreateCaseInput {
	return CreateCaseInput{
		ClientName:   "John Smith",
		CaseNumber:   "CN-100",
		CourtName:    "District Court",
		HearingDates: []HearingDate{{Date: "2026-03-12"}},
	}
}

func TestCreateCaseValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateCaseInput)
	}{
		{"missing client name", func(in *CreateCaseInput) { in.ClientName = "  " }},
		{"missing case number", func(in *CreateCaseInput) { in.CaseNumber = "" }},
		{"missing court name", func(in *CreateCaseInput) { in.CourtName = "" }},
		{"no hearing dates", func(in *CreateCaseInput) { in.HearingDates = nil }},
		{"bad status", func(in *CreateCaseInput) { in.Status = "Pending" }},
		{"bad hearing date", func(in *CreateCaseInput) { in.HearingDates[0].Date = "12/03/2026" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.CreateCase(ctx, "u1", in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateCaseDefaultsAndIDs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	got, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("expected default status Active, got %s", got.Status)
	}
	if got.ID == "" || got.HearingDates[0].ID == "" {
		t.Fatalf("expected generated ids")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created timestamp")
	}

	stored, err := svc.Get(ctx, "u1", got.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if stored.ClientName != "John Smith" {
		t.Fatalf("stored case mismatch: %s", stored.ClientName)
	}
}

func TestUpdateCaseRejectsEmptyProvidedFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := "  "
	if _, err := svc.UpdateCase(ctx, "u1", c.ID, CaseUpdate{ClientName: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty client name, got %v", err)
	}

	badStatus := Status("Archived")
	if _, err := svc.UpdateCase(ctx, "u1", c.ID, CaseUpdate{Status: &badStatus}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad status, got %v", err)
	}
}

func TestDeleteCaseIdempotentAndCleansBlobStore(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Repo.AddFile(ctx, "u1", c.ID, CaseFile{ID: "f1", FileName: "a.pdf", StoragePath: "u1/a.pdf"}); err != nil {
		t.Fatalf("add file: %v", err)
	}
	if err := svc.Repo.AddFile(ctx, "u1", c.ID, CaseFile{ID: "f2", FileName: "inline.txt", FileData: "data:text/plain;base64,aGk="}); err != nil {
		t.Fatalf("add file: %v", err)
	}

	if err := svc.DeleteCase(ctx, "u1", c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "u1/a.pdf" {
		t.Fatalf("expected only the stored file cleaned up, got %v", store.deleted)
	}

	// Deleting a gone case is fine.
	if err := svc.DeleteCase(ctx, "u1", c.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := svc.DeleteCase(ctx, "u1", "never-existed"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func uploadOf(name, content string) FileUpload {
	return FileUpload{
		FileName: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestUploadFilesIsolatesFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	big := uploadOf("big.pdf", "x")
	big.Size = MaxFileSizeBytes + 1

	results, err := svc.UploadFiles(ctx, "u1", c.ID, []FileUpload{
		uploadOf("one.pdf", "first"),
		big,
		uploadOf("three.pdf", "third"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Failed() || results[2].Failed() {
		t.Fatalf("expected first and third to succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if !results[1].Failed() || !errors.Is(results[1].Err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge for big.pdf, got %v", results[1].Err)
	}

	got, err := svc.Get(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Files) != 2 || got.Files[0].FileName != "one.pdf" || got.Files[1].FileName != "three.pdf" {
		t.Fatalf("expected [one.pdf three.pdf] attached, got %v", got.Files)
	}
}

func TestUploadFilesUnknownCase(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UploadFiles(context.Background(), "u1", "missing", []FileUpload{uploadOf("a.pdf", "x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterStoredFileValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.RegisterStoredFile(ctx, "u1", c.ID, "", "a.pdf", "application/pdf"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty key, got %v", err)
	}

	f, err := svc.RegisterStoredFile(ctx, "u1", c.ID, "case-files/u1/a.pdf", "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !f.Stored() {
		t.Fatalf("expected stored file")
	}
	if f.FileData == "" {
		t.Fatalf("expected public url in FileData")
	}
}

func TestDeleteFileCleansBlobStore(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f, err := svc.RegisterStoredFile(ctx, "u1", c.ID, "case-files/u1/a.pdf", "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.DeleteFile(ctx, "u1", c.ID, f.ID); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "case-files/u1/a.pdf" {
		t.Fatalf("expected blob cleanup, got %v", store.deleted)
	}

	// Repeated delete is a no-op and touches the blob store only once.
	if err := svc.DeleteFile(ctx, "u1", c.ID, f.ID); err != nil {
		t.Fatalf("repeated delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected no further blob deletes, got %v", store.deleted)
	}
	if err := svc.DeleteFile(ctx, "u1", c.ID, "never-existed"); err != nil {
		t.Fatalf("delete absent file: %v", err)
	}
}

func TestDeleteHearingIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	hearingID := c.HearingDates[0].ID

	if err := svc.DeleteHearing(ctx, "u1", c.ID, hearingID); err != nil {
		t.Fatalf("delete hearing: %v", err)
	}
	if err := svc.DeleteHearing(ctx, "u1", c.ID, hearingID); err != nil {
		t.Fatalf("repeated delete: %v", err)
	}
	if err := svc.DeleteHearing(ctx, "u1", c.ID, "never-existed"); err != nil {
		t.Fatalf("delete absent hearing: %v", err)
	}
}

func TestAddHearingValidatesDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.CreateCase(ctx, "u1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddHearing(ctx, "u1", c.ID, HearingDate{Date: "tomorrow"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	h, err := svc.AddHearing(ctx, "u1", c.ID, HearingDate{Date: "2026-04-01"})
	if err != nil {
		t.Fatalf("add hearing: %v", err)
	}
	if h.ID == "" {
		t.Fatalf("expected generated hearing id")
	}
}
