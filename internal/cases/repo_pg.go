package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres. Cases and hearing dates live in
// separate tables; file references are a jsonb column on the case row.
// Updates are plain last-write-wins; no version check is performed.
type PGRepo struct {
	DB *sql.DB
}

const caseColumns = `id, user_id, client_name, case_number, court_name, status, notes, files, created_at`

// fileRecord is the jsonb representation of a CaseFile.
type fileRecord struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	FileData    string    `json:"fileData"`
	StoragePath string    `json:"storagePath,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ListByUser returns the user's cases with hearings attached, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Case, error) {
	const query = `
SELECT ` + caseColumns + `
FROM cases
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachHearings(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single case with its hearings.
func (r *PGRepo) GetByID(ctx context.Context, userID, caseID string) (Case, error) {
	const query = `
SELECT ` + caseColumns + `
FROM cases
WHERE user_id = $1 AND id = $2`

	row := r.DB.QueryRowContext(ctx, query, userID, caseID)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, err
	}
	list := []Case{c}
	if err := r.attachHearings(ctx, list); err != nil {
		return Case{}, err
	}
	return list[0], nil
}

// Create inserts the case and its hearing dates in one transaction.
func (r *PGRepo) Create(ctx context.Context, c Case) error {
	filesJSON, err := marshalFiles(c.Files)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertCase = `
INSERT INTO cases (id, user_id, client_name, case_number, court_name, status, notes, files, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insertCase,
		c.ID, c.UserID, c.ClientName, c.CaseNumber, c.CourtName, string(c.Status),
		nullString(c.Notes), filesJSON, c.CreatedAt,
	); err != nil {
		return err
	}

	const insertHearing = `
INSERT INTO hearing_dates (id, case_id, date, time, notes)
VALUES ($1, $2, $3, $4, $5)`
	for _, h := range c.HearingDates {
		if _, err := tx.ExecContext(ctx, insertHearing,
			h.ID, c.ID, h.Date, nullString(h.Time), nullString(h.Notes),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update merges only the provided fields and returns the updated case.
func (r *PGRepo) Update(ctx context.Context, userID, caseID string, upd CaseUpdate) (Case, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, val)
	}
	if upd.ClientName != nil {
		add("client_name", *upd.ClientName)
	}
	if upd.CaseNumber != nil {
		add("case_number", *upd.CaseNumber)
	}
	if upd.CourtName != nil {
		add("court_name", *upd.CourtName)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Notes.Set {
		add("notes", nullString(upd.Notes.Value))
	}

	if len(sets) > 0 {
		query := fmt.Sprintf(
			"UPDATE cases SET %s WHERE user_id = $%d AND id = $%d",
			strings.Join(sets, ", "), len(args)+1, len(args)+2,
		)
		args = append(args, userID, caseID)
		res, err := r.DB.ExecContext(ctx, query, args...)
		if err != nil {
			return Case{}, err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return Case{}, ErrNotFound
		}
	}

	return r.GetByID(ctx, userID, caseID)
}

// Delete removes the case and its hearings. The store guarantees no cascade,
// so hearings go first. Absent ids are a no-op.
func (r *PGRepo) Delete(ctx context.Context, userID, caseID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const deleteHearings = `
DELETE FROM hearing_dates
WHERE case_id IN (SELECT id FROM cases WHERE id = $1 AND user_id = $2)`
	if _, err := tx.ExecContext(ctx, deleteHearings, caseID, userID); err != nil {
		return err
	}

	const deleteCase = `DELETE FROM cases WHERE id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, deleteCase, caseID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// AddHearing appends a hearing to a case the user owns.
func (r *PGRepo) AddHearing(ctx context.Context, userID, caseID string, h HearingDate) error {
	const query = `
INSERT INTO hearing_dates (id, case_id, date, time, notes)
SELECT $1, id, $3, $4, $5
FROM cases
WHERE id = $2 AND user_id = $6`

	res, err := r.DB.ExecContext(ctx, query,
		h.ID, caseID, h.Date, nullString(h.Time), nullString(h.Notes), userID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateHearing merges fields into a hearing. The lookup filters on both the
// hearing id and the owning case so ids from other cases are unreachable.
func (r *PGRepo) UpdateHearing(ctx context.Context, userID, caseID, hearingID string, upd HearingUpdate) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 6)

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, val)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Time.Set {
		add("time", nullString(upd.Time.Value))
	}
	if upd.Notes.Set {
		add("notes", nullString(upd.Notes.Value))
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
UPDATE hearing_dates SET %s
WHERE id = $%d AND case_id = $%d
  AND case_id IN (SELECT id FROM cases WHERE id = $%d AND user_id = $%d)`,
		strings.Join(sets, ", "), len(args)+1, len(args)+2, len(args)+2, len(args)+3,
	)
	args = append(args, hearingID, caseID, userID)

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHearing removes a hearing scoped to its case.
func (r *PGRepo) DeleteHearing(ctx context.Context, userID, caseID, hearingID string) error {
	const query = `
DELETE FROM hearing_dates
WHERE id = $1 AND case_id = $2
  AND case_id IN (SELECT id FROM cases WHERE id = $2 AND user_id = $3)`

	res, err := r.DB.ExecContext(ctx, query, hearingID, caseID, userID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFile appends a file reference to the case's jsonb file list.
func (r *PGRepo) AddFile(ctx context.Context, userID, caseID string, f CaseFile) error {
	entry, err := json.Marshal(toFileRecord(f))
	if err != nil {
		return err
	}

	const query = `
UPDATE cases
SET files = files || $1::jsonb
WHERE id = $2 AND user_id = $3`

	res, err := r.DB.ExecContext(ctx, query, string(entry), caseID, userID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFile removes one file reference, preserving the order of the rest.
func (r *PGRepo) DeleteFile(ctx context.Context, userID, caseID, fileID string) (CaseFile, error) {
	c, err := r.GetByID(ctx, userID, caseID)
	if err != nil {
		return CaseFile{}, err
	}

	removedIdx := -1
	for i := range c.Files {
		if c.Files[i].ID == fileID {
			removedIdx = i
			break
		}
	}
	if removedIdx < 0 {
		return CaseFile{}, ErrNotFound
	}
	removed := c.Files[removedIdx]
	remaining := append(append([]CaseFile(nil), c.Files[:removedIdx]...), c.Files[removedIdx+1:]...)

	filesJSON, err := marshalFiles(remaining)
	if err != nil {
		return CaseFile{}, err
	}

	const query = `UPDATE cases SET files = $1 WHERE id = $2 AND user_id = $3`
	if _, err := r.DB.ExecContext(ctx, query, filesJSON, caseID, userID); err != nil {
		return CaseFile{}, err
	}
	return removed, nil
}

// attachHearings loads hearing rows for the given cases in one query and
// groups them by case id, keeping insertion order.
func (r *PGRepo) attachHearings(ctx context.Context, list []Case) error {
	if len(list) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(list))
	args := make([]any, 0, len(list))
	for i, c := range list {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, c.ID)
	}

	query := fmt.Sprintf(`
SELECT id, case_id, date, time, notes
FROM hearing_dates
WHERE case_id IN (%s)
ORDER BY inserted_seq`, strings.Join(placeholders, ", "))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byCase := make(map[string][]HearingDate, len(list))
	for rows.Next() {
		var h HearingDate
		var caseID string
		var hTime, hNotes sql.NullString
		if err := rows.Scan(&h.ID, &caseID, &h.Date, &hTime, &hNotes); err != nil {
			return err
		}
		if hTime.Valid {
			h.Time = &hTime.String
		}
		if hNotes.Valid {
			h.Notes = &hNotes.String
		}
		byCase[caseID] = append(byCase[caseID], h)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range list {
		list[i].HearingDates = byCase[list[i].ID]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (Case, error) {
	var c Case
	var status string
	var notes sql.NullString
	var filesJSON []byte
	if err := row.Scan(
		&c.ID, &c.UserID, &c.ClientName, &c.CaseNumber, &c.CourtName,
		&status, &notes, &filesJSON, &c.CreatedAt,
	); err != nil {
		return Case{}, err
	}
	c.Status = Status(status)
	if notes.Valid {
		c.Notes = &notes.String
	}

	if len(filesJSON) > 0 {
		var records []fileRecord
		if err := json.Unmarshal(filesJSON, &records); err != nil {
			return Case{}, fmt.Errorf("decode files column: %w", err)
		}
		c.Files = make([]CaseFile, 0, len(records))
		for _, rec := range records {
			c.Files = append(c.Files, CaseFile{
				ID:          rec.ID,
				FileName:    rec.FileName,
				FileType:    rec.FileType,
				FileData:    rec.FileData,
				StoragePath: rec.StoragePath,
				UploadedAt:  rec.UploadedAt,
			})
		}
	}
	return c, nil
}

func toFileRecord(f CaseFile) fileRecord {
	return fileRecord{
		ID:          f.ID,
		FileName:    f.FileName,
		FileType:    f.FileType,
		FileData:    f.FileData,
		StoragePath: f.StoragePath,
		UploadedAt:  f.UploadedAt,
	}
}

func marshalFiles(files []CaseFile) (string, error) {
	records := make([]fileRecord, 0, len(files))
	for _, f := range files {
		records = append(records, toFileRecord(f))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode files column: %w", err)
	}
	return string(data), nil
}

var _ Repo = (*PGRepo)(nil)

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
