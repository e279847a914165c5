package cases

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusActive Status = "Active"
	StatusClosed Status = "Closed"
)

// Valid reports whether s is a known case status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// Case is a tracked legal matter owned by a user.
type Case struct {
	ID           string
	UserID       string
	ClientName   string
	CaseNumber   string
	CourtName    string
	Status       Status
	Notes        *string
	Files        []CaseFile
	HearingDates []HearingDate
	CreatedAt    time.Time
}

// HearingDate is a scheduled court date within a case. Date is a plain
// calendar date in YYYY-MM-DD form; Time is a display-only clock time.
type HearingDate struct {
	ID    string
	Date  string
	Time  *string
	Notes *string
}

// CaseFile is a document attached to a case. FileData holds either an inline
// payload (data URI) or a publicly dereferenceable URL; StoragePath is the
// object-store key when the content lives in external storage, empty for
// inline payloads.
type CaseFile struct {
	ID          string
	FileName    string
	FileType    string
	FileData    string
	StoragePath string
	UploadedAt  time.Time
}

// Stored reports whether the file content lives in external object storage.
func (f CaseFile) Stored() bool {
	return f.StoragePath != ""
}

// CaseUpdate carries a partial update to a case. Nil fields are left
// untouched; Notes distinguishes absent from explicitly cleared.
type CaseUpdate struct {
	ClientName *string
	CaseNumber *string
	CourtName  *string
	Status     *Status
	Notes      NullableString
}

// HearingUpdate carries a partial update to a hearing date.
type HearingUpdate struct {
	Date  *string
	Time  NullableString
	Notes NullableString
}

// NullableString tracks JSON field presence so that an absent field and an
// explicit null stay distinguishable through a partial update.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records that the field was present; a JSON null clears it.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// Apply merges the nullable value into dst when the field was present.
func (n NullableString) Apply(dst **string) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
