package cases

import "time"

// CaseResponse is the outward-facing representation of a case.
type CaseResponse struct {
	ID           string            `json:"id"`
	ClientName   string            `json:"clientName"`
	CaseNumber   string            `json:"caseNumber"`
	CourtName    string            `json:"courtName"`
	Status       Status            `json:"status"`
	Notes        *string           `json:"notes,omitempty"`
	HearingDates []HearingResponse `json:"hearingDates"`
	Files        []FileResponse    `json:"files"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// HearingResponse is the outward-facing representation of a hearing date.
type HearingResponse struct {
	ID    string  `json:"id"`
	Date  string  `json:"date"`
	Time  *string `json:"time,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// FileResponse is the outward-facing representation of a case file.
type FileResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileData   string    `json:"fileData"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ToResponse converts a Case for the HTTP boundary.
func ToResponse(c Case) CaseResponse {
	resp := CaseResponse{
		ID:           c.ID,
		ClientName:   c.ClientName,
		CaseNumber:   c.CaseNumber,
		CourtName:    c.CourtName,
		Status:       c.Status,
		Notes:        c.Notes,
		HearingDates: make([]HearingResponse, 0, len(c.HearingDates)),
		Files:        make([]FileResponse, 0, len(c.Files)),
		CreatedAt:    c.CreatedAt,
	}
	for _, h := range c.HearingDates {
		resp.HearingDates = append(resp.HearingDates, toHearingResponse(h))
	}
	for _, f := range c.Files {
		resp.Files = append(resp.Files, FileResponse{
			ID:         f.ID,
			FileName:   f.FileName,
			FileType:   f.FileType,
			FileData:   f.FileData,
			UploadedAt: f.UploadedAt,
		})
	}
	return resp
}

func toHearingResponse(h HearingDate) HearingResponse {
	return HearingResponse{
		ID:    h.ID,
		Date:  h.Date,
		Time:  h.Time,
		Notes: h.Notes,
	}
}

type createHearingRequest struct {
	Date  string  `json:"date"`
	Time  *string `json:"time"`
	Notes *string `json:"notes"`
}

type createFileRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileData string `json:"fileData"`
}

type createCaseRequest struct {
	ClientName   string                 `json:"clientName"`
	CaseNumber   string                 `json:"caseNumber"`
	CourtName    string                 `json:"courtName"`
	Status       Status                 `json:"status"`
	Notes        *string                `json:"notes"`
	HearingDates []createHearingRequest `json:"hearingDates"`
	Files        []createFileRequest    `json:"files"`
}

type updateCaseRequest struct {
	ClientName *string        `json:"clientName"`
	CaseNumber *string        `json:"caseNumber"`
	CourtName  *string        `json:"courtName"`
	Status     *Status        `json:"status"`
	Notes      NullableString `json:"notes"`
}

type updateHearingRequest struct {
	Date  *string        `json:"date"`
	Time  NullableString `json:"time"`
	Notes NullableString `json:"notes"`
}

type registerFileRequest struct {
	StorageKey string `json:"storageKey"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
}

// fileResultResponse is one item of a batch upload outcome.
type fileResultResponse struct {
	FileName string        `json:"fileName"`
	OK       bool          `json:"ok"`
	File     *FileResponse `json:"file,omitempty"`
	Error    string        `json:"error,omitempty"`
}
