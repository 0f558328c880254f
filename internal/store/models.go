package store

import (
	"time"

	"media-intake/internal/intake"
)

// Outcome of a single file within an event.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// FileRecord is one submitted file as stored in the ledger.
type FileRecord struct {
	Position int              `json:"position"`
	Name     string           `json:"name"`
	Type     string           `json:"type"`
	Size     int64            `json:"size"`
	Outcome  Outcome          `json:"outcome"`
	Kind     intake.ErrorKind `json:"kind,omitempty"`
	Detail   string           `json:"detail,omitempty"`
}

// Event is one partitioned batch.
type Event struct {
	ID            string        `json:"id"`
	Origin        intake.Origin `json:"origin"`
	Policy        string        `json:"policy"`
	FileCount     int           `json:"fileCount"`
	AcceptedCount int           `json:"acceptedCount"`
	RejectedCount int           `json:"rejectedCount"`
	AcceptedBytes int64         `json:"acceptedBytes"`
	CreatedAt     time.Time     `json:"createdAt"`
	Files         []FileRecord  `json:"files,omitempty"`
}

// sameFile reports whether two descriptors are indistinguishable.
func sameFile(a, b intake.File) bool {
	return a.Name == b.Name && a.Type == b.Type && a.Size == b.Size
}

// fileRecords lays the result back out in submission order. Accepted and
// rejected each preserve input order and together cover the input, so a
// single merge pass recovers every file's outcome.
func fileRecords(files []intake.File, res intake.Result) []FileRecord {
	records := make([]FileRecord, 0, len(files))
	ai, ri := 0, 0
	for i, f := range files {
		rec := FileRecord{Position: i, Name: f.Name, Type: f.Type, Size: f.Size}
		switch {
		case ai < len(res.Accepted) && sameFile(res.Accepted[ai], f):
			rec.Outcome = OutcomeAccepted
			ai++
		default:
			rec.Outcome = OutcomeRejected
			if ri < len(res.Errors) {
				rec.Kind = res.Errors[ri].Kind
				rec.Detail = res.Errors[ri].Detail
			}
			ri++
		}
		records = append(records, rec)
	}
	return records
}
