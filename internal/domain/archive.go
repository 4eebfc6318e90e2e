package domain

import "time"

// ExportedFile is one DATEV file produced by an export run and kept in the archive.
type ExportedFile struct {
	ID          string
	RunID       string
	Kind        RecordKind
	Month       string
	FromMonth   string
	FileName    string
	Checksum    string
	RecordCount int
	CreatedAt   time.Time
	Records     []Record
}

// ArchiveFilter narrows archive listings.
type ArchiveFilter struct {
	Kind   RecordKind
	Month  string
	Limit  int
	Offset int
}
