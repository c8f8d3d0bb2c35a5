package storage

import "time"

// Document represents an indexed report document in the catalog.
type Document struct {
	ID         string // UUID
	Name       string // File name, e.g. "annual_report_2023.md"
	Year       int    // Reporting year derived from the file name, 0 when unknown
	ChunkCount int    // Number of chunks indexed in the vector store
	Hash       string // SHA256 hex string of file content
	IndexedAt  time.Time
}
