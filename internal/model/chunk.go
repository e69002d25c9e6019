package model

// ChunkRecord is the unit of storage in the pdf_chunks table.
type ChunkRecord struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	PDFID     string    `json:"pdf_id"`
	PDFName   string    `json:"pdf_name"`
	ChunkText string    `json:"chunk_text"`
	Embedding []float32 `json:"-"`
}

// PDFInfo is the distinct (id, name) projection used by listing.
type PDFInfo struct {
	PDFID   string `json:"pdf_id"`
	PDFName string `json:"pdf_name"`
}

type SearchResult struct {
	PDFID     string  `json:"pdf_id"`
	PDFName   string  `json:"pdf_name"`
	ChunkText string  `json:"chunk_text"`
	Distance  float64 `json:"distance"`
}
