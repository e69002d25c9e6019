package model

// DocumentResult reports the outcome for one submitted document.
type DocumentResult struct {
	Success bool   `json:"success"`
	PDFID   string `json:"pdf_id,omitempty"`
	PDFName string `json:"pdf_name"`
	Chunks  int    `json:"chunks,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ProcessingTime struct {
	EmbeddingSeconds float64 `json:"embedding_seconds"`
	InsertionSeconds float64 `json:"insertion_seconds"`
}

// IngestReport accumulates per-document and per-row outcomes for one
// ingestion run. The run counts as successful if at least one document
// made it through.
type IngestReport struct {
	Success        bool             `json:"success"`
	Results        []DocumentResult `json:"results"`
	TotalChunks    int              `json:"total_chunks"`
	RowsInserted   int              `json:"rows_inserted"`
	RowsFailed     int              `json:"rows_failed"`
	ProcessingTime ProcessingTime   `json:"processing_time"`
}
