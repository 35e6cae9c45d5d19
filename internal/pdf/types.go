package pdf

// AnalysisResult holds the per-file facts gathered by the Analyzer.
// Immutable once constructed.
type AnalysisResult struct {
	FileName          string  `json:"file_name"`
	FilePath          string  `json:"file_path"`
	FileSizeMB        float64 `json:"file_size_mb"`
	PageCount         int     `json:"page_count"`
	TotalTextLength   int     `json:"total_text_length"`
	ImageCount        int     `json:"total_images"`
	HasForms          bool    `json:"has_forms"`
	IsEncrypted       bool    `json:"is_encrypted"`
	PDFVersion        string  `json:"pdf_version"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	Subject           string  `json:"subject,omitempty"`
	Producer          string  `json:"producer,omitempty"`
	CreationDate      string  `json:"creation_date"`
	ModifiedDate      string  `json:"modified_date,omitempty"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`
}
