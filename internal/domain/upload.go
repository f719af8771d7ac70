package domain

// UploadResult summarizes one ledger upload for the display layer. The
// upload always terminates with a single result; row-level problems are only
// visible through the counters.
type UploadResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	BatchID           string `json:"batch_id,omitempty"`
	RecordsProcessed  int    `json:"records_processed"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
	WriteFailures     int    `json:"write_failures"`
}
