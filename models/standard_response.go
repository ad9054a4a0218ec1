package models

// StandardResponse is the uniform HTTP response envelope.
type StandardResponse struct {
	Data         interface{} `json:"data"`
	Error        string      `json:"error"`
	ErrorMessage string      `json:"error_message"`
}

// AckResponse acknowledges an accepted webhook before processing starts.
type AckResponse struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"message_id,omitempty"`
}

// ExportEntry is one downloadable artifact in the exports listing.
type ExportEntry struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	ModifiedAt string `json:"modified_at"`
}
