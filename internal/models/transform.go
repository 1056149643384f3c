package models

type TransformRequest struct {
	TemplateID string `json:"template_id"`
	ChildID    string `json:"child_id,omitempty"`
	Text       string `json:"text"`
}

type TransformResponse struct {
	Accepted bool   `json:"accepted"`
	Result   string `json:"result"`
}

// ImportResponse carries text extracted from an uploaded document.
type ImportResponse struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

type TranscriptionResponse struct {
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
}
