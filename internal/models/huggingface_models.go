package models

type (
	SentimentAnalysisRequest struct {
		Text       string `json:"text"`
		Truncation bool   `json:"truncation"`
	}

	// SentimentAnalysisResponse mirrors the inference endpoint's
	// return_all_scores shape: one list of label scores per input.
	SentimentAnalysisResponse [][]LabelScore
)
