package models

// AnalyzeRequest is the API request for one analysis.
type AnalyzeRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required,min=1,max=12"`
}
