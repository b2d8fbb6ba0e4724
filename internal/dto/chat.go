package dto

type ChatRequest struct {
	Message string `json:"message" example:"What is compound interest?"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}
