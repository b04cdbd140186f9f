package model

type KeywordExtractInput struct {
	Theme       string
	MaxKeywords int

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
