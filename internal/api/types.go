// Package api holds the JSON shapes exchanged between the browser-facing
// routes, their callers, and the external backend.
package api

// ProcessTopicRequest is the body of POST /api/process-topic.
type ProcessTopicRequest struct {
	Topic string `json:"topic"`
}

// ProcessTopicResponse carries parallel arrays: Descriptions[i] describes Ideas[i].
type ProcessTopicResponse struct {
	Ideas        []string `json:"ideas"`
	Descriptions []string `json:"descriptions"`
}

// GenerationRequest holds the parameters assembled before a script is
// generated. Either Topic or IdeaTitle names the subject.
type GenerationRequest struct {
	Topic           string `json:"topic,omitempty"`
	IdeaTitle       string `json:"ideaTitle,omitempty"`
	Tone            string `json:"emotional_tone,omitempty"`
	CreatorType     string `json:"creator_type,omitempty"`
	Audience        string `json:"audience_description,omitempty"`
	Accent          string `json:"accent,omitempty"`
	Structure       string `json:"script_structure,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Length          int    `json:"length,omitempty"`
}

// Analysis counts the research material folded into a script.
type Analysis struct {
	EmotionalDepth     string `json:"emotional_depth"`
	ExamplesCount      int    `json:"examples_count"`
	ResearchFactsCount int    `json:"research_facts_count"`
	ProverbsCount      int    `json:"proverbs_count"`
}

// Metrics is the optional structured summary of a script.
type Metrics struct {
	Keywords           []string `json:"keywords"`
	TotalWords         int      `json:"totalWords"`
	VideoLength        int      `json:"videoLength"`
	EmotionalDepth     int      `json:"emotionalDepth"`
	GeneralExamples    int      `json:"generalExamples"`
	Proverbs           int      `json:"proverbs"`
	HistoricalExamples int      `json:"historicalExamples"`
	HistoricalFacts    int      `json:"historicalFacts"`
	ResearchFacts      int      `json:"researchFacts"`
	LawsIncluded       int      `json:"lawsIncluded"`
}

// Section is one entry of a script outline.
type Section struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Words    int    `json:"words"`
}

// ScriptResult is the backend's generated script. It is never modified after
// it is received.
type ScriptResult struct {
	Metrics            *Metrics  `json:"metrics,omitempty"`
	Script             string    `json:"script"`
	Title              string    `json:"title,omitempty"`
	Synopsis           string    `json:"synopsis,omitempty"`
	SourceURLs         []string  `json:"source_urls"`
	Structure          []Section `json:"script_structure,omitempty"`
	Analysis           Analysis  `json:"analysis"`
	EstimatedWordCount int       `json:"estimated_word_count"`
}

// ErrorBody is the JSON error shape every route answers with.
type ErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// CreateOrderRequest asks the backend for a payment order. Amount is in
// rupees; the backend converts to paise.
type CreateOrderRequest struct {
	Currency   string `json:"currency"`
	TargetTier string `json:"target_tier"`
	Amount     int    `json:"amount"`
}

// CreateOrderResponse is the backend's order. Amount is in paise.
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	KeyID    string `json:"key_id"`
	Currency string `json:"currency"`
	Amount   int    `json:"amount"`
}

// Ack is the webhook acknowledgment.
type Ack struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}
