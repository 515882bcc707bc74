package llm

// This file defines the wire types for the completion gateway. The structure
// follows the OpenAI Chat Completions API specification, which OpenRouter and
// most hosted providers expose as a unified endpoint.

// CompletionRequest represents the request payload sent to the provider.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

// Message represents a single message in the conversation history.
// Content is either a plain string or []ContentPart for multi-modal turns.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is used for multi-modal inputs, combining different types of content.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL specifies the URL or base64 data URI of an image.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a plain-text message.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// MultiPartMessage builds a text + inline image message. The image is passed
// as a data URI so the provider never needs to reach back into this service.
func MultiPartMessage(role, text, dataURI string) Message {
	return Message{
		Role: role,
		Content: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}},
		},
	}
}

// completionResponse is the provider's response body.
type completionResponse struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int             `json:"index"`
	Message      responseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the normalized outcome of one completion call. Failures are
// carried in-band: Content begins with the ErrorPrefix sentinel and the call
// itself returns no Go error. Callers branch on IsError.
type Result struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// ErrorPrefix is the in-band error sentinel on Result.Content.
const ErrorPrefix = "Error: "

// IsError reports whether the result carries the error sentinel.
func (r *Result) IsError() bool {
	return len(r.Content) >= len(ErrorPrefix) && r.Content[:len(ErrorPrefix)] == ErrorPrefix
}
