package openai

import "encoding/json"

const (
	GPT35Turbo = "gpt-3.5-turbo"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// UnmarshalJSON also accepts finishReason.
func (c *Choice) UnmarshalJSON(data []byte) error {
	type alias Choice
	aux := struct {
		*alias
		Camel string `json:"finishReason"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); nil != err {
		return err
	}
	if "" == c.FinishReason {
		c.FinishReason = aux.Camel
	}
	return nil
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// UnmarshalJSON also accepts the camelCase token counters.
func (u *Usage) UnmarshalJSON(data []byte) error {
	type alias Usage
	aux := struct {
		*alias
		Prompt     int64 `json:"promptTokens"`
		Completion int64 `json:"completionTokens"`
		Total      int64 `json:"totalTokens"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); nil != err {
		return err
	}
	if 0 == u.PromptTokens {
		u.PromptTokens = aux.Prompt
	}
	if 0 == u.CompletionTokens {
		u.CompletionTokens = aux.Completion
	}
	if 0 == u.TotalTokens {
		u.TotalTokens = aux.Total
	}
	return nil
}
