package llm

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/mkowalski/newsreel/internal/httpclient"
)

// Provider configurations

func DeepseekConfig() *ProviderConfig {
	return &ProviderConfig{
		Name:            "deepseek",
		Endpoint:        "https://api.deepseek.com/chat/completions",
		APIKey:          os.Getenv("DEEPSEEK_API_KEY"),
		Model:           getEnvOr("DEEPSEEK_MODEL", "deepseek-chat"),
		AuthHeader:      "Authorization",
		AuthPrefix:      "Bearer ",
		BuildBody:       buildOpenAIBody, // Deepseek uses OpenAI-compatible API
		ParseResponse:   parseOpenAIResponse,
		ParseStreamLine: parseOpenAIStream,
	}
}

func OpenAIConfig() *ProviderConfig {
	return &ProviderConfig{
		Name:            "openai",
		Endpoint:        "https://api.openai.com/v1/chat/completions",
		APIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:           getEnvOr("OPENAI_MODEL", "gpt-4o"),
		AuthHeader:      "Authorization",
		AuthPrefix:      "Bearer ",
		BuildBody:       buildOpenAIBody,
		ParseResponse:   parseOpenAIResponse,
		ParseStreamLine: parseOpenAIStream,
	}
}

func GeminiConfig() *ProviderConfig {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	model := getEnvOr("GEMINI_MODEL", "gemini-2.5-flash")

	base := "https://generativelanguage.googleapis.com/v1beta/models/" + model

	return &ProviderConfig{
		Name:     "gemini",
		Endpoint: base + ":generateContent",
		// Gemini selects streaming by URL, not a body flag
		StreamEndpoint: base + ":streamGenerateContent?alt=sse",
		APIKey:         apiKey,
		Model:          model,
		// x-goog-api-key header keeps the key out of URLs and logs
		AuthHeader:      "x-goog-api-key",
		AuthPrefix:      "",
		BuildBody:       buildGeminiBody,
		ParseResponse:   parseGeminiResponse,
		ParseStreamLine: parseGeminiStream,
	}
}

func ClaudeConfig() *ProviderConfig {
	return &ProviderConfig{
		Name:       "claude",
		Endpoint:   "https://api.anthropic.com/v1/messages",
		APIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		Model:      getEnvOr("CLAUDE_MODEL", "claude-sonnet-4-5-20250929"),
		AuthHeader: "x-api-key",
		AuthPrefix: "",
		ExtraHeaders: map[string]string{
			"anthropic-version": "2023-06-01",
		},
		BuildBody:       buildClaudeBody,
		ParseResponse:   parseClaudeResponse,
		ParseStreamLine: parseClaudeStream,
	}
}

func OllamaConfig() *ProviderConfig {
	endpoint := os.Getenv("OLLAMA_HOST")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}

	// Auto-detect model if not specified
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = detectOllamaModel(endpoint)
	}

	return &ProviderConfig{
		Name:            "ollama",
		Endpoint:        endpoint + "/api/generate",
		Model:           model,
		AuthHeader:      "", // No auth needed
		BuildBody:       buildOllamaBody,
		ParseResponse:   parseOllamaResponse,
		ParseStreamLine: parseOllamaStream,
	}
}

// detectOllamaModel queries Ollama for available models and picks one
func detectOllamaModel(endpoint string) string {
	resp, err := httpclient.Default().Get(endpoint + "/api/tags")
	if err != nil {
		return "" // Will mark provider as unavailable
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return ""
	}

	if len(tags.Models) == 0 {
		return ""
	}

	// Prefer instruct models for better long-form generation
	for _, m := range tags.Models {
		if strings.Contains(strings.ToLower(m.Name), "instruct") {
			return m.Name
		}
	}

	// Fall back to first available model
	return tags.Models[0].Name
}

// Body builders

func buildOpenAIBody(cfg *ProviderConfig, req Request) map[string]any {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 4096),
		"messages":   messages,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	return body
}

func buildGeminiBody(cfg *ProviderConfig, req Request) map[string]any {
	contents := []map[string]any{
		{"role": "user", "parts": []map[string]string{{"text": req.UserPrompt}}},
	}

	genConfig := map[string]any{
		"maxOutputTokens": maxTokensOr(req.MaxTokens, 4096),
	}
	if req.Temperature > 0 {
		genConfig["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		genConfig["topP"] = req.TopP
	}
	if req.TopK > 0 {
		genConfig["topK"] = req.TopK
	}

	body := map[string]any{
		"contents":         contents,
		"generationConfig": genConfig,
	}

	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}

	return body
}

func buildClaudeBody(cfg *ProviderConfig, req Request) map[string]any {
	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 4096),
		"messages":   []map[string]string{{"role": "user", "content": req.UserPrompt}},
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	if req.TopK > 0 {
		body["top_k"] = req.TopK
	}
	return body
}

func buildOllamaBody(cfg *ProviderConfig, req Request) map[string]any {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	options := map[string]any{
		"num_predict": maxTokensOr(req.MaxTokens, 4096),
	}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		options["top_p"] = req.TopP
	}
	if req.TopK > 0 {
		options["top_k"] = req.TopK
	}

	return map[string]any{
		"model":   cfg.Model,
		"prompt":  prompt,
		"options": options,
		"stream":  false, // Overridden by GenerateStream
	}
}

// Response parsers

func parseOpenAIResponse(body []byte) (string, string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, resp.Model, nil
	}
	return "", resp.Model, nil
}

func parseGeminiResponse(body []byte) (string, string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		ModelVersion string `json:"modelVersion"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		return resp.Candidates[0].Content.Parts[0].Text, resp.ModelVersion, nil
	}
	return "", resp.ModelVersion, nil
}

func parseClaudeResponse(body []byte) (string, string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	var texts []string
	for _, c := range resp.Content {
		if c.Type == "text" {
			texts = append(texts, c.Text)
		}
	}
	return strings.Join(texts, "\n\n"), resp.Model, nil
}

func parseOllamaResponse(body []byte) (string, string, error) {
	var resp struct {
		Response string `json:"response"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	return resp.Response, resp.Model, nil
}

// Stream parsers

func parseOpenAIStream(line string, state *StreamState) (string, bool) {
	data, ok := parseSSEData(line)
	if !ok {
		return "", false
	}
	if data == "[DONE]" {
		return "", true
	}

	var event struct {
		Model   string `json:"model"`
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return "", false
	}

	if state.Model == "" && event.Model != "" {
		state.Model = event.Model
	}

	if len(event.Choices) > 0 {
		choice := event.Choices[0]
		if choice.FinishReason == "stop" || choice.FinishReason == "length" {
			return "", true
		}
		return choice.Delta.Content, false
	}
	return "", false
}

func parseGeminiStream(line string, state *StreamState) (string, bool) {
	data, ok := parseSSEData(line)
	if !ok || data == "" {
		return "", false
	}

	var event struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return "", false
	}

	if len(event.Candidates) > 0 {
		cand := event.Candidates[0]
		if cand.FinishReason == "STOP" {
			return "", true
		}
		if len(cand.Content.Parts) > 0 {
			return cand.Content.Parts[0].Text, false
		}
	}
	return "", false
}

func parseClaudeStream(line string, state *StreamState) (string, bool) {
	data, ok := parseSSEData(line)
	if !ok || data == "" {
		return "", false
	}

	var event struct {
		Type    string `json:"type"`
		Message struct {
			Model string `json:"model"`
		} `json:"message"`
		Delta struct {
			Text       string `json:"text"`
			StopReason string `json:"stop_reason"`
		} `json:"delta"`
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return "", false
	}

	switch event.Type {
	case "message_start":
		state.Model = event.Message.Model
	case "content_block_delta":
		return event.Delta.Text, false
	case "message_delta":
		if event.Delta.StopReason != "" {
			return "", true
		}
	case "message_stop":
		return "", true
	}
	return "", false
}

func parseOllamaStream(line string, state *StreamState) (string, bool) {
	// Ollama returns JSON objects, one per line (not SSE format)
	if line == "" {
		return "", false
	}

	var event struct {
		Model    string `json:"model"`
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return "", false
	}

	if state.Model == "" && event.Model != "" {
		state.Model = event.Model
	}

	if event.Done {
		return "", true
	}
	return event.Response, false
}

// Helpers

func getEnvOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func maxTokensOr(v, defaultVal int) int {
	if v > 0 {
		return v
	}
	return defaultVal
}

// NewProviderByName creates a specific provider. Returns nil for unknown names.
func NewProviderByName(name string) *HTTPProvider {
	var cfg *ProviderConfig
	switch name {
	case "deepseek":
		cfg = DeepseekConfig()
	case "openai":
		cfg = OpenAIConfig()
	case "gemini":
		cfg = GeminiConfig()
	case "claude":
		cfg = ClaudeConfig()
	case "ollama":
		cfg = OllamaConfig()
	default:
		return nil
	}
	return NewHTTPProvider(cfg)
}

// KnownProviders lists every provider name NewProviderByName accepts.
func KnownProviders() []string {
	return []string{"deepseek", "openai", "gemini", "claude", "ollama"}
}

// AvailableProviders returns the names of providers that are configured
// and ready to serve requests.
func AvailableProviders() []string {
	var names []string
	for _, name := range KnownProviders() {
		if p := NewProviderByName(name); p != nil && p.Available() {
			names = append(names, name)
		}
	}
	return names
}
