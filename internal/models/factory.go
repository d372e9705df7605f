// Package models builds chat model handles for intent processors.
//
// Every supported model identity maps to a provider that speaks the OpenAI
// chat completions protocol, so one go-openai client type serves all of them;
// only the base URL, API key variable and provider model name differ.
//
// MODEL IDENTITIES:
//
//	gpt-4o-mini        OpenAI      gpt-4o-mini                 temperature 0
//	gpt-4o             OpenAI      gpt-4o                      temperature 0
//	gpt-o3-mini        OpenAI      o3-mini                     reasoning effort medium
//	llama              Groq        qwen-2.5-32b                temperature 0
//	deepseek-chat      DeepSeek    deepseek-chat               temperature 0
//	claude-3-5-sonnet  Anthropic   claude-3-5-sonnet-20240620  temperature 0
//	gemini             Google      gemini-2.0-flash            temperature 0
//
// A model whose provider key is not set cannot be built. Unknown identities
// fail with ErrUnknownModel.
package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/concave-dev/otto/internal/logging"
)

var (
	// ErrUnknownModel is returned for an identity with no catalog entry.
	ErrUnknownModel = errors.New("unknown model")

	// ErrMissingAPIKey is returned when the provider's API key is not set.
	ErrMissingAPIKey = errors.New("provider API key not set")
)

// Provider is an OpenAI-compatible chat completions endpoint.
type Provider struct {
	Name      string
	BaseURL   string // empty selects the go-openai default
	APIKeyEnv string
}

// Providers known to the factory.
var (
	OpenAI    = Provider{Name: "openai", APIKeyEnv: "OPENAI_API_KEY"}
	Groq      = Provider{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", APIKeyEnv: "GROQ_API_KEY"}
	DeepSeek  = Provider{Name: "deepseek", BaseURL: "https://api.deepseek.com/v1", APIKeyEnv: "DEEPSEEK_API_KEY"}
	Anthropic = Provider{Name: "anthropic", BaseURL: "https://api.anthropic.com/v1", APIKeyEnv: "ANTHROPIC_API_KEY"}
	Google    = Provider{Name: "google", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai", APIKeyEnv: "GOOGLE_API_KEY"}
)

// Spec describes how one model identity is served.
type Spec struct {
	Provider        Provider
	Model           string
	Temperature     float32
	ReasoningEffort string
}

// Catalog maps model identities to their specs.
var Catalog = map[string]Spec{
	"gpt-4o-mini":       {Provider: OpenAI, Model: "gpt-4o-mini"},
	"gpt-4o":            {Provider: OpenAI, Model: "gpt-4o"},
	"gpt-o3-mini":       {Provider: OpenAI, Model: "o3-mini", ReasoningEffort: "medium"},
	"llama":             {Provider: Groq, Model: "qwen-2.5-32b"},
	"deepseek-chat":     {Provider: DeepSeek, Model: "deepseek-chat"},
	"claude-3-5-sonnet": {Provider: Anthropic, Model: "claude-3-5-sonnet-20240620"},
	"gemini":            {Provider: Google, Model: "gemini-2.0-flash"},
}

// Identities returns every catalog identity, sorted.
func Identities() []string {
	ids := make([]string, 0, len(Catalog))
	for id := range Catalog {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Model is a ready chat handle for one identity.
type Model struct {
	identity string
	spec     Spec
	client   *openai.Client
}

// Identity returns the model identity the handle was built for.
func (m *Model) Identity() string {
	return m.identity
}

// Spec returns the provider spec the handle was built from.
func (m *Model) Spec() Spec {
	return m.spec
}

// Chat sends messages to the model and returns the first choice. The model
// name and sampling settings are filled from the spec; tools are passed
// through unchanged.
func (m *Model) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.spec.Model,
		Messages: messages,
		Tools:    tools,
	}
	if m.spec.ReasoningEffort != "" {
		req.ReasoningEffort = m.spec.ReasoningEffort
	} else {
		req.Temperature = m.spec.Temperature
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%s chat completion failed: %w", m.identity, err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%s returned no choices", m.identity)
	}
	return resp.Choices[0].Message, nil
}

// Factory builds models from the catalog, reading API keys through Getenv.
type Factory struct {
	Catalog map[string]Spec
	Getenv  func(string) string
}

// NewFactory returns a factory over the default catalog and the process
// environment.
func NewFactory() *Factory {
	return &Factory{Catalog: Catalog, Getenv: os.Getenv}
}

// Build returns a model handle for identity.
func (f *Factory) Build(identity string) (*Model, error) {
	spec, ok := f.Catalog[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, identity)
	}

	key := strings.TrimSpace(f.Getenv(spec.Provider.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("%w: %s requires %s", ErrMissingAPIKey, identity, spec.Provider.APIKeyEnv)
	}

	cfg := openai.DefaultConfig(key)
	if spec.Provider.BaseURL != "" {
		cfg.BaseURL = spec.Provider.BaseURL
	}

	logging.Debug("Built %s model %s via %s", identity, spec.Model, spec.Provider.Name)
	return &Model{
		identity: identity,
		spec:     spec,
		client:   openai.NewClientWithConfig(cfg),
	}, nil
}
