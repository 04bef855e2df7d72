// Package llm implements the generation collaborator on an OpenAI-compatible
// chat completion API. It reads whatever configuration is live in the session
// at generation time, which is how a substituted snapshot takes effect.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptlens/promptlens/internal/runner"
	"github.com/promptlens/promptlens/internal/session"
	"github.com/promptlens/promptlens/internal/snapshot"
)

// Options configures the backend. APIKeyEnv names the environment variable
// holding the key, so the key itself never lands in a config file.
type Options struct {
	Model     string
	BaseURL   string
	APIKeyEnv string
	// Responder is the assistant persona named when a generation forces a
	// responder.
	Responder string
}

// Client generates text from the live session state.
type Client struct {
	api       *openai.Client
	model     string
	responder string
	sess      *session.Session
	log       *slog.Logger
}

// New builds a client bound to a session. It fails when the API key is
// missing rather than deferring the error to the first generation.
func New(opts Options, sess *session.Session) (*Client, error) {
	if opts.APIKeyEnv == "" {
		opts.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := strings.TrimSpace(os.Getenv(opts.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("%s not set", opts.APIKeyEnv)
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(key)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		responder: opts.Responder,
		sess:      sess,
		log:       slog.Default(),
	}, nil
}

// Generate implements runner.Generator. The request is assembled from the
// session's active fragments in prompt order plus the transcript, streamed,
// and the accumulated text is both reported through OnPartialText as it
// grows and returned whole at the end.
func (c *Client) Generate(ctx context.Context, opts runner.GenerateOptions) (string, error) {
	messages := c.buildMessages(opts)
	if len(messages) == 0 {
		return "", fmt.Errorf("nothing to send: no active prompts and empty transcript")
	}

	c.log.Debug("starting quiet generation", "model", c.model, "messages", len(messages))

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("opening completion stream: %w", err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading completion stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		if opts.OnPartialText != nil {
			opts.OnPartialText(b.String())
		}
	}
	return b.String(), nil
}

// buildMessages renders the live configuration and transcript as a chat
// request. Fragments are included in prompt-order sequence when enabled,
// resolved, and not structural markers. Unless context injection is skipped,
// system fragments listed in no order entry are appended after the ordered
// ones.
func (c *Client) buildMessages(opts runner.GenerateOptions) []openai.ChatCompletionMessage {
	prompts, order, _, ok := c.sess.Current()
	if !ok {
		return nil
	}

	byID := make(map[string]snapshot.PromptFragment, len(prompts))
	for _, p := range prompts {
		byID[p.Identifier] = p
	}

	var messages []openai.ChatCompletionMessage
	listed := make(map[string]bool)
	for _, entry := range order {
		for _, ref := range entry.Order {
			listed[ref.Identifier] = true
			if !ref.Enabled {
				continue
			}
			frag, ok := byID[ref.Identifier]
			if !ok || frag.Marker || frag.Content == "" {
				continue
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    chatRole(frag.Role),
				Content: frag.Content,
			})
		}
	}

	if !opts.SkipContextInjection {
		for _, p := range prompts {
			if !listed[p.Identifier] && p.SystemPrompt && !p.Marker && p.Content != "" {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleSystem,
					Content: p.Content,
				})
			}
		}
	}

	for _, m := range c.sess.Messages() {
		role := openai.ChatMessageRoleAssistant
		if m.IsUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Text,
		})
	}

	if opts.ForceResponderName && c.responder != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Respond as %s.", c.responder),
		})
	}

	return messages
}

func chatRole(role string) string {
	switch role {
	case "user":
		return openai.ChatMessageRoleUser
	case "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleSystem
	}
}
