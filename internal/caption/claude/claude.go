package claude

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/actreport/internal/caption"
)

// maxTokens leaves room for one caption line.
const maxTokens = 128

type ClaudeCaptioner struct {
	client *anthropic.Client
	model  string
}

func NewClaudeCaptioner(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeCaptioner {
	return &ClaudeCaptioner{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeCaptioner) Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					imageData,
				)),
				anthropic.NewTextMessageContent(caption.Prompt),
			},
		}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	return caption.ParseCaption(resp.GetFirstContentText()), nil
}

// normaliseMIME maps upload MIME types to the values the Messages API accepts.
func normaliseMIME(mimeType string) string {
	if mimeType == "image/png" {
		return mimeType
	}
	return "image/jpeg"
}
