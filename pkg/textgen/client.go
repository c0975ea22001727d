package textgen

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client is the text-generation collaborator. Given a structured prompt
// built from preferences and discovered evidence, it returns a response
// conforming to the fixed schema in response.go.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*Response, error)
}

// GenerateRequest carries the structured prompt.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature *float64
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates a text-generation client backed by the SDK.
func NewClient(apiKey, model string, maxTokens int) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "textgen: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, eris.New("textgen: empty response")
	}

	return ParseResponse([]byte(text))
}
