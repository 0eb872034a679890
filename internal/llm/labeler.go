package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
)

type labelResponse struct {
	Label string `json:"label" jsonschema:"required,description=One single descriptive word summarizing the topic"`
}

var labelSchema = GenerateSchema[labelResponse]()

const labelInstructions = "You are a helpful assistant that names discussion topics. " +
	"Based solely on the keywords given, answer with one single, descriptive word. " +
	"No extra text or punctuation."

// Labeler names topics with a model. It satisfies topic.Labeler.
type Labeler struct{ c *Client }

func NewLabeler(c *Client) *Labeler { return &Labeler{c: c} }

func (l *Labeler) Label(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}
	out, err := l.c.complete(ctx, request{
		endpoint:     "label",
		instructions: labelInstructions,
		input:        "Here are some keywords that represent a discussion topic: " + strings.Join(keywords, ", ") + ".",
		maxTokens:    50,
		format: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "TopicLabel",
			Schema:      labelSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("One-word topic label"),
			Type:        "json_schema",
		},
	})
	if err != nil {
		return "", err
	}
	var resp labelResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return "", fmt.Errorf("llm label: decode %q: %w", out, err)
	}
	return strings.TrimSpace(resp.Label), nil
}
