package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

const structuredReplyPrompt = `You must respond with a valid JSON object containing exactly two fields:
1. "message": Your response as a string
2. "usedSourceIndexes": An array of numbers representing the indexes of sources used, or an empty array if no sources were used

Example format:
{
  "message": "Your response here",
  "usedSourceIndexes": [0, 1]
}

Do not include any other fields or text outside the JSON object.

%s`

// GenerateAnswer produces a structured answer to question. With no
// retrieval context attached the model is expected to return an empty
// usedSourceIndexes array; anything it returns anyway is passed
// through for the reconciler to judge.
func (c *Client) GenerateAnswer(ctx context.Context, question string) (string, []int, error) {
	content, err := c.complete(ctx, fmt.Sprintf(structuredReplyPrompt, question))
	if err != nil {
		return "", nil, err
	}
	var out struct {
		Message           string `json:"message"`
		UsedSourceIndexes []int  `json:"usedSourceIndexes"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", nil, fmt.Errorf("parse structured reply: %w", err)
	}
	return out.Message, out.UsedSourceIndexes, nil
}
