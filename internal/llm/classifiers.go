package llm

import (
	"context"
	"fmt"
)

const isQuestionPrompt = `Is the follow text a question?

<text>%s</text>

Answer in the form of a json object.  If the text is a question, answer with:
{"isQuestion": true}

If the text is NOT a question, answer with:
{"isQuestion": false}`

const isAnsweredPrompt = `Is the reply to the prompt an insightful answer?  Only answer yes if the reply gives better than general information.

<prompt>%s</prompt>
<reply>%s</reply>

Answer in the form of a json object.  If the text is an insightful answer to the prompt, answer with:
{"isAnswered": true}

If the text is NOT an insightful answer to the prompt, answer with:
{"isAnswered": false}`

// IsQuestion reports whether text reads as a question.
func (c *Client) IsQuestion(ctx context.Context, text string) (bool, error) {
	return c.classify(ctx, fmt.Sprintf(isQuestionPrompt, text), "isQuestion")
}

// IsAnswered reports whether reply is an insightful answer to message.
func (c *Client) IsAnswered(ctx context.Context, message, reply string) (bool, error) {
	return c.classify(ctx, fmt.Sprintf(isAnsweredPrompt, message, reply), "isAnswered")
}
