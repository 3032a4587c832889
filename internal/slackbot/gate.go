package slackbot

import (
	"context"
	"log/slog"
	"strings"
)

// QuestionClassifier answers "is this text a question?".
type QuestionClassifier interface {
	IsQuestion(ctx context.Context, text string) (bool, error)
}

// ReplyGate decides whether an inbound message merits an automated
// reply.
type ReplyGate struct {
	classifier QuestionClassifier
}

// NewReplyGate returns a gate backed by the given classifier.
func NewReplyGate(classifier QuestionClassifier) *ReplyGate {
	return &ReplyGate{classifier: classifier}
}

// ShouldReply returns false for empty text without calling the
// classifier; otherwise it propagates the classifier's verdict.
func (g *ReplyGate) ShouldReply(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		slog.Debug("skipping message with no text")
		return false, nil
	}
	return g.classifier.IsQuestion(ctx, text)
}
