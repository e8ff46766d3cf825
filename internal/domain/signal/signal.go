// Package signal defines the contracts of the external signal sources.
package signal

import (
	"context"

	"github.com/steamcompass/compass/internal/domain/model"
)

// ScoreProvider looks up critic and user scores by game name.
type ScoreProvider interface {
	FetchScores(ctx context.Context, name string) (model.Scores, error)
}

// ReviewProvider looks up review counts by stable id.
type ReviewProvider interface {
	FetchReviews(ctx context.Context, appID int64) (model.ReviewSentiment, error)
}

// CompletionProvider looks up completion time estimates by game name.
type CompletionProvider interface {
	FetchCompletion(ctx context.Context, name string) (model.CompletionHours, error)
}

// LibraryProvider enumerates the games an account owns.
type LibraryProvider interface {
	OwnedGames(ctx context.Context, accountID string) ([]model.GameIdentity, error)
}

// ScoreFunc adapts a function to ScoreProvider.
type ScoreFunc func(ctx context.Context, name string) (model.Scores, error)

// FetchScores calls f.
func (f ScoreFunc) FetchScores(ctx context.Context, name string) (model.Scores, error) {
	return f(ctx, name)
}

// ReviewFunc adapts a function to ReviewProvider.
type ReviewFunc func(ctx context.Context, appID int64) (model.ReviewSentiment, error)

// FetchReviews calls f.
func (f ReviewFunc) FetchReviews(ctx context.Context, appID int64) (model.ReviewSentiment, error) {
	return f(ctx, appID)
}

// CompletionFunc adapts a function to CompletionProvider.
type CompletionFunc func(ctx context.Context, name string) (model.CompletionHours, error)

// FetchCompletion calls f.
func (f CompletionFunc) FetchCompletion(ctx context.Context, name string) (model.CompletionHours, error) {
	return f(ctx, name)
}

// LibraryFunc adapts a function to LibraryProvider.
type LibraryFunc func(ctx context.Context, accountID string) ([]model.GameIdentity, error)

// OwnedGames calls f.
func (f LibraryFunc) OwnedGames(ctx context.Context, accountID string) ([]model.GameIdentity, error) {
	return f(ctx, accountID)
}
