// Package content provisions question material for games. A Provider
// fills a QuestionSet for the rounds a game will play; the HTTP client
// talks to the generator service and the static provider serves the
// built-in pool when no service is configured.
package content

import (
	"context"

	"github.com/gameshowhq/gameshow/internal/model"
)

// Request describes the material one game needs.
type Request struct {
	Rounds     []model.RoundType   `json:"rounds"`
	Difficulty model.Difficulty    `json:"difficulty"`
	Settings   model.RoundSettings `json:"round_settings"`
}

// RegenerateRequest asks for a single replacement item for one round slot.
// Column/Row address a connect-4 board cell.
type RegenerateRequest struct {
	RoundType  model.RoundType  `json:"round_type"`
	Difficulty model.Difficulty `json:"difficulty,omitempty"`
	Category   string           `json:"category,omitempty"`
	Column     *int             `json:"column,omitempty"`
	Row        *int             `json:"row,omitempty"`
}

// Replacement is the single-item answer to a regenerate request. Exactly
// one payload field is set, matching the round type.
type Replacement struct {
	RoundType   model.RoundType      `json:"round_type"`
	Question    *model.Question      `json:"question,omitempty"`
	GuessNumber *model.GuessQuestion `json:"guess_number,omitempty"`
	Connect4    *model.BoardQuestion `json:"connect4,omitempty"`
	Word        *string              `json:"word,omitempty"`
}

// Provider fills question material for a game. Generate must return
// material for every requested round or an error; partial sets are not
// returned. Regenerate swaps one question or word.
type Provider interface {
	Generate(ctx context.Context, req Request) (*model.QuestionSet, error)
	Regenerate(ctx context.Context, req RegenerateRequest) (*Replacement, error)
}

// counts resolves how much material each round needs, applying defaults
// for zero-valued settings.
func counts(req Request) (trivia, lightning, guess, words int) {
	trivia = req.Settings.TriviaBuzzQuestions
	if trivia == 0 {
		trivia = 10
	}
	// Lightning feeds each team a block of ten questions; provision for
	// four teams so late joins never starve the queue.
	lightning = 40
	guess = req.Settings.GuessNumberQuestions
	if guess == 0 {
		guess = 3
	}
	words = req.Settings.BlindDrawWordCount
	if words == 0 {
		words = 12
	}
	return trivia, lightning, guess, words
}

func wantsRound(req Request, rt model.RoundType) bool {
	for _, r := range req.Rounds {
		if r == rt {
			return true
		}
	}
	return false
}
