package content

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/gameshowhq/gameshow/internal/model"
)

// Static serves questions from the built-in pool. It is the fallback
// provider when no generator service is configured, and the pool the
// regenerate endpoint draws from when a host rejects generated material.
type Static struct {
	rng *rand.Rand
}

// NewStatic creates a static provider. A nil rng seeds from the clock.
func NewStatic(rng *rand.Rand) *Static {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Static{rng: rng}
}

// Generate fills the requested rounds from the built-in pool. Pools cycle
// when demand exceeds supply, so large settings never fail.
func (s *Static) Generate(_ context.Context, req Request) (*model.QuestionSet, error) {
	trivia, lightning, guess, words := counts(req)
	set := &model.QuestionSet{}

	if wantsRound(req, model.RoundTriviaBuzz) {
		set.TriviaBuzz = s.pickQuestions(triviaPool, trivia, req.Difficulty)
	}
	if wantsRound(req, model.RoundLightning) {
		set.Lightning = s.pickQuestions(lightningPool, lightning, req.Difficulty)
	}
	if wantsRound(req, model.RoundGuessNumber) {
		set.GuessNumber = s.pickGuesses(guess)
	}
	if wantsRound(req, model.RoundConnect4) {
		set.Connect4 = s.pickBoard(req.Settings.Connect4Themes)
	}
	if wantsRound(req, model.RoundBlindDraw) {
		set.BlindDraw = s.pickWords(drawWords, words)
	}
	if wantsRound(req, model.RoundDumpCharades) {
		set.DumpCharades = s.pickWords(charadeWords, words)
	}
	return set, nil
}

// Regenerate draws a single replacement from the built-in pool.
func (s *Static) Regenerate(_ context.Context, req RegenerateRequest) (*Replacement, error) {
	out := &Replacement{RoundType: req.RoundType}
	switch req.RoundType {
	case model.RoundTriviaBuzz:
		q := s.pickQuestions(triviaPool, 1, req.Difficulty)
		out.Question = &q[0]
	case model.RoundLightning:
		q := s.pickQuestions(lightningPool, 1, req.Difficulty)
		out.Question = &q[0]
	case model.RoundGuessNumber:
		g := s.pickGuesses(1)
		out.GuessNumber = &g[0]
	case model.RoundConnect4:
		out.Connect4 = s.pickCell(req)
	case model.RoundBlindDraw:
		w := s.pickWords(drawWords, 1)
		out.Word = &w[0]
	case model.RoundDumpCharades:
		w := s.pickWords(charadeWords, 1)
		out.Word = &w[0]
	default:
		return nil, fmt.Errorf("no material for round type %q", req.RoundType)
	}
	return out, nil
}

// pickCell replaces one board cell, keeping the requested category when
// the pool knows it.
func (s *Static) pickCell(req RegenerateRequest) *model.BoardQuestion {
	theme := req.Category
	if _, ok := boardPool[theme]; !ok {
		theme = DefaultThemes()[s.rng.Intn(4)]
	}
	row, col := 0, 0
	if req.Row != nil {
		row = *req.Row % 4
	}
	if req.Column != nil {
		col = *req.Column % 4
	}
	src := boardPool[theme][row]
	return &model.BoardQuestion{
		Column: col,
		Row:    row,
		Question: model.Question{
			ID:       uuid.NewString(),
			Text:     src.q,
			Answer:   src.a,
			Category: theme,
		},
	}
}

func (s *Static) pickQuestions(pool []qa, n int, diff model.Difficulty) []model.Question {
	order := s.rng.Perm(len(pool))
	out := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		src := pool[order[i%len(order)]]
		out = append(out, model.Question{
			ID:         uuid.NewString(),
			Text:       src.q,
			Answer:     src.a,
			Category:   src.cat,
			Difficulty: diff,
		})
	}
	return out
}

func (s *Static) pickGuesses(n int) []model.GuessQuestion {
	order := s.rng.Perm(len(guessPool))
	out := make([]model.GuessQuestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, guessPool[order[i%len(order)]])
	}
	return out
}

func (s *Static) pickWords(pool []string, n int) []string {
	order := s.rng.Perm(len(pool))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pool[order[i%len(order)]])
	}
	return out
}

// pickBoard builds a four-column board, one theme per column, questions
// ordered easiest to hardest down the column.
func (s *Static) pickBoard(themes []string) []model.BoardQuestion {
	if len(themes) == 0 {
		themes = DefaultThemes()
	}
	out := make([]model.BoardQuestion, 0, 16)
	for col := 0; col < 4; col++ {
		theme := themes[col%len(themes)]
		cells, ok := boardPool[theme]
		if !ok {
			// Unknown theme: fall back to a stock column so the board
			// always fills.
			cells = boardPool[DefaultThemes()[col%4]]
		}
		for row := 0; row < 4; row++ {
			src := cells[row]
			out = append(out, model.BoardQuestion{
				Column: col,
				Row:    row,
				Question: model.Question{
					ID:       uuid.NewString(),
					Text:     src.q,
					Answer:   src.a,
					Category: theme,
				},
			})
		}
	}
	return out
}

// DefaultThemes returns the stock Connect-4 column themes.
func DefaultThemes() []string {
	return []string{"Movies", "Science", "Sports", "Food"}
}

type qa struct {
	q, a, cat string
}

var triviaPool = []qa{
	{"What is the capital of Australia?", "Canberra", "Geography"},
	{"Which planet is known as the Red Planet?", "Mars", "Science"},
	{"Who painted the Mona Lisa?", "Leonardo da Vinci", "Art"},
	{"What is the largest ocean on Earth?", "The Pacific Ocean", "Geography"},
	{"In what year did the Titanic sink?", "1912", "History"},
	{"What is the chemical symbol for gold?", "Au", "Science"},
	{"Which country invented pizza?", "Italy", "Food"},
	{"How many strings does a standard violin have?", "Four", "Music"},
	{"What is the longest river in the world?", "The Nile", "Geography"},
	{"Who wrote 'Romeo and Juliet'?", "William Shakespeare", "Literature"},
	{"What is the smallest prime number?", "2", "Math"},
	{"Which animal is the tallest in the world?", "The giraffe", "Nature"},
	{"What gas do plants absorb from the atmosphere?", "Carbon dioxide", "Science"},
	{"In which city is the Eiffel Tower?", "Paris", "Geography"},
	{"How many players are on a soccer team on the field?", "Eleven", "Sports"},
	{"What is the hardest natural substance on Earth?", "Diamond", "Science"},
	{"Which ocean is the Bermuda Triangle in?", "The Atlantic Ocean", "Geography"},
	{"Who was the first person to walk on the moon?", "Neil Armstrong", "History"},
	{"What fruit is traditionally given to teachers?", "An apple", "Culture"},
	{"How many sides does a hexagon have?", "Six", "Math"},
}

var lightningPool = []qa{
	{"What color do you get mixing blue and yellow?", "Green", ""},
	{"How many legs does a spider have?", "Eight", ""},
	{"What is 7 times 8?", "56", ""},
	{"What do bees make?", "Honey", ""},
	{"What is the opposite of 'north'?", "South", ""},
	{"How many days are in a leap year?", "366", ""},
	{"What is frozen water called?", "Ice", ""},
	{"Which month has 28 days in a common year?", "February", ""},
	{"What do caterpillars turn into?", "Butterflies", ""},
	{"How many continents are there?", "Seven", ""},
	{"What is the first letter of the Greek alphabet?", "Alpha", ""},
	{"How many minutes are in an hour?", "60", ""},
	{"What animal says 'moo'?", "A cow", ""},
	{"What is the capital of France?", "Paris", ""},
	{"How many colors are in a rainbow?", "Seven", ""},
	{"What do you call a baby dog?", "A puppy", ""},
	{"What is 100 divided by 4?", "25", ""},
	{"Which planet do we live on?", "Earth", ""},
	{"What is the largest mammal?", "The blue whale", ""},
	{"How many wheels does a tricycle have?", "Three", ""},
	{"What metal is a horseshoe usually made of?", "Iron", ""},
	{"What is the opposite of 'cheap'?", "Expensive", ""},
	{"How many zeros are in one million?", "Six", ""},
	{"What fruit is yellow and curved?", "A banana", ""},
	{"What season comes after summer?", "Autumn", ""},
	{"How many sides does a triangle have?", "Three", ""},
	{"What do you call water falling from the sky?", "Rain", ""},
	{"Which bird cannot fly but runs fast?", "The ostrich", ""},
	{"What is 9 plus 6?", "15", ""},
	{"What color is an emerald?", "Green", ""},
	{"How many hours are in two days?", "48", ""},
	{"What is the currency of Japan?", "The yen", ""},
	{"What shape is a stop sign?", "An octagon", ""},
	{"What do pandas mainly eat?", "Bamboo", ""},
	{"How many strings does a guitar usually have?", "Six", ""},
	{"What is the fastest land animal?", "The cheetah", ""},
	{"What is H2O commonly called?", "Water", ""},
	{"How many letters are in the English alphabet?", "26", ""},
	{"What is the opposite of 'ancient'?", "Modern", ""},
	{"Which direction does the sun rise?", "East", ""},
}

var guessPool = []model.GuessQuestion{
	{Prompt: "How many keys are on a standard piano?", Answer: 88},
	{Prompt: "How many bones are in the adult human body?", Answer: 206},
	{Prompt: "In what year was the first iPhone released?", Answer: 2007},
	{Prompt: "How many countries are members of the United Nations?", Answer: 193},
	{Prompt: "How tall is the Eiffel Tower in meters?", Answer: 330},
	{Prompt: "How many minutes long is a soccer match, not counting stoppage?", Answer: 90},
	{Prompt: "How many moons does Jupiter have (confirmed)?", Answer: 95},
	{Prompt: "How many steps are there to the top of the Statue of Liberty's crown?", Answer: 354},
}

var boardPool = map[string][4]qa{
	"Movies": {
		{"What color pill does Neo take in The Matrix?", "Red", ""},
		{"Who directed Jurassic Park?", "Steven Spielberg", ""},
		{"What is the name of the kingdom in Frozen?", "Arendelle", ""},
		{"Which 1994 film won Best Picture over The Shawshank Redemption?", "Forrest Gump", ""},
	},
	"Science": {
		{"What planet is closest to the sun?", "Mercury", ""},
		{"What part of the cell contains DNA?", "The nucleus", ""},
		{"What is the speed of light in km/s, roughly?", "300,000", ""},
		{"What element has the atomic number 79?", "Gold", ""},
	},
	"Sports": {
		{"How many points is a touchdown worth?", "Six", ""},
		{"In which country were the first modern Olympics held?", "Greece", ""},
		{"How many holes are in a full round of golf?", "Eighteen", ""},
		{"Which boxer was known as 'The Greatest'?", "Muhammad Ali", ""},
	},
	"Food": {
		{"What is sushi traditionally wrapped in?", "Seaweed (nori)", ""},
		{"Which country produces the most coffee?", "Brazil", ""},
		{"What are the two main ingredients of guacamole besides avocado?", "Lime and salt", ""},
		{"What cheese is traditionally used on a Margherita pizza?", "Mozzarella", ""},
	},
}

var drawWords = []string{
	"lighthouse", "rollercoaster", "campfire", "submarine", "waterfall",
	"snowman", "treehouse", "hot air balloon", "windmill", "octopus",
	"castle", "rocket ship", "pirate", "rainbow", "volcano",
	"scarecrow", "drawbridge", "telescope", "jellyfish", "igloo",
}

var charadeWords = []string{
	"brushing teeth", "riding a horse", "juggling", "fishing", "skiing",
	"making pizza", "walking a dog", "playing drums", "surfing", "bowling",
	"changing a tire", "bird watching", "ice skating", "painting a wall",
	"shoveling snow", "rock climbing", "milking a cow", "playing chess",
	"taking a selfie", "directing traffic",
}
