package commands

import (
	"context"
	"math/rand"
)

type JokeCommand struct {
	f    Formatter
	pick func(n int) int
}

func NewJokeCommand(f Formatter) *JokeCommand {
	return &JokeCommand{f: f, pick: rand.Intn}
}

func (j *JokeCommand) Name() string {
	return "joke"
}

func (j *JokeCommand) Aliases() []string {
	return []string{"joke", "шутка"}
}

func (j *JokeCommand) Handle(context.Context, Request) ([]Reply, error) {
	return []Reply{{Text: j.Joke()}}, nil
}

// Joke returns a random line of the jokes catalog entry.
func (j *JokeCommand) Joke() string {
	jokes := j.f.List("JokeCommand.jokes")
	if len(jokes) == 0 {
		return ""
	}
	return jokes[j.pick(len(jokes))]
}
