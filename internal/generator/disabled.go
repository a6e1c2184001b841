package generator

import (
	"context"
	"fmt"

	"figurdle/internal/models"
)

// disabled is the Generator used when no API key is configured. The server
// still serves existing puzzles; only rotation fails
type disabled struct {
	err error
}

// Disabled returns a Generator whose character generation always fails with
// the given cause
func Disabled(err error) Generator {
	return disabled{err: err}
}

func (d disabled) GenerateCharacter(ctx context.Context, exclude []string, hintCount, attempt int) (*models.GeneratedCharacter, error) {
	return nil, fmt.Errorf("%w: generator disabled: %v", ErrGeneration, d.err)
}

func (d disabled) GenerateImage(ctx context.Context, answer string) (string, error) {
	return "", nil
}
