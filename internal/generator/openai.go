package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"figurdle/internal/matcher"
	"figurdle/internal/models"

	"github.com/sashabaranov/go-openai"
)

// ErrGeneration wraps any failure to produce a usable character
var ErrGeneration = errors.New("character generation failed")

// Generator produces candidate characters for the daily puzzle
type Generator interface {
	// GenerateCharacter requests a new character, steering the model away
	// from the given exclusion list. attempt (1-based) loosens the
	// difficulty guidance on retries
	GenerateCharacter(ctx context.Context, exclude []string, hintCount, attempt int) (*models.GeneratedCharacter, error)

	// GenerateImage optionally produces artwork for a committed character.
	// Returns an empty URL when image generation is disabled
	GenerateImage(ctx context.Context, answer string) (string, error)
}

// OpenAIGenerator implements Generator against the OpenAI chat and image APIs
type OpenAIGenerator struct {
	client         *openai.Client
	model          string
	generateImages bool
}

// NewOpenAIGenerator creates a generator. The API key is required
func NewOpenAIGenerator(apiKey, model string, generateImages bool) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not configured", ErrGeneration)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:         openai.NewClient(apiKey),
		model:          model,
		generateImages: generateImages,
	}, nil
}

// GenerateCharacter asks the model for a character record and validates it
func (g *OpenAIGenerator) GenerateCharacter(ctx context.Context, exclude []string, hintCount, attempt int) (*models.GeneratedCharacter, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(exclude, hintCount, attempt)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", ErrGeneration)
	}

	character, err := parseCharacter(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := validateCharacter(character, hintCount); err != nil {
		return nil, err
	}
	if leaked := hintLeaks(character); len(leaked) > 0 {
		return nil, fmt.Errorf("%w: hints reveal name parts %v for %q", ErrGeneration, leaked, character.Answer)
	}

	log.Printf("Generated character candidate: %s (%d aliases, %d hints)",
		character.Answer, len(character.Aliases), len(character.Hints))
	return character, nil
}

// GenerateImage produces portrait artwork for the character via the image API
func (g *OpenAIGenerator) GenerateImage(ctx context.Context, answer string) (string, error) {
	if !g.generateImages {
		return "", nil
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model: openai.CreateImageModelDallE3,
		Prompt: fmt.Sprintf(
			"A stylized, dignified portrait illustration of the historical figure %s. No text or lettering in the image.",
			answer),
		N:    1,
		Size: openai.CreateImageSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", errors.New("image generation returned no data")
	}
	return resp.Data[0].URL, nil
}

const userPrompt = "Generate a historical figure for today's puzzle. Choose someone interesting and well-known, but not too obvious. Make the hints engaging and educational."

// buildSystemPrompt assembles the generation instructions, including the
// exclusion list and per-attempt difficulty guidance
func buildSystemPrompt(exclude []string, hintCount, attempt int) string {
	var b strings.Builder

	b.WriteString("You are a game designer creating daily puzzles for a Wordle-like game where players guess historical figures based on progressive hints.\n\n")

	if len(exclude) > 0 {
		// Cap the list so the prompt stays within token limits
		listed := exclude
		if len(listed) > 50 {
			listed = listed[:50]
		}
		b.WriteString("IMPORTANT - DO NOT choose any of these already-used characters:\n")
		b.WriteString(strings.Join(listed, ", "))
		if len(exclude) > 50 {
			fmt.Fprintf(&b, "\n(and %d more used characters)", len(exclude)-50)
		}
		b.WriteString("\n\n")
	}

	var difficulty string
	switch {
	case attempt <= 1:
		difficulty = "Choose well-known historical figures that educated players would recognize."
	case attempt == 2:
		difficulty = "You may choose slightly more obscure but still notable historical figures."
	default:
		difficulty = "Choose any historically significant figure, even if less commonly known."
	}

	fmt.Fprintf(&b, `Generate a historical figure that meets these criteria:
- Historically significant (not just famous for being famous)
- Has interesting, distinctive facts for hints
- Can be from any time period or culture
- %s

Return your response as valid JSON with this exact structure:
{"answer": "Full Name", "aliases": ["Alternative Name", "Nickname"], "hints": [%d progressive hint strings, from very broad historical context to nearly giving it away], "source_urls": ["https://en.wikipedia.org/wiki/..."]}

CRITICAL RULES FOR HINTS:
- Provide exactly %d hints, ordered from vague to specific
- NEVER mention the person's name, nickname, or any part of their name in any hint
- Use pronouns (I, they, this person) instead of names
- Refer to places, events, or concepts without using the person's name
- The final hint should be very specific but still require the player to make the connection`,
		difficulty, hintCount, hintCount)

	return b.String()
}

// parseCharacter decodes the model's JSON response, tolerating code fences
func parseCharacter(content string) (*models.GeneratedCharacter, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var character models.GeneratedCharacter
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &character); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %v", ErrGeneration, err)
	}
	return &character, nil
}

// validateCharacter checks the record shape the rest of the system relies on
func validateCharacter(c *models.GeneratedCharacter, hintCount int) error {
	if strings.TrimSpace(c.Answer) == "" {
		return fmt.Errorf("%w: missing answer", ErrGeneration)
	}
	if len(c.Hints) != hintCount {
		return fmt.Errorf("%w: expected %d hints, got %d", ErrGeneration, hintCount, len(c.Hints))
	}
	for i, h := range c.Hints {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%w: hint %d is empty", ErrGeneration, i+1)
		}
	}
	return nil
}

// descriptiveWords are common role terms that may legitimately appear in
// hints even when an alias contains them
var descriptiveWords = map[string]bool{
	"physicist": true, "theoretical": true, "pioneer": true, "scientist": true,
	"leader": true, "emperor": true, "queen": true, "king": true,
	"president": true, "general": true, "artist": true, "writer": true,
	"philosopher": true,
}

// hintLeaks returns the name parts that appear verbatim in any hint.
// A candidate whose hints give away the answer is unusable
func hintLeaks(c *models.GeneratedCharacter) []string {
	parts := map[string]bool{}
	for _, source := range append([]string{c.Answer}, c.Aliases...) {
		for _, word := range strings.Fields(matcher.Normalize(source)) {
			if len(word) > 3 && !descriptiveWords[word] {
				parts[word] = true
			}
		}
	}

	var leaked []string
	for _, hint := range c.Hints {
		hintWords := map[string]bool{}
		for _, w := range strings.Fields(matcher.Normalize(hint)) {
			hintWords[w] = true
		}
		for part := range parts {
			if hintWords[part] {
				leaked = append(leaked, part)
			}
		}
	}
	return leaked
}
