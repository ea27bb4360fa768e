// Package hint writes quiz hints with Gemini. Hints are generated from the
// vocabulary item itself and cached per item and mode.
package hint

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"google.golang.org/genai"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

const DefaultModel = "gemini-2.0-flash"

const systemPrompt = "You are a concise Japanese language tutor. Keep hints short and helpful."

//go:embed prompts.tmpl
var promptsText string

var prompts = template.Must(template.New("hints").Parse(promptsText))

var ErrEmpty = errors.New("hint: model returned no text")

// VocabularyLookup fetches the item a hint is about.
type VocabularyLookup interface {
	Vocabulary(ctx context.Context, sess nihongo.Session, id string) (nihongo.VocabularyItem, error)
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Source struct {
	gen   Generator
	vocab VocabularyLookup

	mu    sync.Mutex
	cache map[string]string
}

func New(gen Generator, vocab VocabularyLookup) *Source {
	return &Source{gen: gen, vocab: vocab, cache: make(map[string]string)}
}

// Hint returns a hint for the item in the given quiz mode.
func (s *Source) Hint(ctx context.Context, sess nihongo.Session, vocabID string, mode game.QuizMode) (string, error) {
	key := vocabID + "|" + string(mode)
	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	item, err := s.vocab.Vocabulary(ctx, sess, vocabID)
	if err != nil {
		return "", fmt.Errorf("looking up %s: %w", vocabID, err)
	}
	prompt, err := Prompt(item, mode)
	if err != nil {
		return "", err
	}
	text, err := s.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generating hint: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}

	s.mu.Lock()
	s.cache[key] = text
	s.mu.Unlock()
	return text, nil
}

// Prompt renders the request for one item. Typing modes ask how to spell
// the word; the English mode asks for a clue to its meaning.
func Prompt(item nihongo.VocabularyItem, mode game.QuizMode) (string, error) {
	name := "meaning"
	if mode == game.ModeToJapanese || mode == game.ModeFillInBlank {
		name = "spelling"
	}
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, item); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Gemini generates with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   100,
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
