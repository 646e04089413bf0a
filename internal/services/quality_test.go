package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

func TestScorePromptQuality(t *testing.T) {
	verdict := "1. Clarté: 8/10\n2. Spécificité: 7/10\n3. Efficacité: 9/10"
	var captured openai.ChatRequest
	ai := &fakeAIClient{
		chatCompleteFn: func(_ context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
			captured = req
			return chatResponse(verdict + "\n"), nil
		},
	}
	scorer := NewQualityScorer(testLogger(t), ai, settings.Static{})

	got, err := scorer.ScorePromptQuality(context.Background(), "describe the 2024 RAV4")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got != verdict {
		t.Fatalf("verdict must be the model's text verbatim, got %q", got)
	}

	if captured.MaxTokens != 50 {
		t.Fatalf("max_tokens: want=50 got=%d", captured.MaxTokens)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.3 {
		t.Fatalf("temperature: want=0.3 got=%v", captured.Temperature)
	}
	content, _ := captured.Messages[0].Content.(string)
	if !strings.Contains(content, `Texte : "describe the 2024 RAV4"`) {
		t.Fatalf("subject missing from rubric: %q", content)
	}
	if !strings.Contains(content, "clarté, spécificité et efficacité") {
		t.Fatalf("default prompt rubric not used: %q", content)
	}
	if !strings.Contains(content, "1. Clarté: X/10") {
		t.Fatalf("answer format missing from rubric: %q", content)
	}
}

func TestScoreResponseRelevancyGroundsOnQuery(t *testing.T) {
	verdict := "1. Pertinence: 9/10\n2. SEO: 6/10\n3. Qualité générale: 8/10"
	var captured openai.ChatRequest
	ai := &fakeAIClient{
		chatCompleteFn: func(_ context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
			captured = req
			return chatResponse(verdict), nil
		},
	}
	scorer := NewQualityScorer(testLogger(t), ai, settings.Static{})

	got, err := scorer.ScoreResponseRelevancy(context.Background(),
		"Décrivez ce VUS", "Un VUS fiable et économique.")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got != verdict {
		t.Fatalf("verdict must be the model's text verbatim, got %q", got)
	}

	content, _ := captured.Messages[0].Content.(string)
	if !strings.Contains(content, `Requête : "Décrivez ce VUS"`) {
		t.Fatalf("query missing from rubric: %q", content)
	}
	if !strings.Contains(content, `Réponse : "Un VUS fiable et économique."`) {
		t.Fatalf("response missing from rubric: %q", content)
	}
	if !strings.Contains(content, "Pertinence par rapport au texte de l'utilisateur") {
		t.Fatalf("default relevancy rubric not used: %q", content)
	}
	if !strings.Contains(content, "SEO") {
		t.Fatalf("SEO criterion missing: %q", content)
	}
}

func TestScoringTemplateOverride(t *testing.T) {
	var captured openai.ChatRequest
	ai := &fakeAIClient{
		chatCompleteFn: func(_ context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
			captured = req
			return chatResponse("acceptable"), nil
		},
	}
	cfg := settings.Static{
		settings.KeyScoringPromptTemplate: "Rate this text: %s",
	}
	scorer := NewQualityScorer(testLogger(t), ai, cfg)

	if _, err := scorer.ScorePromptQuality(context.Background(), "hello"); err != nil {
		t.Fatalf("score: %v", err)
	}
	content, _ := captured.Messages[0].Content.(string)
	if content != "Rate this text: hello" {
		t.Fatalf("template override ignored: %q", content)
	}
}

func TestScoringFailures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		ai := &fakeAIClient{
			chatCompleteFn: func(context.Context, openai.ChatRequest) (*openai.ChatResponse, error) {
				return nil, errors.New("boom")
			},
		}
		scorer := NewQualityScorer(testLogger(t), ai, settings.Static{})
		if _, err := scorer.ScorePromptQuality(context.Background(), "x"); !errors.Is(err, ErrScoringFailed) {
			t.Fatalf("want ErrScoringFailed, got %v", err)
		}
	})

	t.Run("empty completion", func(t *testing.T) {
		ai := &fakeAIClient{
			chatCompleteFn: func(context.Context, openai.ChatRequest) (*openai.ChatResponse, error) {
				return &openai.ChatResponse{}, nil
			},
		}
		scorer := NewQualityScorer(testLogger(t), ai, settings.Static{})
		if _, err := scorer.ScoreResponseRelevancy(context.Background(), "q", "r"); !errors.Is(err, ErrScoringFailed) {
			t.Fatalf("want ErrScoringFailed, got %v", err)
		}
	})
}
