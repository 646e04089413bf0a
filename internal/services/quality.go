package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

// Default scoring rubrics. The prompt rubric substitutes the text under
// review; the relevancy rubric substitutes the user's query first, then the
// generated response. Both demand a fixed three-line X/10 answer format.
const (
	defaultPromptScoreTemplate = "Analysez le texte suivant et évaluez-le sur une échelle de 1 à 10 selon trois critères : " +
		"clarté, spécificité et efficacité. Répondez uniquement dans le format suivant :\n\n" +
		"1. Clarté: X/10\n2. Spécificité: X/10\n3. Efficacité: X/10\n\n" +
		"Aucune autre information ou texte n'est nécessaire. Assurez-vous que la réponse suit exactement ce format.\n\n" +
		"Texte : \"%s\""
	defaultRelevancyScoreTemplate = "Évaluez la qualité de la réponse suivante de l'IA basé sur la requête pour une " +
		"utilisation sur le web. Donnez une note sur une échelle de 1 à 10 pour chaque critère suivant : " +
		"1) Pertinence par rapport au texte de l'utilisateur, 2) Optimisation pour le référencement naturel (SEO), " +
		"et 3) Qualité générale du contenu (structure, lisibilité, ton). Répondez uniquement dans le format suivant :\n\n" +
		"1. Pertinence: X/10\n2. SEO: X/10\n3. Qualité générale: X/10\n\n" +
		"Requête : \"%s\"\n\nRéponse : \"%s\""
)

// QualityScorer grades prompts and responses with a cheap low-temperature
// completion. The model's verdict is returned as opaque text; consumers decide
// how to read it. Rubric texts are overridable through settings.
type QualityScorer struct {
	log *logger.Logger
	ai  openai.Client
	cfg settings.Provider
}

func NewQualityScorer(baseLog *logger.Logger, ai openai.Client, cfg settings.Provider) *QualityScorer {
	return &QualityScorer{
		log: baseLog.With("service", "QualityScorer"),
		ai:  ai,
		cfg: cfg,
	}
}

// ScorePromptQuality grades how well-formed a prompt is against clarity,
// specificity and effectiveness.
func (s *QualityScorer) ScorePromptQuality(ctx context.Context, prompt string) (string, error) {
	template := settings.GetDefault(s.cfg, settings.KeyScoringPromptTemplate, defaultPromptScoreTemplate)
	return s.score(ctx, fmt.Sprintf(template, prompt))
}

// ScoreResponseRelevancy grades a generated response against the query it
// answered: relevance to the user's text, SEO usefulness, overall quality.
func (s *QualityScorer) ScoreResponseRelevancy(ctx context.Context, prompt, response string) (string, error) {
	template := settings.GetDefault(s.cfg, settings.KeyScoringRelevancyTemplate, defaultRelevancyScoreTemplate)
	return s.score(ctx, fmt.Sprintf(template, prompt, response))
}

func (s *QualityScorer) score(ctx context.Context, rubric string) (string, error) {
	temperature := 0.3
	resp, err := s.ai.ChatComplete(ctx, openai.ChatRequest{
		Model: settings.GetDefault(s.cfg, settings.KeyModel, "gpt-4o"),
		Messages: []openai.ChatMessage{
			{Role: "user", Content: rubric},
		},
		MaxTokens:   50,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}

	verdict, ok := resp.FirstContent()
	if !ok {
		return "", fmt.Errorf("%w: empty completion", ErrScoringFailed)
	}
	return strings.TrimSpace(verdict), nil
}
