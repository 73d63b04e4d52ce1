// Package generator builds exercises by combining lexicon entries with AI
// generated sentences. Correct answers that can be computed locally (declined
// articles, word order from the generated sentence) never depend on the model
// judging itself later.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/vocab"
)

// Pronouns drilled in verb conjugation exercises.
var pronouns = []string{"ich", "du", "er/sie/es", "wir", "ihr", "sie/Sie"}

// speedTimeLimits maps difficulty to the answer window in seconds.
var speedTimeLimits = map[int]int{1: 15, 2: 12, 3: 10, 4: 8, 5: 6}

// VocabSource supplies random lexicon entries within a frequency band.
type VocabSource interface {
	RandomEntry(ctx context.Context, minFreq, maxFreq int, pos vocab.PartOfSpeech) (*vocab.Entry, error)
}

// Generator produces exercises for every non-conversation modality.
type Generator struct {
	ai     ai.Service
	vocab  VocabSource
	logger *slog.Logger
	now    func() time.Time
}

// New creates a generator.
func New(aiSvc ai.Service, vocabSrc VocabSource, logger *slog.Logger) *Generator {
	return &Generator{
		ai:     aiSvc,
		vocab:  vocabSrc,
		logger: logger,
		now:    time.Now,
	}
}

// Generate builds one exercise for the session's configured modality.
// Failures wrap domain.ErrGeneration so callers can keep the previous
// exercise intact.
func (g *Generator) Generate(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	switch cfg.Modality {
	case domain.ModalityTranslation:
		return g.translation(ctx, cfg, true)
	case domain.ModalityInverseTranslation:
		return g.translation(ctx, cfg, false)
	case domain.ModalityWordSelection:
		return g.wordSelection(ctx, cfg)
	case domain.ModalityArticleSelection:
		return g.articleSelection(ctx, cfg)
	case domain.ModalityFillBlank:
		return g.fillBlank(ctx, cfg)
	case domain.ModalityErrorDetection:
		return g.errorDetection(ctx, cfg)
	case domain.ModalityVerbConjugation:
		return g.verbConjugation(ctx, cfg)
	case domain.ModalitySpeedTranslation:
		return g.speedTranslation(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: modality %q has no generator", domain.ErrGeneration, cfg.Modality)
}

// randomEntry draws from the configured band, relaxing to the full band once
// when the configured one is empty.
func (g *Generator) randomEntry(ctx context.Context, cfg domain.Config, pos vocab.PartOfSpeech) (*vocab.Entry, error) {
	entry, err := g.vocab.RandomEntry(ctx, cfg.MinFrequency, cfg.MaxFrequency, pos)
	if errors.Is(err, vocab.ErrEmptyRange) {
		g.logger.Warn("frequency band empty, relaxing",
			"min", cfg.MinFrequency, "max", cfg.MaxFrequency, "pos", pos)
		entry, err = g.vocab.RandomEntry(ctx, domain.MinDifficulty, domain.MaxDifficulty, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return entry, nil
}

// generate calls the AI with one retry; transient model hiccups should not
// surface as a failed next().
func (g *Generator) generate(ctx context.Context, prompt string, schema ai.Schema, out any) error {
	err := g.ai.Generate(ctx, prompt, schema, out)
	if err == nil {
		return nil
	}
	g.logger.Warn("generation attempt failed, retrying", "schema", schema.Name, "error", err)
	return g.ai.Generate(ctx, prompt, schema, out)
}

func (g *Generator) translation(ctx context.Context, cfg domain.Config, germanToEnglish bool) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartVerb)
	if err != nil {
		return nil, err
	}

	var pair sentencePairResult
	if err := g.generate(ctx, sentencePairPrompt(entry, cfg), sentencePairSchema, &pair); err != nil {
		return nil, err
	}
	if pair.German == "" || pair.English == "" {
		return nil, fmt.Errorf("%w: empty sentence pair", domain.ErrGeneration)
	}

	ex := &domain.TranslationExercise{
		SourceText:      pair.German,
		ReferenceAnswer: pair.English,
		Explanation:     pair.Explanation,
		Tense:           cfg.Tense,
		Verb:            entry.Word,
		VerbEnglish:     entry.English,
		Case:            entry.Case,
	}
	modality := domain.ModalityTranslation
	if !germanToEnglish {
		ex.SourceText, ex.ReferenceAnswer = pair.English, pair.German
		modality = domain.ModalityInverseTranslation
	}
	return &domain.Exercise{Type: modality, Translation: ex}, nil
}

func (g *Generator) wordSelection(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartVerb)
	if err != nil {
		return nil, err
	}

	var res wordSelectionResult
	if err := g.generate(ctx, wordSelectionPrompt(entry, cfg), wordSelectionSchema, &res); err != nil {
		return nil, err
	}
	if len(res.GermanWords) == 0 || res.English == "" {
		return nil, fmt.Errorf("%w: empty word selection", domain.ErrGeneration)
	}

	bank := make([]string, 0, len(res.GermanWords)+len(res.Distractors))
	bank = append(bank, res.GermanWords...)
	bank = append(bank, res.Distractors...)
	rand.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })

	return &domain.Exercise{
		Type: domain.ModalityWordSelection,
		WordSelection: &domain.WordSelectionExercise{
			SourceText:   res.English,
			WordBank:     bank,
			CorrectOrder: res.GermanWords,
			Explanation:  res.Explanation,
		},
	}, nil
}

func (g *Generator) articleSelection(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartNoun)
	if err != nil {
		return nil, err
	}

	grammaticalCase := caseForDifficulty(cfg)
	options, correctIdx := articleOptions(entry.Article, grammaticalCase)

	ex := &domain.ArticleSelectionExercise{
		Noun:          entry.Word,
		English:       entry.English,
		Case:          grammaticalCase,
		Options:       options,
		CorrectOption: correctIdx,
	}

	// The correct option is fixed locally; context and explanation are
	// decoration, so their failure does not fail the exercise.
	var res articleContextResult
	prompt := articleContextPrompt(entry, grammaticalCase, options[correctIdx])
	if err := g.generate(ctx, prompt, articleContextSchema, &res); err != nil {
		g.logger.Warn("article context generation failed", "noun", entry.Word, "error", err)
	} else {
		ex.ContextSentence = res.ContextSentence
		ex.Explanation = res.Explanation
	}

	return &domain.Exercise{Type: domain.ModalityArticleSelection, ArticleSelection: ex}, nil
}

func (g *Generator) fillBlank(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartAny)
	if err != nil {
		return nil, err
	}

	var res fillBlankResult
	if err := g.generate(ctx, fillBlankPrompt(entry, cfg), fillBlankSchema, &res); err != nil {
		return nil, err
	}
	if res.SentenceWithBlank == "" || res.CorrectWord == "" {
		return nil, fmt.Errorf("%w: empty fill-blank", domain.ErrGeneration)
	}

	return &domain.Exercise{
		Type: domain.ModalityFillBlank,
		FillBlank: &domain.FillBlankExercise{
			SentenceWithBlank: res.SentenceWithBlank,
			CorrectWord:       res.CorrectWord,
			Hint:              res.Hint,
			English:           res.English,
			Explanation:       res.Explanation,
		},
	}, nil
}

func (g *Generator) errorDetection(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartVerb)
	if err != nil {
		return nil, err
	}

	var res errorDetectionResult
	if err := g.generate(ctx, errorDetectionPrompt(entry, cfg), errorDetectionSchema, &res); err != nil {
		return nil, err
	}
	if res.FlawedSentence == "" || res.CorrectedSentence == "" {
		return nil, fmt.Errorf("%w: empty error-detection", domain.ErrGeneration)
	}

	return &domain.Exercise{
		Type: domain.ModalityErrorDetection,
		ErrorDetection: &domain.ErrorDetectionExercise{
			FlawedSentence:    res.FlawedSentence,
			CorrectedSentence: res.CorrectedSentence,
			ErrorType:         res.ErrorType,
			ErrorLocation:     res.ErrorLocation,
			English:           res.English,
			Explanation:       res.Explanation,
		},
	}, nil
}

func (g *Generator) verbConjugation(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	entry, err := g.randomEntry(ctx, cfg, vocab.PartVerb)
	if err != nil {
		return nil, err
	}
	pronoun := pronouns[rand.IntN(len(pronouns))]

	var res conjugationResult
	if err := g.generate(ctx, conjugationPrompt(entry, pronoun, cfg.Tense), conjugationSchema, &res); err != nil {
		return nil, err
	}
	if res.CorrectForm == "" {
		return nil, fmt.Errorf("%w: empty conjugation", domain.ErrGeneration)
	}

	return &domain.Exercise{
		Type: domain.ModalityVerbConjugation,
		VerbConjugation: &domain.VerbConjugationExercise{
			Infinitive:      entry.Word,
			English:         entry.English,
			Pronoun:         pronoun,
			Tense:           cfg.Tense,
			CorrectForm:     res.CorrectForm,
			ExampleSentence: res.ExampleSentence,
			Explanation:     res.Explanation,
		},
	}, nil
}

func (g *Generator) speedTranslation(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	var res speedPhraseResult
	if err := g.generate(ctx, speedPhrasePrompt(cfg), speedPhraseSchema, &res); err != nil {
		return nil, err
	}
	if res.German == "" || res.English == "" {
		return nil, fmt.Errorf("%w: empty speed phrase", domain.ErrGeneration)
	}

	difficulty := cfg.MaxFrequency
	limit, ok := speedTimeLimits[difficulty]
	if !ok {
		limit = speedTimeLimits[domain.MaxDifficulty]
	}

	return &domain.Exercise{
		Type: domain.ModalitySpeedTranslation,
		SpeedTranslation: &domain.SpeedTranslationExercise{
			SourceText:       res.German,
			ReferenceAnswer:  res.English,
			Difficulty:       difficulty,
			Category:         res.Category,
			GeneratedAt:      g.now(),
			TimeLimitSeconds: limit,
		},
	}, nil
}
