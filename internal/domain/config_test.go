package domain

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid translation",
			cfg:  Config{MinFrequency: 1, MaxFrequency: 3, Tense: TensePraesens, Modality: ModalityTranslation},
		},
		{
			name: "full band",
			cfg:  Config{MinFrequency: 1, MaxFrequency: 5, Tense: TensePerfekt, Modality: ModalityVerbConjugation},
		},
		{
			name:    "min above max",
			cfg:     Config{MinFrequency: 4, MaxFrequency: 2, Tense: TensePraesens, Modality: ModalityTranslation},
			wantErr: true,
		},
		{
			name:    "out of band",
			cfg:     Config{MinFrequency: 0, MaxFrequency: 6, Tense: TensePraesens, Modality: ModalityTranslation},
			wantErr: true,
		},
		{
			name:    "unknown tense",
			cfg:     Config{MinFrequency: 1, MaxFrequency: 5, Tense: "Plusquamperfekt", Modality: ModalityTranslation},
			wantErr: true,
		},
		{
			name:    "unknown modality",
			cfg:     Config{MinFrequency: 1, MaxFrequency: 5, Tense: TensePraesens, Modality: "charades"},
			wantErr: true,
		},
		{
			name: "conversation with turns",
			cfg:  Config{MinFrequency: 1, MaxFrequency: 5, Tense: TensePraesens, Modality: ModalityConversation, MaxTurns: 6},
		},
		{
			name:    "conversation too long",
			cfg:     Config{MinFrequency: 1, MaxFrequency: 5, Tense: TensePraesens, Modality: ModalityConversation, MaxTurns: 12},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error %v should wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{MinFrequency: 1, MaxFrequency: 5, Modality: ModalityConversation}
	cfg.Normalize()

	if cfg.Tense != TensePraesens {
		t.Errorf("Normalize() tense = %q; want default %q", cfg.Tense, TensePraesens)
	}
	if cfg.MaxTurns != DefaultConversationTurns {
		t.Errorf("Normalize() max turns = %d; want %d", cfg.MaxTurns, DefaultConversationTurns)
	}

	cfg = Config{MinFrequency: 1, MaxFrequency: 5, Modality: ModalityTranslation, MaxTurns: 9}
	cfg.Normalize()
	if cfg.MaxTurns != 0 {
		t.Errorf("Normalize() should zero max turns for non-conversation, got %d", cfg.MaxTurns)
	}
}
