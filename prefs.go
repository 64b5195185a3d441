package main

import (
	"context"
	"encoding/json"
	"fmt"
)

// Preferences representa as preferências de exibição de um usuário
// (tema e localização), persistidas atrás de um KVStore injetado.
type Preferences struct {
	Theme    string `json:"theme"`
	Location string `json:"location"`
}

// PreferenceService carrega e salva preferências com defaults explícitos.
type PreferenceService struct {
	kv       KVStore
	defaults Preferences
}

// NewPreferenceService cria uma nova instância de PreferenceService
func NewPreferenceService(kv KVStore) *PreferenceService {
	return &PreferenceService{
		kv: kv,
		defaults: Preferences{
			Theme:    "light",
			Location: "Lagos",
		},
	}
}

func prefsKey(userID string) string {
	return "prefs:user:" + userID
}

// Load carrega as preferências de um usuário; ausência retorna os defaults.
func (s *PreferenceService) Load(ctx context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return Preferences{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	raw, err := s.kv.Get(ctx, prefsKey(userID))
	if err != nil {
		if err == ErrCacheMiss {
			return s.defaults, nil
		}
		return Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs := s.defaults
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return s.defaults, nil
	}
	return prefs, nil
}

// Save persiste as preferências de um usuário (sem TTL).
func (s *PreferenceService) Save(ctx context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := s.kv.Set(ctx, prefsKey(userID), string(raw), 0); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
