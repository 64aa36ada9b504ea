package service

import (
	"context"
	"log/slog"
	"sync"

	"tickerscan/internal/domain/model"
)

// ModeService holds the current data mode.
type ModeService struct {
	currentMode model.DataMode
	mu          sync.RWMutex
	logger      *slog.Logger
}

func NewModeService(initial model.DataMode, logger *slog.Logger) *ModeService {
	return &ModeService{
		currentMode: initial,
		logger:      logger,
	}
}

func (s *ModeService) SwitchMode(ctx context.Context, mode model.DataMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentMode == mode {
		return nil
	}

	s.logger.Info("mode_service: mode updated", "old", s.currentMode, "new", mode)
	s.currentMode = mode
	return nil
}

func (s *ModeService) GetCurrentMode() model.DataMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentMode
}
