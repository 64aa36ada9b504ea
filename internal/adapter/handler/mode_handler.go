package handler

import (
	"context"
	"log/slog"
	"net/http"

	"tickerscan/internal/application/service"
	"tickerscan/internal/domain/model"
)

type ModeHandler struct {
	modeService *service.ModeService
	switchFn    func(context.Context, model.DataMode) error
	log         *slog.Logger
}

func NewModeHandler(ms *service.ModeService, switchFn func(context.Context, model.DataMode) error, log *slog.Logger) *ModeHandler {
	return &ModeHandler{
		modeService: ms,
		switchFn:    switchFn,
		log:         log,
	}
}

func (h *ModeHandler) SwitchToTest(w http.ResponseWriter, r *http.Request) {
	h.log.Info("received request to switch to test mode")
	h.switchMode(w, r, model.TestMode)
}

func (h *ModeHandler) SwitchToLive(w http.ResponseWriter, r *http.Request) {
	h.log.Info("received request to switch to live mode")
	h.switchMode(w, r, model.LiveMode)
}

// GetMode reports the current data mode.
func (h *ModeHandler) GetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": h.modeService.GetCurrentMode().String()})
}

func (h *ModeHandler) switchMode(w http.ResponseWriter, r *http.Request, mode model.DataMode) {
	currentMode := h.modeService.GetCurrentMode()

	if currentMode == mode {
		h.log.Info("already in requested mode", "mode", mode)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": mode.String(), "message": "already in requested mode"})
		return
	}

	h.log.Info("switching mode", "from", currentMode, "to", mode)

	if err := h.switchFn(r.Context(), mode); err != nil {
		h.log.Error("switch mode failed", "from", currentMode, "to", mode, "error", err)
		http.Error(w, "failed to switch mode", http.StatusInternalServerError)
		return
	}

	h.log.Info("mode switched successfully", "new_mode", mode)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": mode.String()})
}
