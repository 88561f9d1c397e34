package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"notifier/internal/models"
	"notifier/internal/service"
	"notifier/pkg/utils"
)

// TriggerHandler принимает пакеты триггеров от внешнего evaluator'а
//
// Endpoints:
// - POST /internal/v1/triggers - обработать пакет событий
//
// Контракт с evaluator'ом:
// - 202 Accepted: пакет обработан (по-событийные проигрыши claim'ов и
//   сбои доставки - не повод для retry, они отражены в аудите)
// - 400 Bad Request: пакет не распарсился или не прошел валидацию,
//   retry бессмысленен
// - 500 Internal Server Error: инфраструктурный сбой до claim'ов,
//   evaluator должен переотправить пакет; дублей не будет благодаря
//   атомарному claim'у
type TriggerHandler struct {
	dispatcher service.TriggerDispatcher
}

// NewTriggerHandler создает новый TriggerHandler с внедрением зависимости
func NewTriggerHandler(dispatcher service.TriggerDispatcher) *TriggerHandler {
	return &TriggerHandler{dispatcher: dispatcher}
}

// ProcessTriggers обрабатывает пакет событий триггеров
//
// POST /internal/v1/triggers
//
// Тело запроса:
//
//	{
//	  "timestamp": 1750000000,
//	  "source": "evaluator",
//	  "events": [
//	    {"alert_id": "...", "symbol": "AAPL",
//	     "quote": {"price": 155.3, "volume": 2500000, "change_pct": 3.42}}
//	  ]
//	}
func (h *TriggerHandler) ProcessTriggers(w http.ResponseWriter, r *http.Request) {
	var batch models.TriggerBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateBatch(&batch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.ProcessBatch(r.Context(), &batch); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to process trigger batch")
		return
	}

	respondJSON(w, http.StatusAccepted, SuccessResponse{
		Message: "accepted",
		Data:    map[string]int{"events": len(batch.Events)},
	})
}

// validateBatch проверяет форму пакета до обработки
func validateBatch(batch *models.TriggerBatch) error {
	if len(batch.Events) == 0 {
		return fmt.Errorf("events must not be empty")
	}
	for i := range batch.Events {
		event := &batch.Events[i]
		if event.AlertID == "" {
			return fmt.Errorf("events[%d]: alert_id is required", i)
		}
		if err := utils.ValidateSymbol(event.Symbol); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return nil
}
