package models

// SymbolQuote - эфемерный снимок рыночных данных по одному символу.
//
// Передается внешним evaluator'ом вместе с событием триггера и используется
// только для форматирования сообщений. Сервис его не персистит.
type SymbolQuote struct {
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume"`
	ChangePct float64 `json:"change_pct"`
}

// TriggerEvent - одно событие "условие правила выполнено" от evaluator'а.
//
// Evaluator сам решает, выполнено ли условие; этот сервис - чистый
// потребитель решения. Quote обязателен: без него нечего форматировать.
type TriggerEvent struct {
	AlertID string      `json:"alert_id"`
	Symbol  string      `json:"symbol"`
	Quote   SymbolQuote `json:"quote"`
}

// TriggerBatch - пакет событий одного цикла оценки evaluator'а.
type TriggerBatch struct {
	Timestamp int64          `json:"timestamp"`
	Source    string         `json:"source"`
	Events    []TriggerEvent `json:"events"`
}
