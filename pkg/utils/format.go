package utils

import (
	"fmt"
	"strings"
)

// format.go - форматирование значений для текстов уведомлений
//
// Назначение:
// Человекочитаемое представление цен, объемов и типов алертов,
// используемое в заголовках и телах email и in-app уведомлений.

// ============================================================
// Форматирование чисел
// ============================================================

// FormatPrice форматирует цену с двумя знаками после запятой и знаком доллара
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// FormatVolume форматирует объем с суффиксами K/M/B
//
// Примеры:
//   - 2_500_000_000 -> "2.5B"
//   - 1_200_000     -> "1.2M"
//   - 45_000        -> "45.0K"
//   - 900           -> "900"
func FormatVolume(vol float64) string {
	switch {
	case vol >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", vol/1_000_000_000)
	case vol >= 1_000_000:
		return fmt.Sprintf("%.1fM", vol/1_000_000)
	case vol >= 1_000:
		return fmt.Sprintf("%.1fK", vol/1_000)
	default:
		return fmt.Sprintf("%.0f", vol)
	}
}

// ============================================================
// Типы алертов
// ============================================================

var alertTypeLabels = map[string]string{
	"price_above":      "Price Above",
	"price_below":      "Price Below",
	"price_change_pct": "Price Change %",
	"volume_above":     "Volume Above",
	"volume_below":     "Volume Below",
	"volume_spike":     "Volume Spike",
	"news":             "News Alert",
	"earnings":         "Earnings Report",
}

// AlertTypeLabel возвращает человекочитаемую метку типа алерта.
// Для неизвестных типов подчеркивания заменяются пробелами.
func AlertTypeLabel(alertType string) string {
	if label, ok := alertTypeLabels[alertType]; ok {
		return label
	}
	return strings.ReplaceAll(alertType, "_", " ")
}
