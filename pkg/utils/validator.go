package utils

import (
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode"
)

// validator.go - валидация входных данных
//
// Назначение:
// Проверка значений, приходящих извне (батчи триггеров от evaluator'а,
// настройки тихих часов пользователя), до передачи их в бизнес-логику.
//
// Функции:
// - ValidateSymbol: проверка формата тикера
// - ValidateEmail: проверка email-адреса
// - ValidateTimeOfDay: проверка строки времени "15:04:05"
// - ValidateTimezone: проверка IANA идентификатора временной зоны

// Ошибки валидации
var (
	ErrEmptySymbol   = errors.New("symbol cannot be empty")
	ErrSymbolTooLong = errors.New("symbol exceeds maximum length")
	ErrInvalidSymbol = errors.New("symbol contains invalid characters")
	ErrEmptyEmail    = errors.New("email cannot be empty")
	ErrInvalidEmail  = errors.New("invalid email address")
)

// MaxSymbolLength - максимальная длина тикера.
// Самые длинные реальные тикеры (классы акций, preferred) укладываются в 12.
const MaxSymbolLength = 12

// ValidateSymbol проверяет формат тикера.
// Допускаются заглавные латинские буквы, цифры, точка и дефис
// (BRK.B, BF-B и т.п.).
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if len(symbol) > MaxSymbolLength {
		return ErrSymbolTooLong
	}

	for _, r := range symbol {
		if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '.' || r == '-' {
			continue
		}
		return ErrInvalidSymbol
	}

	return nil
}

// ValidateEmail проверяет синтаксис email-адреса
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}

	// ParseAddress принимает формы вида "Name <a@b.com>"; нам нужен голый адрес
	if addr.Address != email {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateTimeOfDay проверяет строку времени в формате "15:04:05"
// (так хранятся границы тихих часов)
func ValidateTimeOfDay(value string) error {
	if _, err := time.Parse("15:04:05", value); err != nil {
		return fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return nil
}

// ValidateTimezone проверяет IANA идентификатор временной зоны
func ValidateTimezone(tz string) error {
	if tz == "" {
		return errors.New("timezone cannot be empty")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return nil
}
