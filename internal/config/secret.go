package config

// Secret - обертка для чувствительных значений (пароли, токены).
//
// Дефолтная строковая и JSON сериализация всегда возвращает "[REDACTED]",
// чтобы значение не утекло в логи или debug-вывод через %v / %s / %#v /
// json.Marshal. Единственный способ получить значение - явный вызов Value().
type Secret struct {
	value string
}

// NewSecret оборачивает значение в Secret
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value возвращает исходное значение. Использовать только в точке
// передачи в транспорт (smtp.PlainAuth и т.п.), не в логах.
func (s Secret) Value() string {
	return s.value
}

// String реализует fmt.Stringer с редактированием значения
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString реализует fmt.GoStringer, закрывая утечку через %#v
func (s Secret) GoString() string {
	return `config.Secret("[REDACTED]")`
}

// MarshalJSON редактирует значение при JSON сериализации
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
