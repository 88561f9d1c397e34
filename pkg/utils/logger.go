package utils

// logger.go - настройка структурированного логирования
//
// Назначение:
// Инициализация и настройка структурированного логирования на базе zap.
//
// Функции:
// - InitLogger: создать и настроить logger
//   * Выбор формата (JSON, text)
//   * Уровни: DEBUG, INFO, WARN, ERROR, FATAL
//   * Запись в файл или консоль
// - InitGlobalLogger / GetGlobalLogger / L: глобальный логгер процесса
// - Конструкторы доменных полей: Symbol, AlertID, Channel и т.д.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================
// Конфигурация и инициализация
// ============================================================

// LogConfig - конфигурация логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пустая строка = stdout
	Development bool   // человекочитаемый вывод для локальной разработки
}

// Logger - обертка над zap.Logger с sugar-вариантом для printf-style вызовов
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger создает и настраивает логгер.
// Никогда не возвращает nil: при недоступном файле вывода
// используется fallback на stderr.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	var encoderConfig zapcore.EncoderConfig
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "text", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)
	if config.Output != "" {
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Сервис не должен падать из-за недоступного лог-файла
			sink = zapcore.AddSync(os.Stderr)
		} else {
			sink = zapcore.AddSync(file)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development())
	}

	zapLogger := zap.New(core, opts...)

	return &Logger{
		Logger: zapLogger,
		sugar:  zapLogger.Sugar(),
	}
}

// parseLevel преобразует строковый уровень в zapcore.Level.
// Неизвестные значения дают InfoLevel.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает новый логгер с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{Logger: child, sugar: child.Sugar()}
}

// WithComponent возвращает логгер с полем component
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// WithSymbol возвращает логгер с полем symbol
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithAlertID возвращает логгер с полем alert_id
func (l *Logger) WithAlertID(alertID string) *Logger {
	return l.With(AlertID(alertID))
}

// WithUserID возвращает логгер с полем user_id
func (l *Logger) WithUserID(userID string) *Logger {
	return l.With(UserID(userID))
}

// WithChannel возвращает логгер с полем channel (email / in_app)
func (l *Logger) WithChannel(channel string) *Logger {
	return l.With(Channel(channel))
}

// Sugar возвращает sugar-вариант логгера для printf-style вызовов
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitGlobalLogger инициализирует глобальный логгер из конфигурации
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный логгер.
// Если логгер не был инициализирован, создается логгер по умолчанию.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// ============================================================
// Глобальные функции логирования
// ============================================================

// Debug логирует через глобальный логгер на уровне DEBUG
func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().Logger.Debug(msg, fields...)
}

// Info логирует через глобальный логгер на уровне INFO
func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().Logger.Info(msg, fields...)
}

// Warn логирует через глобальный логгер на уровне WARN
func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().Logger.Warn(msg, fields...)
}

// Error логирует через глобальный логгер на уровне ERROR
func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().Logger.Error(msg, fields...)
}

// Fatal логирует через глобальный логгер на уровне FATAL и завершает процесс
func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().Logger.Fatal(msg, fields...)
}

// Debugf - printf-style логирование на уровне DEBUG
func Debugf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Debugf(template, args...)
}

// Infof - printf-style логирование на уровне INFO
func Infof(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Infof(template, args...)
}

// Warnf - printf-style логирование на уровне WARN
func Warnf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Warnf(template, args...)
}

// Errorf - printf-style логирование на уровне ERROR
func Errorf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Errorf(template, args...)
}

// Fatalf - printf-style логирование на уровне FATAL
func Fatalf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Fatalf(template, args...)
}

// fieldsToInterface конвертирует zap.Field в плоский список
// пар ключ/значение для sugar-логгера
func fieldsToInterface(fields []zap.Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key)
		switch {
		case f.Interface != nil:
			args = append(args, f.Interface)
		case f.String != "":
			args = append(args, f.String)
		default:
			args = append(args, f.Integer)
		}
	}
	return args
}

// ============================================================
// Конструкторы доменных полей
// ============================================================

// Symbol - поле с тикером инструмента
func Symbol(symbol string) zap.Field {
	return zap.String("symbol", symbol)
}

// AlertID - поле с идентификатором алерта
func AlertID(id string) zap.Field {
	return zap.String("alert_id", id)
}

// AlertType - поле с типом алерта (price_above, volume_spike, ...)
func AlertType(alertType string) zap.Field {
	return zap.String("alert_type", alertType)
}

// UserID - поле с идентификатором пользователя
func UserID(id string) zap.Field {
	return zap.String("user_id", id)
}

// NotificationID - поле с идентификатором in-app уведомления
func NotificationID(id string) zap.Field {
	return zap.String("notification_id", id)
}

// Channel - поле с каналом доставки (email / in_app)
func Channel(channel string) zap.Field {
	return zap.String("channel", channel)
}

// Price - поле с ценой
func Price(price float64) zap.Field {
	return zap.Float64("price", price)
}

// Volume - поле с объемом торгов
func Volume(volume int64) zap.Field {
	return zap.Int64("volume", volume)
}

// ChangePct - поле с дневным изменением цены в процентах
func ChangePct(pct float64) zap.Field {
	return zap.Float64("change_pct", pct)
}

// Latency - поле с задержкой в миллисекундах
func Latency(ms float64) zap.Field {
	return zap.Float64("latency_ms", ms)
}

// RequestID - поле с идентификатором запроса
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Component - поле с именем компонента
func Component(name string) zap.Field {
	return zap.String("component", name)
}

// ============================================================
// Переэкспорт стандартных конструкторов zap
// ============================================================

var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.Error
	Any      = zap.Any
)
