package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonBufferPool убирает аллокации при каждой отправке
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// userMessage - сообщение, адресованное всем соединениям одного пользователя
type userMessage struct {
	userID  string
	payload []byte
}

// Hub управляет всеми активными WebSocket соединениями.
//
// В отличие от классического broadcast-всем hub'а, сообщения ленты
// адресные: запись видит только ее владелец. Один пользователь может
// держать несколько соединений (вкладки, устройства) - сообщение
// уходит в каждое.
//
// Использование:
//  1. Создать hub: hub := NewHub(logger)
//  2. Запустить в горутине: go hub.Run()
//  3. Отправлять: hub.BroadcastAlertNotification(userID, notif)
type Hub struct {
	// Зарегистрированные клиенты и индекс по пользователю
	clients map[*Client]bool
	byUser  map[string]map[*Client]bool

	// Адресные сообщения
	send chan userMessage

	// Регистрация и отмена регистрации клиентов
	register   chan *Client
	unregister chan *Client

	// Сигнал остановки главного цикла
	done chan struct{}

	// Счетчик сообщений, отброшенных из-за переполнения канала
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients/byUser
	mu sync.RWMutex

	logger *utils.Logger
}

// NewHub создает новый Hub
func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		send:       make(chan userMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("ws_hub"),
	}
}

// Run запускает главный цикл Hub.
//
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.byUser[client.userID] == nil {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected",
				utils.UserID(client.userID), utils.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClientLocked(client)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected",
				utils.UserID(client.userID), utils.Int("total_clients", total))

		case msg := <-h.send:
			// Копируем список соединений пользователя под коротким RLock
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.byUser[msg.userID]))
			for client := range h.byUser[msg.userID] {
				targets = append(targets, client)
			}
			h.mu.RUnlock()

			// Отправляем без блокировки hub'а; медленных клиентов отключаем
			var toRemove []*Client
			for _, client := range targets {
				select {
				case client.send <- msg.payload:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					h.removeClientLocked(client)
				}
				h.mu.Unlock()
				h.logger.Warn("removed slow clients", utils.Int("count", len(toRemove)))
			}
		}
	}
}

// removeClientLocked удаляет клиента из обоих индексов. Вызывается под mu.
func (h *Hub) removeClientLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if conns := h.byUser[client.userID]; conns != nil {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	close(client.send)
}

// Stop останавливает главный цикл Hub
func (h *Hub) Stop() {
	close(h.done)
}

// SendToUser сериализует сообщение и отправляет его всем соединениям
// пользователя. Не блокируется: при переполненном канале сообщение
// отбрасывается (лента в БД остается источником истины).
func (h *Hub) SendToUser(userID string, message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.logger.Error("failed to marshal ws message", utils.Err(err))
		jsonBufferPool.Put(buf)
		return
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернется в пул)
	payload := make([]byte, len(data))
	copy(payload, data)
	jsonBufferPool.Put(buf)

	select {
	case h.send <- userMessage{userID: userID, payload: payload}:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastAlertNotification отправляет владельцу новую запись ленты
func (h *Hub) BroadcastAlertNotification(userID string, notification *models.InAppNotification) {
	h.SendToUser(userID, NewAlertNotificationMessage(notification))
}

// BroadcastUnreadCount отправляет владельцу свежий счетчик непрочитанных
func (h *Hub) BroadcastUnreadCount(userID string, count int) {
	h.SendToUser(userID, NewUnreadCountMessage(count))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserCount возвращает количество пользователей с активными соединениями
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
