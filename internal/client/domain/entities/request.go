package entities

import (
	"net/http"
	"time"
)

// Request - исходящий запрос к API.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Queueable разрешает поставить запрос в офлайн-очередь при отсутствии сети.
	Queueable bool
}

// Response - ответ сервера.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// QueuedRequest - сериализуемый снимок запроса в офлайн-очереди.
// Header хранит заголовки вызывающего кода до декорирования.
type QueuedRequest struct {
	ID         string              `json:"id"`
	Method     string              `json:"method"`
	URL        string              `json:"url"`
	Header     map[string][]string `json:"headers,omitempty"`
	Body       []byte              `json:"body,omitempty"`
	EnqueuedAt time.Time           `json:"enqueuedAt"`
}

// IsWriteMethod сообщает, изменяет ли метод состояние на сервере.
func IsWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
