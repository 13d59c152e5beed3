package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	maxClientsPerUser = 10
	maxGlobalClients  = 1000

	EventShiftOffered = "shift_offered"
)

var (
	ErrTooManyClients = errors.New("max global connections reached")
	ErrTooManyTabs    = errors.New("max connections for user reached")
)

type Client struct {
	Events chan string
}

// Broker distribui eventos para as conexões abertas de cada profissional.
type Broker struct {
	clients      map[int64]map[*Client]bool
	mutex        sync.RWMutex
	stop         chan struct{}
	stopOnce     sync.Once
	totalClients int
	keepAlive    time.Duration
}

func NewBroker() *Broker {
	return &Broker{
		clients:   make(map[int64]map[*Client]bool),
		stop:      make(chan struct{}),
		keepAlive: 25 * time.Second,
	}
}

func (b *Broker) Subscribe(userID int64) (*Client, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.totalClients >= maxGlobalClients {
		return nil, ErrTooManyClients
	}

	if b.clients[userID] == nil {
		b.clients[userID] = make(map[*Client]bool)
	}

	if len(b.clients[userID]) >= maxClientsPerUser {
		return nil, ErrTooManyTabs
	}

	client := &Client{
		Events: make(chan string, 16),
	}

	b.clients[userID][client] = true
	b.totalClients++
	return client, nil
}

func (b *Broker) Unsubscribe(client *Client, userID int64) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if clients, ok := b.clients[userID]; ok {
		if _, found := clients[client]; !found {
			return
		}
		delete(clients, client)
		close(client.Events)
		if len(clients) == 0 {
			delete(b.clients, userID)
		}
		b.totalClients--
	}
}

// Format monta a mensagem no formato text/event-stream; cada linha do HTML
// vira uma linha data.
func Format(eventType, html string) string {
	var formattedData strings.Builder
	lines := strings.Split(html, "\n")
	for i, line := range lines {
		formattedData.WriteString("data: " + line)
		if i < len(lines)-1 {
			formattedData.WriteString("\n")
		}
	}
	return fmt.Sprintf("event: %s\n%s\n\n", eventType, formattedData.String())
}

// SendHTML entrega o evento a todas as abas do usuário. Clientes lentos
// perdem o evento em vez de travar o worker. Retorna quantos receberam.
func (b *Broker) SendHTML(userID int64, eventType, html string) int {
	message := Format(eventType, html)

	b.mutex.RLock()
	defer b.mutex.RUnlock()

	delivered := 0
	for client := range b.clients[userID] {
		select {
		case client.Events <- message:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broker) Clients() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.totalClients
}

// Shutdown encerra todas as conexões abertas.
func (b *Broker) Shutdown() {
	b.stopOnce.Do(func() { close(b.stop) })
}

// Handler serve o stream do usuário resolvido por userFn; zero significa
// requisição não autenticada.
func (b *Broker) Handler(userFn func(ctx context.Context) int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFn(r.Context())
		if userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// ResponseController atravessa os wrappers dos middlewares via Unwrap
		rc := http.NewResponseController(w)

		client, err := b.Subscribe(userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer b.Unsubscribe(client, userID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		fmt.Fprintf(w, ": ok\n\n")
		if err := rc.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(b.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Events:
				if !ok {
					return
				}
				fmt.Fprint(w, message)
				_ = rc.Flush()
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				_ = rc.Flush()
			case <-b.stop:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
