package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/metrics"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// PoolWatcher слушает поток событий создания новых пулов ликвидности
// по WebSocket и раздает их подписчикам по base mint. Каждая активная
// sniper-стратегия подписана на свой mint.
type PoolWatcher struct {
	url    string
	logger *utils.Logger

	mu   sync.RWMutex
	subs map[string][]chan domain.PoolEvent
}

func NewPoolWatcher(url string, logger *utils.Logger) *PoolWatcher {
	return &PoolWatcher{
		url:    url,
		logger: logger,
		subs:   make(map[string][]chan domain.PoolEvent),
	}
}

// Subscribe возвращает канал событий по mint. Канал буферизован:
// медленный подписчик теряет события, а не блокирует остальных.
func (w *PoolWatcher) Subscribe(mint string) <-chan domain.PoolEvent {
	ch := make(chan domain.PoolEvent, 16)
	w.mu.Lock()
	w.subs[mint] = append(w.subs[mint], ch)
	w.mu.Unlock()
	return ch
}

// Unsubscribe убирает канал из подписок
func (w *PoolWatcher) Unsubscribe(mint string, ch <-chan domain.PoolEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	channels := w.subs[mint]
	for i, c := range channels {
		if c == ch {
			w.subs[mint] = append(channels[:i], channels[i+1:]...)
			close(c)
			break
		}
	}
}

// Run держит соединение открытым до отмены контекста,
// переподключаясь с экспоненциальным backoff
func (w *PoolWatcher) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := w.readLoop(ctx)
		if connected {
			// после прожившего соединения отсчет backoff начинается заново
			backoff = time.Second
		}
		if err != nil {
			metrics.FeedErrors.WithLabelValues("pools").Inc()
			w.logger.Warn("Pool feed disconnected: %v, reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > time.Minute {
			backoff = time.Minute
		}
	}
}

// readLoop читает сообщения до разрыва соединения. Первый результат
// сообщает, удалось ли вообще установить соединение.
func (w *PoolWatcher) readLoop(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	w.logger.Info("Pool feed connected: %s", w.url)

	// Закрываем соединение при отмене, чтобы ReadMessage вернулся
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, err
		}

		var event domain.PoolEvent
		if err := json.Unmarshal(message, &event); err != nil {
			w.logger.Warn("Malformed pool event: %v", err)
			continue
		}
		if event.ObservedAt.IsZero() {
			event.ObservedAt = time.Now()
		}

		w.dispatch(event)
	}
}

func (w *PoolWatcher) dispatch(event domain.PoolEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, ch := range w.subs[event.BaseMint] {
		select {
		case ch <- event:
		default:
			// подписчик не успевает, событие пропускается
		}
	}
}
