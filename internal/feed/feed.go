package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localhero/hero_finder/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const incidentChannel = "incident_changes"

// Op - вид изменения строки
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// ChangeEvent - событие изменения строки incidents. Несет снимок строки,
// чтобы подписчик мог обновить локальное представление без дочитывания.
type ChangeEvent struct {
	Table      string           `json:"table"`
	Op         Op               `json:"op"`
	Incident   *models.Incident `json:"incident"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewIncidentEvent собирает событие по инциденту
func NewIncidentEvent(op Op, incident *models.Incident) ChangeEvent {
	return ChangeEvent{
		Table:      "incidents",
		Op:         op,
		Incident:   incident,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher - интерфейс публикации событий фида
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Subscriber - интерфейс подписки на фид. Возвращенная функция
// снимает подписку и закрывает канал.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan ChangeEvent, func(), error)
}

// RedisFeed - реализация фида поверх Redis pub/sub.
// Доставка at-least-once и без гарантий порядка между клиентами:
// победителя гонки определяет атомарность claim, а не порядок событий.
type RedisFeed struct {
	redisClient *redis.Client
	logger      *logrus.Logger
}

func NewRedisFeed(client *redis.Client, logger *logrus.Logger) *RedisFeed {
	return &RedisFeed{
		redisClient: client,
		logger:      logger,
	}
}

// Publish публикует событие в канал инцидентов
func (f *RedisFeed) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.redisClient.Publish(ctx, incidentChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event to Redis: %w", err)
	}
	return nil
}

// Subscribe подписывается на канал инцидентов. События читаются в горутине
// и отдаются в канал; отмена контекста или вызов unsubscribe завершают ее.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, func(), error) {
	pubsub := f.redisClient.Subscribe(ctx, incidentChannel)

	// Дожидаемся подтверждения подписки, чтобы не терять ранние события
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to incident channel: %w", err)
	}

	events := make(chan ChangeEvent)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.logger.WithError(err).Error("Failed to unmarshal change event")
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		if err := pubsub.Close(); err != nil {
			f.logger.WithError(err).Warn("Failed to close feed subscription")
		}
	}
	return events, unsubscribe, nil
}
