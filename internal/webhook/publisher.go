package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localhero/hero_finder/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	webhookQueueKey = "webhook_events"
)

// Типы событий жизненного цикла инцидента
const (
	EventIncidentCreated = "incident.created"
	EventIncidentClaimed = "incident.claimed"
)

// Event - структура для данных вебхука
type Event struct {
	Type      string           `json:"type"`
	Incident  *models.Incident `json:"incident"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewIncidentEvent собирает событие вебхука по инциденту
func NewIncidentEvent(eventType string, incident *models.Incident) Event {
	return Event{
		Type:      eventType,
		Incident:  incident,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher - интерфейс для публикации вебхуков
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
