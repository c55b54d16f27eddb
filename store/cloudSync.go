package store

import (
	"context"
	"os"
	"time"

	"github.com/umkmpro/umkm_backend/config"
)

// PubSubPublisher pushes snapshot-saved events so other devices of the
// same business pull fresh state. Last writer wins across devices.
type PubSubPublisher struct{}

// NewPubSubPublisher returns a publisher, or nil when SYNC_TOPIC is not
// configured (single-device mode). The topic is created on first start;
// failures here are logged only, since publishing retries the client
// anyway.
func NewPubSubPublisher() *PubSubPublisher {
	topic := os.Getenv("SYNC_TOPIC")
	if topic == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := config.GetPubSubClient(ctx)
	if err != nil {
		config.LogError(config.GetLogger(), moduleName, "NewPubSubPublisher", "Error creating pubsub client", topic, err)
		return &PubSubPublisher{}
	}
	if _, err := config.CreateTopicIfNotExists(client, topic); err != nil {
		config.LogError(config.GetLogger(), moduleName, "NewPubSubPublisher", "Error ensuring sync topic", topic, err)
	}
	return &PubSubPublisher{}
}

func (p *PubSubPublisher) PublishSaved(ctx context.Context, businessId string, savedAt int64) error {
	return config.PublishSyncEvent(ctx, config.SyncEvent{
		BusinessId: businessId,
		SavedAt:    savedAt,
		Driver:     os.Getenv("STORAGE_DRIVER"),
	})
}
