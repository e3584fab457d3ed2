package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultSaveInterval = 5 * time.Minute

// Store persists metric values, see database.Store.
type Store interface {
	SaveMetric(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

// Load restores counters saved by an earlier run.
func (m *BotMetrics) Load(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	commandsProcessed, err := store.GetMetric("commands_processed")
	if err != nil {
		return errors.Wrap(err, "could not load commands_processed")
	}
	messagesHandled, err := store.GetMetric("messages_handled")
	if err != nil {
		return errors.Wrap(err, "could not load messages_handled")
	}
	m.CommandsProcessed.Add(commandsProcessed)
	m.MessagesHandled.Add(messagesHandled)

	channels, err := store.GetMetricsWithLabels("channel_names")
	if err != nil {
		return errors.Wrap(err, "could not load channel_names")
	}
	for chatIDStr, names := range channels {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Warnf("failed to parse chat id %s: %v", chatIDStr, err)
			continue
		}
		for chatName := range names {
			m.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
			m.channelsSet[chatID] = chatName
		}
	}
	m.ChannelsCount.Set(float64(len(m.channelsSet)))

	perChannel, err := store.GetMetricsWithLabels("messages_per_channel")
	if err != nil {
		return errors.Wrap(err, "could not load messages_per_channel")
	}
	for chatID, names := range perChannel {
		for chatName, value := range names {
			m.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
		}
	}

	log.Debug("metrics loaded from database")
	return nil
}

// Save writes the counters to store.
func (m *BotMetrics) Save(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.SaveMetric("commands_processed", "", "", Value(m.CommandsProcessed)); err != nil {
		return err
	}
	if err := store.SaveMetric("messages_handled", "", "", Value(m.MessagesHandled)); err != nil {
		return err
	}
	if err := store.SaveMetric("channels_count", "", "", float64(len(m.channelsSet))); err != nil {
		return err
	}

	for chatID, chatName := range m.channelsSet {
		if err := store.SaveMetric("channel_names", strconv.FormatInt(chatID, 10), chatName, float64(chatID)); err != nil {
			return err
		}
	}

	err := collectLabeled(m.MessagesPerChannel, func(chatID, chatName string, value float64) error {
		return store.SaveMetric("messages_per_channel", chatID, chatName, value)
	})
	if err != nil {
		return err
	}

	log.Debug("metrics saved to database")
	return nil
}

// Persist saves the metrics every interval and once more when ctx is done.
func (m *BotMetrics) Persist(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Save(store); err != nil {
				log.Errorf("failed to save metrics: %s", err)
			}
		case <-ctx.Done():
			if err := m.Save(store); err != nil {
				log.Errorf("failed to save metrics on shutdown: %s", err)
			}
			return
		}
	}
}
