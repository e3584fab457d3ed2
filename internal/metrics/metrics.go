package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "crypto_daddy"
	subsystem = "telegram_bot"
)

type BotMetrics struct {
	CommandsProcessed   prometheus.Counter
	MessagesHandled     prometheus.Counter
	ChannelsCount       prometheus.Gauge
	ChannelNames        *prometheus.CounterVec
	MessagesPerChannel  *prometheus.CounterVec
	SourceFetchFailures *prometheus.CounterVec
	CacheRefreshes      *prometheus.CounterVec

	mu          sync.Mutex
	channelsSet map[int64]string
}

// New creates the bot metrics and registers them with reg.
func New(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique channels the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "channel_names",
				Help:      "Tracks channels the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per channel",
			},
			[]string{"chat_id", "chat_name"},
		),
		SourceFetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "source_fetch_failures",
				Help:      "The total number of failed requests to upstream sites",
			},
			[]string{"source"},
		),
		CacheRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_refreshes",
				Help:      "The total number of cache refreshes by result",
			},
			[]string{"cache", "result"},
		),
		channelsSet: make(map[int64]string),
	}

	reg.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.ChannelsCount,
		m.ChannelNames,
		m.MessagesPerChannel,
		m.SourceFetchFailures,
		m.CacheRefreshes,
	)

	return m
}

// ObserveMessage counts a command message received in a chat.
func (m *BotMetrics) ObserveMessage(chatID int64, chatName string) {
	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}
	m.MessagesHandled.Inc()

	m.mu.Lock()
	if _, exists := m.channelsSet[chatID]; !exists {
		m.channelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channelsSet)))
		m.ChannelNames.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
	}
	m.mu.Unlock()

	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
}

func (m *BotMetrics) ObserveCommand() {
	m.CommandsProcessed.Inc()
}

// ObserveRefresh has the signature of a cache refresh hook.
func (m *BotMetrics) ObserveRefresh(name string, degraded bool, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "failed"
	case degraded:
		result = "degraded"
	}
	m.CacheRefreshes.WithLabelValues(name, result).Inc()
}

func (m *BotMetrics) ObserveFetchFailure(source string, _ error) {
	m.SourceFetchFailures.WithLabelValues(source).Inc()
}

// Channels returns the number of distinct chats seen so far.
func (m *BotMetrics) Channels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channelsSet)
}

// Value reads the current value of a single counter or gauge.
func Value(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}

// collectLabeled walks every child of vec with its chat_id and chat_name labels.
func collectLabeled(vec *prometheus.CounterVec, fn func(chatID, chatName string, value float64) error) error {
	metricChan := make(chan prometheus.Metric)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	var firstErr error
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrap(err, "could not read metric")
			}
			continue
		}
		var chatID, chatName string
		for _, label := range metricProto.Label {
			switch label.GetName() {
			case "chat_id":
				chatID = label.GetValue()
			case "chat_name":
				chatName = label.GetValue()
			}
		}
		if err := fn(chatID, chatName, metricProto.Counter.GetValue()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
