package analytics

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
)

const (
	kafkaMaxRetries    = 3
	kafkaFlushInterval = 500 * time.Millisecond
)

// KafkaPublisher implements Publisher on a sarama async producer keyed by
// session id, so events of one session stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = kafkaMaxRetries
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = kafkaFlushInterval
	return config
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger.With(zap.String("component", "analytics")),
	}

	p.wg.Add(1)
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		p.log.Warn("[ANALYTICS] Failed to deliver event", zap.Error(perr.Err))
	}
}

func (p *KafkaPublisher) Publish(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("[ANALYTICS] Failed to marshal event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
		Timestamp: event.Timestamp,
	}

	// a producer that is not keeping up loses the event, the game goes on
	select {
	case p.producer.Input() <- msg:
	default:
		metrics.AnalyticsDropped.WithLabelValues(event.Type).Inc()
		p.log.Warn("[ANALYTICS] Producer input full, dropping event",
			zap.String("type", event.Type),
			zap.String("session", event.SessionID))
	}
}

// Close flushes buffered events and waits for the error drain to finish.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}
