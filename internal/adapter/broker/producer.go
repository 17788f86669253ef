package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

var (
	_ port.EventPublisher = (*Producer)(nil)
	_ port.EventPublisher = NopPublisher{}
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewProducer(cfg *config.Config) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaMediaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	go ensureTopic(cfg.KafkaBrokers, cfg.KafkaMediaTopic)

	return &Producer{
		writer:  writer,
		timeout: 10 * time.Second,
	}
}

// ensureTopic creates the topic through the controller; an "already exists"
// error is expected on every start after the first.
func ensureTopic(brokers []string, topic string) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		log.WithError(err).Warn("failed to dial Kafka for topic creation")
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		log.WithError(err).Warn("failed to get Kafka controller")
		return
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		log.WithError(err).Warn("failed to dial Kafka controller")
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.WithError(err).Debugf("topic %s not created", topic)
		return
	}
	log.Infof("Created topic %s", topic)
}

// Publish keys messages by object key so events for one asset stay ordered.
func (p *Producer) Publish(ctx context.Context, event domain.MediaEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal media event: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(sendCtx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send media event to Kafka: %w", err)
	}

	log.WithFields(log.Fields{"type": event.Type, "key": event.Key}).Debug("media event sent")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// NopPublisher is used when KAFKA_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.MediaEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }
