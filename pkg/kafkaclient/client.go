// Package kafkaclient consumes a Kafka topic into a channel with manual offset
// commits.
package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"routewatch/pkg/log"
)

// Reader is the subset of *kafka.Reader the consumer needs, so tests can
// substitute a mock.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config locates the topic to consume.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Validate reports a missing broker, topic or group.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 || c.Topic == "" || c.GroupID == "" {
		return fmt.Errorf("kafka brokers, topic and group ID are required")
	}
	return nil
}

// Consumer reads messages on a single goroutine and hands them out through
// Messages. Offsets are only committed through CommitOffset.
type Consumer struct {
	reader Reader
	logger log.Logger
	// retryDelay is the pause after a failed read.
	retryDelay time.Duration

	doneChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	messageChan chan kafka.Message
}

// NewConsumer creates a consumer group reader for cfg.
func NewConsumer(cfg Config, logger log.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Offsets are committed explicitly after an object was loaded.
		CommitInterval: 0,
		MinBytes:       10e3,
		MaxBytes:       10e6,
	})
	return newConsumer(reader, logger), nil
}

func newConsumer(reader Reader, logger log.Logger) *Consumer {
	if logger == nil {
		logger = log.Std()
	}
	return &Consumer{
		reader:      reader,
		logger:      logger,
		retryDelay:  time.Second,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

// Messages returns the channel fed by StartConsuming. It is closed when the
// loop stops.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messageChan
}

// CommitOffset commits msg for the consumer group.
func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug("Committing offset", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	return c.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the read loop in a separate goroutine.
func (c *Consumer) StartConsuming(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messageChan)

		c.logger.Info("Starting Kafka consumer loop")
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Context canceled, stopping consumer loop")
				return
			case <-c.doneChan:
				c.logger.Info("Shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
					c.logger.Info("Reader closed, stopping consumer loop")
					return
				}
				c.logger.Error(err, "Failed to read message")
				select {
				case <-time.After(c.retryDelay):
				case <-ctx.Done():
				case <-c.doneChan:
				}
				continue
			}

			select {
			case c.messageChan <- msg:
				c.logger.Debug("Message received", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			case <-ctx.Done():
				return
			case <-c.doneChan:
				return
			}
		}
	}()
}

// Stop ends the read loop, waits for it and closes the reader. It is safe to
// call more than once.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping Kafka consumer")
		close(c.doneChan)
		c.wg.Wait()
		if err := c.reader.Close(); err != nil {
			c.logger.Error(err, "Failed to close Kafka reader")
		}
		c.logger.Info("Kafka consumer stopped")
	})
}
