// Package service turns bucket notifications into loaded objects. Its
// Iterator consumes MinIO notification events from a message source (Kafka
// via pkg/kafkaclient) and loads each referenced object with a LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"

	"routewatch/pkg/log"
)

// objectCreated prefixes the event names of every object write.
const objectCreated = "s3:ObjectCreated:"

// KeyFilter decides whether an object key is worth loading.
type KeyFilter func(key string) bool

// JSONKeys accepts keys under prefix ending in ".json".
func JSONKeys(prefix string) KeyFilter {
	return func(key string) bool {
		return strings.HasPrefix(key, prefix) && strings.HasSuffix(key, ".json")
	}
}

// Iterator consumes messages from a MessageIterator, interprets each one as a
// MinIO notification, loads every created object that passes the filter and
// yields it on a channel. It is generic over the loaded type T.
//
// The Iterator does not manage the lifecycle of the message source.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	filter      KeyFilter
	logger      log.Logger
}

// NewIterator constructs an Iterator. A nil filter accepts every key.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], filter KeyFilter, logger log.Logger) *Iterator[T] {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	if logger == nil {
		logger = log.Std()
	}
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		filter:      filter,
		logger:      logger,
	}
}

// Objects starts a goroutine that, for every message:
//  1. decodes it as a notification.Info,
//  2. loads each object-created record whose key passes the filter,
//  3. emits a FetchedObject per loaded record,
//  4. commits the message offset once all of its records were handled.
//
// Undecodable messages and failed loads are logged and skipped. A message
// with a failed load is not committed itself, but the commit of any later
// message on the partition moves the group offset past it, so delivery is
// best effort and at most once. Commits happen when the object is handed
// off, before downstream sinks have stored it. The output channel is closed
// when the message channel closes or ctx is done.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var info notification.Info
			if err := json.Unmarshal(msg.Value, &info); err != nil {
				it.logger.Error(err, "Failed to decode notification", "topic", msg.Topic, "offset", msg.Offset)
				it.commit(ctx, msg)
				continue
			}

			complete := true
			for _, record := range info.Records {
				obj, ok := it.fetch(ctx, record)
				if obj == nil {
					complete = complete && ok
					continue
				}
				select {
				case out <- obj:
				case <-ctx.Done():
					return
				}
			}

			if complete {
				it.commit(ctx, msg)
			}
		}
	}()
	return out
}

// fetch loads the object of one record. It returns nil and true for records
// that are skipped on purpose, and nil and false for failed loads.
func (it *Iterator[T]) fetch(ctx context.Context, record notification.Event) (*FetchedObject[T], bool) {
	if !strings.HasPrefix(record.EventName, objectCreated) {
		return nil, true
	}
	bucket := record.S3.Bucket.Name
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		it.logger.Error(err, "Failed to unescape object key", "key", record.S3.Object.Key)
		return nil, true
	}
	if !it.filter(key) {
		it.logger.Debug("Skipping object", "bucket", bucket, "key", key)
		return nil, true
	}

	data, err := it.loader(ctx, bucket, key)
	if err != nil {
		it.logger.Error(err, "Failed to load object", "bucket", bucket, "key", key)
		return nil, false
	}
	return &FetchedObject[T]{Data: data, Bucket: bucket, Key: key, Event: record}, true
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		it.logger.Error(err, "Failed to commit offset", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}
