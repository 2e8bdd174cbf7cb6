package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/promptloom/promptloom/internal/domain"
)

// EventChannel is the redis pub/sub channel carrying mutation events.
const EventChannel = "promptloom:events"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, EventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime forwards events from the pub/sub channel to output until ctx is
// done or input closes. Values received on input replace the event-type
// filter; an empty filter forwards everything.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.Event) {
	sub := s.rdb.Subscribe(ctx, EventChannel)
	defer sub.Close()

	filter := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return
		case types, ok := <-input:
			if !ok {
				return
			}
			filter = map[string]bool{}
			for _, t := range types {
				filter[t] = true
			}
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error("malformed event payload",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			if len(filter) > 0 && !filter[event.Type] {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
