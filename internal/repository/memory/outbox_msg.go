package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

type outboxMsgRepository struct {
	store *Store
}

func (r *outboxMsgRepository) CreateOutboxMsg(ctx context.Context, params repository.CreateOutboxMsgParams) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate outbox msg id: %w", err)
	}

	msg := repository.OutboxMsg{
		ID:           id,
		Topic:        params.Topic,
		Headers:      maps.Clone(params.Headers),
		Payload:      slices.Clone(params.Payload),
		PartitionKey: params.PartitionKey,
		CreatedAt:    time.Now(),
	}

	return r.store.write(ctx, func(st *state) (func(*state), error) {
		st.outbox = append(st.outbox, outboxEntry{msg: msg})

		return func(st *state) {
			st.outbox = slices.DeleteFunc(st.outbox, func(e outboxEntry) bool { return e.msg.ID == id })
		}, nil
	})
}

func (r *outboxMsgRepository) ListUnprocessedOutboxMsgs(ctx context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]repository.OutboxMsg, error) {
	var msgs []repository.OutboxMsg
	err := r.store.read(ctx, func(st *state) error {
		for _, e := range st.outbox {
			if len(msgs) >= int(params.BatchSize) {
				break
			}
			if !e.processed {
				msgs = append(msgs, e.msg)
			}
		}
		return nil
	})

	return msgs, err
}

func (r *outboxMsgRepository) BulkUpdateOutboxMsgs(ctx context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	updates := make(map[uuid.UUID]*string, len(params.Items))
	for _, item := range params.Items {
		updates[item.ID] = item.Error
	}

	return r.store.write(ctx, func(st *state) (func(*state), error) {
		previous := map[uuid.UUID]outboxEntry{}
		for i, e := range st.outbox {
			msgErr, ok := updates[e.msg.ID]
			if !ok {
				continue
			}
			previous[e.msg.ID] = e
			st.outbox[i].processed = true
			st.outbox[i].err = msgErr
		}

		return func(st *state) {
			for i, e := range st.outbox {
				if prev, ok := previous[e.msg.ID]; ok {
					st.outbox[i] = prev
				}
			}
		}, nil
	})
}

// OutboxMsgError returns the recorded publish error of a processed message.
func (s *Store) OutboxMsgError(id uuid.UUID) (processed bool, msgErr *string) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, e := range s.st.outbox {
		if e.msg.ID == id {
			return e.processed, e.err
		}
	}
	return false, nil
}
