package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

type ListenerConfig struct {
	ConnString string
	Channel    string
}

// Listener turns Postgres NOTIFY payloads from the blog application into
// worker events. The CRUD layer fires
//
//	NOTIFY post_embedding_events, '{"documentId":"...","op":"generate"}'
//
// from its post mutation path.
type Listener struct {
	config ListenerConfig
	conn   *pgx.Conn
}

func NewListener(ctx context.Context, config ListenerConfig) (*Listener, error) {
	if config.Channel == "" {
		config.Channel = "post_embedding_events"
	}

	conn, err := pgx.Connect(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %v", err)
	}

	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{config.Channel}.Sanitize())
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %v", config.Channel, err)
	}

	return &Listener{
		config: config,
		conn:   conn,
	}, nil
}

// Listen forwards decoded events until the context is cancelled.
// Malformed payloads are logged and skipped.
func (l *Listener) Listen(ctx context.Context, events chan<- Event) error {
	for {
		notification, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed waiting for notification: %v", err)
		}

		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			log.Printf("jobs: malformed notification payload %q: %v", notification.Payload, err)
			continue
		}
		if ev.DocumentID == "" {
			log.Printf("jobs: notification without document id: %q", notification.Payload)
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) Close(ctx context.Context) error {
	if l.conn != nil {
		return l.conn.Close(ctx)
	}
	return nil
}
