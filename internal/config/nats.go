package config

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

func ConnectNATS(c NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(c.URL,
		nats.Name("family-site"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats at %s: %w", c.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to open jetstream context: %w", err)
	}

	return nc, js, nil
}
