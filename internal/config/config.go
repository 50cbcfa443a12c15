package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	AllowedOrigins []string
	// StreamerIds holds the identity-provider subjects allowed to own rooms.
	StreamerIds   map[string]struct{}
	SweepInterval time.Duration
	StampHorizon  time.Duration
}

// DecodeSigningSecret decodes a base64 HMAC key and rejects empty keys.
func DecodeSigningSecret(base64Secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("signing secret decodes to an empty key")
	}

	return key, nil
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins, streamerIds []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	// Decode the base64 encoded signing secret
	signingKey, err := DecodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	streamers := make(map[string]struct{}, len(streamerIds))
	for _, id := range streamerIds {
		if id = strings.TrimSpace(id); id != "" {
			streamers[id] = struct{}{}
		}
	}

	return &Config{
		DatabaseDSN:    databaseDSN,
		ServerAddr:     serverAddr,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		StreamerIds:    streamers,
		SweepInterval:  30 * time.Second,
		StampHorizon:   time.Minute,
	}, nil
}

func (c *Config) IsStreamer(externalId string) bool {
	_, ok := c.StreamerIds[externalId]
	return ok
}
