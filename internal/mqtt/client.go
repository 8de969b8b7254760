// Package mqtt publishes detection events to an MQTT broker as JSON
// messages, acting as an event bus consumer.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/conf"
	"github.com/tphakala/soundwatch-go/internal/errors"
	"github.com/tphakala/soundwatch-go/internal/logging"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// Client wraps the paho MQTT client for detection publishing.
type Client struct {
	broker   string
	clientID string
	username string
	password string
	topic    string
	retain   bool

	mu       sync.Mutex
	internal mqtt.Client
	logger   *slog.Logger
}

// NewClient creates a detection publisher from the application settings.
func NewClient(settings *conf.Settings) *Client {
	return &Client{
		broker:   settings.Realtime.MQTT.Broker,
		clientID: settings.Main.Name,
		username: settings.Realtime.MQTT.Username,
		password: settings.Realtime.MQTT.Password,
		topic:    settings.Realtime.MQTT.Topic,
		retain:   settings.Realtime.MQTT.Retain,
		logger:   logging.ForService("mqtt"),
	}
}

// Connect establishes the broker connection, waiting up to the connect
// timeout or the context deadline, whichever comes first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.broker)
	opts.SetClientID(c.clientID)
	opts.SetUsername(c.username)
	opts.SetPassword(c.password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("mqtt connection lost", "broker", c.broker, "error", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.logger.Info("mqtt connected", "broker", c.broker)
	})

	c.internal = mqtt.NewClient(opts)

	timeout := connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	token := c.internal.Connect()
	if !token.WaitTimeout(timeout) {
		return errors.Newf("mqtt connection timeout to %s", c.broker).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(fmt.Errorf("mqtt connection failed: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.broker).
			Build()
	}
	return nil
}

// Name implements events.Consumer.
func (c *Client) Name() string { return "mqtt" }

// ProcessDetection implements events.Consumer, publishing the event as JSON.
func (c *Client) ProcessDetection(event *acoustic.DetectionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internal == nil || !c.internal.IsConnected() {
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Build()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.New(fmt.Errorf("failed to encode detection event: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Build()
	}

	token := c.internal.Publish(c.topic, 0, c.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Newf("mqtt publish timeout on topic %s", c.topic).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Build()
	}
	return token.Error()
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.internal != nil && c.internal.IsConnected() {
		c.internal.Disconnect(250)
	}
}
