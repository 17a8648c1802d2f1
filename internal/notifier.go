package internal

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Notifier delivers one already-marshaled chat message. Delivery is
// at-most-once: a failed attempt is reported to the caller, never retried.
type Notifier interface {
	Notify(ctx context.Context, payload []byte) error
	Close() error
}

// GoogleChatNotifier posts messages to a Google Chat incoming-webhook URL.
// The outbound call is a single synchronous POST bounded by the client
// timeout; a transport error or an error status from the chat endpoint
// surfaces as a Notify error carrying the destination host, not the payload.
type GoogleChatNotifier struct {
	webhookURL string
	host       string
	publisher  *wmhttp.Publisher
	logger     *log.Logger
}

// NewGoogleChatNotifier validates the webhook URL and builds the HTTP
// publisher behind the notifier. An empty or non-HTTP URL is a
// configuration error.
func NewGoogleChatNotifier(webhookURL string, timeout time.Duration, logger *log.Logger) (*GoogleChatNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("google chat webhook url is required")
	}
	target, err := url.Parse(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("google chat webhook url: %w", err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("google chat webhook url %q is not an http(s) url", webhookURL)
	}

	if logger == nil {
		logger = log.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	publisher, err := wmhttp.NewPublisher(wmhttp.PublisherConfig{
		MarshalMessageFunc: func(topic string, msg *message.Message) (*http.Request, error) {
			req, err := http.NewRequestWithContext(msg.Context(), http.MethodPost, topic, bytes.NewReader(msg.Payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json; charset=UTF-8")
			return req, nil
		},
		Client: &http.Client{Timeout: timeout},
	}, watermill.NewStdLogger(false, false))
	if err != nil {
		return nil, err
	}

	return &GoogleChatNotifier{
		webhookURL: webhookURL,
		host:       target.Host,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

// Notify posts the payload to the configured webhook URL.
func (n *GoogleChatNotifier) Notify(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := n.publisher.Publish(n.webhookURL, msg); err != nil {
		IncDeliveryError(n.host)
		return fmt.Errorf("forward to %s: %w", n.host, err)
	}

	n.logger.Printf("forwarded alert to %s", n.host)
	return nil
}

func (n *GoogleChatNotifier) Close() error {
	return n.publisher.Close()
}
