// Package pubsub owns the Google Cloud Pub/Sub v2 client shared by the
// outbox publisher and the activity worker.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

var (
	ErrNotInitialized    = errors.New("pubsub client not initialized")
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub manufacturing topic is required")
)

// Client caches one Publisher per topic so batching goroutines are shared
// and flushed on Close.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects and fails unless the manufacturing topic, and the
// subscription when one is configured, already exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, projectID: projectID, cfg: cfg}
	if err := c.checkResources(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"project_id":   projectID,
		"topic":        cfg.ManufacturingTopic,
		"subscription": cfg.ManufacturingSubscription,
	}), "pubsub client initialized")
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.CredentialsFile) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.CredentialsFile)}
	}
	return nil
}

func (c *Client) checkResources(ctx context.Context) error {
	topic := strings.TrimSpace(c.cfg.ManufacturingTopic)
	if topic == "" {
		return errTopicRequired
	}
	if err := c.checkExists(ctx, "topic", topic, func(ctx context.Context, full string) error {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
		return err
	}); err != nil {
		return err
	}

	sub := strings.TrimSpace(c.cfg.ManufacturingSubscription)
	if sub == "" {
		return nil
	}
	return c.checkExists(ctx, "subscription", sub, func(ctx context.Context, full string) error {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
		return err
	})
}

func (c *Client) checkExists(ctx context.Context, kind, name string, get func(context.Context, string) error) error {
	full := c.resourceName(kind, name)
	if full == "" {
		return fmt.Errorf("%s %q not configured", kind, name)
	}
	err := get(ctx, full)
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// Subscription returns a Subscriber for an id or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName("subscription", name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

func (c *Client) ManufacturingSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.ManufacturingSubscription)
}

// Publisher returns the cached Publisher for a topic id or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName("topic", name)
	if full == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[full]; ok {
		return p
	}
	if c.publishers == nil {
		c.publishers = make(map[string]*pubsub.Publisher)
	}
	p := c.client.Publisher(full)
	c.publishers[full] = p
	return p
}

func (c *Client) ManufacturingPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.ManufacturingTopic)
}

// Ping re-checks that the configured resources exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrNotInitialized
	}
	return c.checkResources(ctx)
}

// Close flushes cached publishers and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for _, p := range c.publishers {
		p.Stop()
	}
	c.publishers = nil
	c.mu.Unlock()
	return c.client.Close()
}

// resourceName expands an id to projects/<p>/<kind>s/<id>. Full names of the
// same kind pass through unchanged.
func (c *Client) resourceName(kind, name string) string {
	n := strings.TrimSpace(name)
	if c == nil || n == "" {
		return ""
	}
	collection := "/" + kind + "s/"
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, collection) {
		return n
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + collection + n
}
