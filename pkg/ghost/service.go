package ghost

import (
	"context"
	stderrors "errors"

	"github.com/ghost-mcp/ghost-mcp/pkg/config"
	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
	"github.com/ghost-mcp/ghost-mcp/pkg/resilience"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
)

// breakerName identifies the single breaker guarding the Ghost instance.
const breakerName = "ghost"

// Service wraps the raw client with the resilience layer: every upstream
// operation runs inside the circuit breaker, with retries applied within a
// single breaker call so one logical operation counts as one failure.
type Service struct {
	client      *Client
	breaker     *resilience.CircuitBreaker
	metrics     *telemetry.Metrics
	maxAttempts int
}

// NewService builds the resilient Ghost service from configuration.
func NewService(cfg *config.Config, metrics *telemetry.Metrics) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newService(client, cfg, metrics), nil
}

func newService(client *Client, cfg *config.Config, metrics *telemetry.Metrics) *Service {
	breaker := resilience.NewCircuitBreaker(breakerName, resilience.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
		MonitoringPeriod: cfg.Breaker.MonitoringPeriod,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warnw("circuit breaker state change",
				"breaker", name, "from", from, "to", to)
			metrics.SetBreakerState(name, string(to))
		},
	})

	return &Service{
		client:      client,
		breaker:     breaker,
		metrics:     metrics,
		maxAttempts: cfg.Retry.MaxAttempts,
	}
}

// BreakerState reports the breaker snapshot for health checks.
func (s *Service) BreakerState() resilience.Snapshot {
	return s.breaker.GetState()
}

// call runs one upstream operation through the breaker and retry policy.
func call[T any](ctx context.Context, s *Service, operation string, fn func(context.Context) (T, error)) (T, error) {
	v, err := resilience.ExecuteValue(ctx, s.breaker, func(ctx context.Context) (T, error) {
		return resilience.RetryWithBackoff(ctx, func(ctx context.Context) (T, error) {
			v, err := fn(ctx)
			if err != nil {
				err = classify(err, operation)
			}
			return v, err
		},
			resilience.WithMaxAttempts(s.maxAttempts),
			resilience.WithOnRetry(func(attempt int, err error) {
				s.metrics.RecordRetry(operation)
				logger.Warnw("retrying ghost operation",
					"operation", operation, "attempt", attempt, "error", err)
			}),
		)
	})

	s.metrics.RecordGhostRequest(operation, err)
	if err != nil {
		return v, finalize(err, operation)
	}
	return v, nil
}

// classify maps Admin API response failures into the taxonomy before the
// retry predicate sees them. Transport errors pass through untouched so
// errno classification still works.
func classify(err error, operation string) error {
	var reqErr *RequestError
	if stderrors.As(err, &reqErr) {
		return errors.FromGhostError(err, operation)
	}
	return err
}

// finalize guarantees callers only ever see taxonomy errors.
func finalize(err error, operation string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, resilience.ErrOpen) {
		return errors.NewExternalServiceError("ghost", "Circuit breaker is OPEN", err)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.FromGhostError(err, operation)
}

// BrowsePosts lists posts.
func (s *Service) BrowsePosts(ctx context.Context, opts BrowseOptions) ([]Post, error) {
	return call(ctx, s, "posts.browse", func(ctx context.Context) ([]Post, error) {
		return s.client.BrowsePosts(ctx, opts)
	})
}

// ReadPost fetches one post by id.
func (s *Service) ReadPost(ctx context.Context, id string) (*Post, error) {
	return call(ctx, s, "posts.read", func(ctx context.Context) (*Post, error) {
		return s.client.ReadPost(ctx, id)
	})
}

// SearchPosts searches posts by title.
func (s *Service) SearchPosts(ctx context.Context, query string, opts BrowseOptions) ([]Post, error) {
	return call(ctx, s, "posts.search", func(ctx context.Context) ([]Post, error) {
		return s.client.SearchPosts(ctx, query, opts)
	})
}

// CreatePost creates a post.
func (s *Service) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	return call(ctx, s, "posts.create", func(ctx context.Context) (*Post, error) {
		return s.client.CreatePost(ctx, post)
	})
}

// UpdatePost updates a post.
func (s *Service) UpdatePost(ctx context.Context, id string, post *Post) (*Post, error) {
	return call(ctx, s, "posts.update", func(ctx context.Context) (*Post, error) {
		return s.client.UpdatePost(ctx, id, post)
	})
}

// DeletePost deletes a post.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	_, err := call(ctx, s, "posts.delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.DeletePost(ctx, id)
	})
	return err
}

// BrowseTags lists tags.
func (s *Service) BrowseTags(ctx context.Context, opts BrowseOptions) ([]Tag, error) {
	return call(ctx, s, "tags.browse", func(ctx context.Context) ([]Tag, error) {
		return s.client.BrowseTags(ctx, opts)
	})
}

// CreateTag creates a tag.
func (s *Service) CreateTag(ctx context.Context, tag *Tag) (*Tag, error) {
	return call(ctx, s, "tags.create", func(ctx context.Context) (*Tag, error) {
		return s.client.CreateTag(ctx, tag)
	})
}

// BrowseMembers lists site members.
func (s *Service) BrowseMembers(ctx context.Context, opts BrowseOptions) ([]Member, error) {
	return call(ctx, s, "members.browse", func(ctx context.Context) ([]Member, error) {
		return s.client.BrowseMembers(ctx, opts)
	})
}

// BrowseUsers lists staff users.
func (s *Service) BrowseUsers(ctx context.Context, opts BrowseOptions) ([]User, error) {
	return call(ctx, s, "users.browse", func(ctx context.Context) ([]User, error) {
		return s.client.BrowseUsers(ctx, opts)
	})
}

// ReadUser fetches a staff user by id.
func (s *Service) ReadUser(ctx context.Context, id string) (*User, error) {
	return call(ctx, s, "users.read", func(ctx context.Context) (*User, error) {
		return s.client.ReadUser(ctx, id)
	})
}

// UploadImage uploads image bytes to Ghost.
func (s *Service) UploadImage(ctx context.Context, filename string, data []byte) (*Image, error) {
	return call(ctx, s, "images.upload", func(ctx context.Context) (*Image, error) {
		return s.client.UploadImage(ctx, filename, data)
	})
}
