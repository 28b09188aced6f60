package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// pageSize is the Gmail API maximum page size for message listing.
const pageSize = 100

const maxAttempts = 5

// Client wraps the Gmail Users service with rate limiting and retry.
type Client struct {
	svc     *gmail.UsersService
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Gmail client over an authenticated HTTP client.
// requestsPerSecond bounds the API call rate.
func NewClient(ctx context.Context, httpClient *http.Client, requestsPerSecond int, logger *slog.Logger) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:     svc.Users,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  logger,
	}, nil
}

// BuildQuery assembles the Gmail search query for the primary inbox
// with an inclusive since date and an exclusive until date, both in
// YYYY-MM-DD form.
func BuildQuery(since, until string) string {
	parts := []string{"category:primary"}
	if since != "" {
		parts = append(parts, "after:"+strings.ReplaceAll(since, "-", "/"))
	}
	if until != "" {
		parts = append(parts, "before:"+strings.ReplaceAll(until, "-", "/"))
	}
	return strings.Join(parts, " ")
}

// Profile returns the authenticated user's email address. Used as a
// lightweight auth check.
func (c *Client) Profile(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	profile, err := retryCall(ctx, func() (*gmail.Profile, error) {
		return c.svc.GetProfile("me").Context(ctx).Do()
	})
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// ListMessageIDs lists message IDs matching the query, paginating
// until exhausted or max IDs are collected. max <= 0 means unlimited.
func (c *Client) ListMessageIDs(ctx context.Context, query string, max int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := retryCall(ctx, func() (*gmail.ListMessagesResponse, error) {
			req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize)
			if pageToken != "" {
				req = req.PageToken(pageToken)
			}
			return req.Context(ctx).Do()
		})
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
			if max > 0 && len(ids) >= max {
				return ids, nil
			}
		}

		if res.NextPageToken == "" {
			return ids, nil
		}
		pageToken = res.NextPageToken
	}
}

// FetchMessage retrieves a single message in full and reduces it to a
// Message.
func (c *Client) FetchMessage(ctx context.Context, id string) (Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Message{}, err
	}

	msg, err := retryCall(ctx, func() (*gmail.Message, error) {
		return c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	})
	if err != nil {
		return Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	return parseMessage(msg), nil
}

// retryCall runs a Gmail API call with exponential backoff on rate
// limit and server errors. Other API errors fail immediately.
func retryCall[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		res, err := op()
		if err != nil {
			var zero T
			return zero, classify(err)
		}
		return res, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
}

// classify marks non-retryable API errors as permanent. 429 and 5xx
// are retried; transport errors are retried as well.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return err
		}
		return backoff.Permanent(err)
	}
	return err
}
