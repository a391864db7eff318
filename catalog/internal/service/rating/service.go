package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/config"
	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
)

const maxAttempts = 2

var errMalformed = errors.New("malformed response")

// Service fetches aggregate ratings from the Goodreads review_counts API.
type Service struct {
	log    *zap.Logger
	client *http.Client
	cfg    config.Goodreads
	cb     circuit_breaker.CircuitBreaker
}

func NewService(log *zap.Logger, cfg config.Goodreads) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Service{
		log:    log.Named("goodreads"),
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		cb:     circuit_breaker.New(20, 30*time.Second, 0.5, 2),
	}
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

type reviewCounts struct {
	Books []struct {
		ISBN             string       `json:"isbn"`
		WorkRatingsCount *json.Number `json:"work_ratings_count"`
		AverageRating    *json.Number `json:"average_rating"`
	} `json:"books"`
}

// statusError carries a non-2xx upstream response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("goodreads: unexpected status %d", e.code)
}

// GetRating never returns a partially filled rating: on error the rating is unavailable.
// An isbn unknown to Goodreads is not an error.
func (s *Service) GetRating(ctx context.Context, isbn string) (model.Rating, error) {
	var rat model.Rating
	err := s.cb.Call(func() error {
		var err error
		rat, err = s.fetchWithRetry(ctx, isbn)
		return err
	})
	if err != nil {
		s.log.Warn("GetRating", zap.String("isbn", isbn), zap.Error(err))
		return model.UnavailableRating(), errors.Wrap(errs.ErrRatingUnavailable, err.Error())
	}
	return rat, nil
}

func (s *Service) fetchWithRetry(ctx context.Context, isbn string) (model.Rating, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rat, err := s.fetch(ctx, isbn)
		if err == nil {
			return rat, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
		s.log.Debug("retry", zap.String("isbn", isbn), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return model.Rating{}, lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return !errors.Is(err, errMalformed)
}

func (s *Service) fetch(ctx context.Context, isbn string) (model.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("key", s.cfg.Key)
	q.Set("isbns", isbn)
	u := strings.TrimRight(s.cfg.URL, "/") + "/book/review_counts.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return model.Rating{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Rating{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.UnavailableRating(), nil
	}
	if resp.StatusCode >= 400 {
		return model.Rating{}, &statusError{code: resp.StatusCode}
	}

	var body reviewCounts
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Rating{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if len(body.Books) == 0 {
		return model.UnavailableRating(), nil
	}
	book := body.Books[0]
	return model.Rating{
		ReviewCount:  metric(book.WorkRatingsCount),
		AverageScore: metric(book.AverageRating),
	}, nil
}

func metric(n *json.Number) model.Metric {
	if n == nil {
		return model.Metric{}
	}
	v, err := n.Float64()
	if err != nil {
		return model.Metric{}
	}
	return model.Available(v)
}
