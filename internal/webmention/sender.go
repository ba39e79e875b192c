package webmention

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
	"git.home.luguber.info/inful/blogplugins/internal/retry"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxConcurrent = 4
	defaultUserAgent     = "blogplugins-webmention/1.0"
)

// Options configures a Sender or Receiver. Zero values get defaults.
type Options struct {
	HTTPClient    *http.Client
	UserAgent     string
	Timeout       time.Duration
	MaxConcurrent int
	Publisher     Publisher
	Logger        *slog.Logger
	Recorder      metrics.Recorder
	BuildID       string
	Retry         retry.Policy // Applied to transient POST failures
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: o.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		}
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = defaultMaxConcurrent
	}
	if o.Publisher == nil {
		o.Publisher = NoopPublisher{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	if o.Retry.IsZero() {
		o.Retry = retry.DefaultPolicy()
	}
	return o
}

// Job is one source/target pair to notify.
type Job struct {
	Source      string
	Target      string
	Fingerprint string
	Article     string // RelPath, for diagnostics
}

// Report summarizes a Send run.
type Report struct {
	Sent    int
	Skipped int
	Failed  int
}

// Jobs lists a job for every external link in the content of each article.
// Articles without a fingerprint are skipped.
func Jobs(articles []*site.Article, s *site.Site) ([]Job, error) {
	base, err := url.Parse(s.BaseURL())
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, a := range articles {
		if a.Draft || a.Fingerprint == "" {
			continue
		}
		targets, err := ExternalLinks(a.Content.HTML, base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.RelPath, err)
		}
		source := s.Qualify(a.URL)
		for _, target := range targets {
			jobs = append(jobs, Job{Source: source, Target: target, Fingerprint: a.Fingerprint, Article: a.RelPath})
		}
	}
	return jobs, nil
}

// Sender posts webmentions.
type Sender struct {
	store *Store
	opts  Options
}

// NewSender returns a sender recording attempts in store.
func NewSender(store *Store, opts Options) *Sender {
	return &Sender{store: store, opts: opts.withDefaults()}
}

type jobResult struct {
	result metrics.ResultLabel
	err    error
}

// Send processes jobs with bounded concurrency. Per-job failures are logged
// and counted; the returned error is only set when ctx was canceled.
func (s *Sender) Send(ctx context.Context, jobs []Job) (Report, error) {
	results := make(chan jobResult, len(jobs))
	sem := make(chan struct{}, s.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			result, err := s.sendOne(ctx, job)
			results <- jobResult{result: result, err: err}
		}(job)
	}
	wg.Wait()
	close(results)

	var report Report
	for r := range results {
		s.opts.Recorder.IncWebmention("sent", r.result)
		switch r.result {
		case metrics.ResultSuccess:
			report.Sent++
		case metrics.ResultSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report, ctx.Err()
}

func (s *Sender) sendOne(ctx context.Context, job Job) (metrics.ResultLabel, error) {
	logger := s.opts.Logger.With(logfields.Article(job.Article), logfields.Target(job.Target))

	last, ok, err := s.store.LastSent(ctx, job.Source, job.Target)
	if err != nil {
		logger.Warn("Webmention store lookup failed", logfields.Error(err))
	} else if ok && last.Fingerprint == job.Fingerprint && last.Settled() {
		return metrics.ResultSkipped, nil
	}

	rec := SentRecord{Source: job.Source, Target: job.Target, Fingerprint: job.Fingerprint}
	endpoint, err := DiscoverEndpoint(ctx, s.opts.HTTPClient, s.opts.UserAgent, job.Target)
	switch {
	case stdErrors.Is(err, ErrNoEndpoint):
		logger.Debug("Target has no webmention endpoint")
		s.record(ctx, logger, rec)
		return metrics.ResultSkipped, nil
	case err != nil:
		rec.Error = err.Error()
		s.record(ctx, logger, rec)
		return s.fail(ctx, logger, rec, err)
	}

	rec.Endpoint = endpoint
	err = s.opts.Retry.Do(ctx, func(attempt int) (bool, error) {
		if attempt > 0 {
			logger.Debug("Retrying webmention", logfields.Endpoint(endpoint), slog.Int("attempt", attempt))
		}
		var postErr error
		rec.Status, postErr = s.post(ctx, endpoint, job.Source, job.Target)
		return transient(rec.Status), postErr
	})
	if err != nil {
		rec.Error = err.Error()
		s.record(ctx, logger, rec)
		return s.fail(ctx, logger, rec, err)
	}

	s.record(ctx, logger, rec)
	logger.Info("Webmention sent", logfields.Endpoint(endpoint))
	s.publish(ctx, logger, rec, metrics.ResultSuccess)
	return metrics.ResultSuccess, nil
}

func (s *Sender) fail(ctx context.Context, logger *slog.Logger, rec SentRecord, cause error) (metrics.ResultLabel, error) {
	err := errors.WebmentionSendFailed(rec.Source, rec.Target, cause)
	logger.Warn("Webmention not sent", logfields.Endpoint(rec.Endpoint), logfields.Error(err))
	s.publish(ctx, logger, rec, metrics.ResultFailed)
	return metrics.ResultFailed, err
}

func (s *Sender) record(ctx context.Context, logger *slog.Logger, rec SentRecord) {
	if err := s.store.RecordSent(ctx, rec); err != nil {
		logger.Warn("Failed to record webmention attempt", logfields.Error(errors.StoreFailed("record sent", err)))
	}
}

func (s *Sender) publish(ctx context.Context, logger *slog.Logger, rec SentRecord, result metrics.ResultLabel) {
	event := Event{
		Source:   rec.Source,
		Target:   rec.Target,
		Endpoint: rec.Endpoint,
		Status:   rec.Status,
		Result:   string(result),
		Error:    rec.Error,
		BuildID:  s.opts.BuildID,
	}
	if err := s.opts.Publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish webmention event", logfields.Error(err))
	}
}

// transient reports whether a POST outcome is worth retrying: transport
// errors (no status), rate limiting and server errors.
func transient(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

// post submits the form-encoded notification. Any 2xx status is accepted.
func (s *Sender) post(ctx context.Context, endpoint, source, target string) (int, error) {
	form := url.Values{"source": {source}, "target": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("endpoint returned HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
