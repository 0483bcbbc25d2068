package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chat-ops/chat-relay/internal/domain"
	"github.com/chat-ops/chat-relay/internal/logger"
	"github.com/rs/zerolog"
)

// Dispatcher forwards jobs to the processing engine webhook without making
// the inbound turn wait for the engine. Each job gets its own goroutine that
// attempts the POST up to maxRetries times with retryDelay between attempts;
// only the final failure is reported, and only in the logs. The inbound flow
// has already been told the job was accepted.
type Dispatcher struct {
	webhookURL string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	httpClient *http.Client

	// baseCtx parents every attempt; Shutdown cancels it so retry waits and
	// in-flight requests end promptly instead of running out their budget.
	baseCtx context.Context
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

func New(webhookURL string, maxRetries int, retryDelay, timeout time.Duration) *Dispatcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		webhookURL: webhookURL,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		timeout:    timeout,
		httpClient: &http.Client{
			// No global timeout; each attempt gets its own context deadline.
			Timeout: 0,
		},
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Enabled reports whether an engine webhook is configured. When it is not,
// the caller falls back to the synchronous local echo path.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

// Dispatch hands the job to a background sender and returns immediately.
// The log context is snapshotted here because the request context (and its
// cancellation) must not leak into the detached send.
func (d *Dispatcher) Dispatch(ctx context.Context, job domain.DispatchJob) {
	log := logger.Ctx(ctx).With().
		Str("session_id", job.SessionID).
		Str("message_id", job.Callback.MessageID).
		Logger()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.sendWithRetry(job, log)
	}()
}

// Wait blocks until all in-flight sends have finished. Used in tests;
// shutdown paths use Shutdown instead so retry waits are cut short.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown cancels pending retry waits and in-flight attempts, then waits
// for the senders to exit. Abandoned jobs are reported in the logs.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) sendWithRetry(job domain.DispatchJob, log zerolog.Logger) error {
	body, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("dispatch_marshal_failed")
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		err := d.send(body)
		if err == nil {
			log.Debug().Int("attempt", attempt).Msg("dispatch_sent")
			return nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("dispatch_attempt_failed")
		if attempt < d.maxRetries {
			select {
			case <-time.After(d.retryDelay):
			case <-d.baseCtx.Done():
				log.Warn().Err(lastErr).Int("attempts", attempt).Msg("dispatch_abandoned")
				return lastErr
			}
		}
	}

	log.Warn().
		Err(lastErr).
		Int("attempts", d.maxRetries).
		Msg("dispatch_failed")
	return lastErr
}

func (d *Dispatcher) send(body []byte) error {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("engine returned %d", resp.StatusCode)
	}
	return nil
}
