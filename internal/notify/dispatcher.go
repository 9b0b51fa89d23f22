// Package notify delivers outbound chat messages in batches. Every message
// is sent independently: one recipient failing never cancels the others,
// and failures come back as part of the batch Report.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Message is one outbound text for one recipient
type Message struct {
	Recipient int64
	Text      string
	Kind      string // used for logging only
}

// Notifier sends a single message over some transport
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls f
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// DeliveryError records that a message could not reach its recipient
type DeliveryError struct {
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Result is the outcome for one message of a batch
type Result struct {
	Message Message
	Err     error
}

// Report holds one Result per message, in the order the messages were given
type Report struct {
	Results []Result
}

// Failed returns the results whose delivery failed
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Delivered returns how many messages were sent
func (r Report) Delivered() int {
	return len(r.Results) - len(r.Failed())
}

// Err joins all delivery failures, nil when everything was sent
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

// Options tunes a Dispatcher
type Options struct {
	Concurrency   int           // parallel sends per batch
	RatePerSecond float64       // outbound messages per second, 0 disables
	Burst         int           // burst allowance for the rate limiter
	Timeout       time.Duration // per message, 0 disables
	Debug         bool          // log every delivery
}

// DefaultOptions stay below Telegram's limit of ~30 messages per second
func DefaultOptions() Options {
	return Options{
		Concurrency:   4,
		RatePerSecond: 25,
		Burst:         5,
		Timeout:       20 * time.Second,
	}
}

// Dispatcher fans batches of messages out to a Notifier
type Dispatcher struct {
	notifier    Notifier
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	debug       bool
}

// NewDispatcher creates a dispatcher sending through n
func NewDispatcher(n Notifier, opts Options) *Dispatcher {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Dispatcher{
		notifier:    n,
		limiter:     limiter,
		concurrency: concurrency,
		timeout:     opts.Timeout,
		debug:       opts.Debug,
	}
}

// Deliver sends every message and reports each outcome. It returns once
// all sends have finished. The dispatcher never retries.
func (d *Dispatcher) Deliver(ctx context.Context, msgs []Message) Report {
	results := make([]Result, len(msgs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, msg := range msgs {
		g.Go(func() error {
			results[i] = Result{Message: msg, Err: d.send(ctx, msg)}
			return nil
		})
	}
	g.Wait()

	report := Report{Results: results}
	if failed := report.Failed(); len(failed) > 0 {
		log.Printf("notify: %d of %d messages failed", len(failed), len(msgs))
	}
	return report
}

// DeliverOne sends a single message
func (d *Dispatcher) DeliverOne(ctx context.Context, msg Message) error {
	return d.send(ctx, msg)
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Recipient: msg.Recipient, Err: err}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.notifier.Send(ctx, msg); err != nil {
		log.Printf("notify: %s to %d failed: %v", msg.Kind, msg.Recipient, err)
		return &DeliveryError{Recipient: msg.Recipient, Err: err}
	}
	if d.debug {
		log.Printf("notify: %s delivered to %d", msg.Kind, msg.Recipient)
	}
	return nil
}
