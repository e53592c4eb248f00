// Package task tracks one collection task at a time: it submits the URL, polls the task status
// on a fixed interval and signals a list refresh when the task completes.
package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/extractor"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/util"
)

// DefaultPollInterval is the delay between two status polls.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("task controller closed")
	// ErrSuperseded is returned by a Submit whose result arrived after a newer Submit started.
	ErrSuperseded = errors.New("submission superseded by a newer one")
)

// Collaborator is the part of the collection API the controller needs.
type Collaborator interface {
	Submit(ctx context.Context, videoURL string) (string, error)
	Status(ctx context.Context, taskID string) (*models.TaskStatusResult, error)
}

// Observer receives task lifecycle events.
type Observer interface {
	OnTaskEvent(models.TaskEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(models.TaskEvent)

func (f ObserverFunc) OnTaskEvent(e models.TaskEvent) { f(e) }

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRefresh sets the function called once when a tracked task completes. ctx is cancelled by
// Close.
func WithRefresh(fn func(ctx context.Context)) Option {
	return func(c *Controller) {
		c.refresh = fn
	}
}

// WithOnChange registers a callback that receives every new state snapshot.
func WithOnChange(fn func(models.TaskState)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithObserver adds an observer for lifecycle events.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// Controller owns the single tracked task slot.
//
// Every Submit and Close bumps epoch; a poll loop only writes state while the epoch it was
// started with is still current, so late responses from a superseded loop are dropped. State
// changes are queued for the callbacks in the same critical section that makes them, so
// callbacks see them in order and never see a superseded task after the newer one.
type Controller struct {
	api       Collaborator
	interval  time.Duration
	refresh   func(ctx context.Context)
	onChange  func(models.TaskState)
	observers []Observer
	log       *logger.Logger
	outbox    *util.Mailbox[update]

	base       context.Context
	cancelBase context.CancelFunc

	mu     sync.Mutex
	state  models.TaskState
	epoch  uint64
	loop   *loop
	closed bool
}

// loop is one running poll goroutine. Fields other than done are guarded by Controller.mu.
type loop struct {
	cancel  context.CancelFunc
	done    chan struct{}
	polling bool

	// inCallback is set while the loop goroutine runs OnChange, observers or refresh.
	inCallback bool
}

// update is one state change waiting for the callbacks.
type update struct {
	state  models.TaskState
	events []models.TaskEvent
}

// New creates a Controller.
func New(api Collaborator, opts ...Option) *Controller {
	base, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:        api,
		interval:   DefaultPollInterval,
		log:        logger.Discard(),
		base:       base,
		cancelBase: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.outbox = util.NewMailbox(c.deliver)
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() models.TaskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates raw, extracts the video URL and starts tracking a new task, superseding the
// current one. On failure no task is left active and the user-facing message is kept in the
// state.
func (c *Controller) Submit(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		err := &models.ValidationError{Field: "video_url", Message: "please enter a video link"}
		c.mu.Lock()
		c.state.Err = err.Message
		c.postLocked()
		c.mu.Unlock()
		c.outbox.Flush()
		return "", err
	}
	videoURL := extractor.Extract(strings.TrimSpace(raw))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	c.epoch++
	epoch := c.epoch
	prev := c.state
	c.stopLoopLocked()
	c.state = models.TaskState{VideoURL: videoURL}
	if prev.Active {
		c.postLocked(event(prev, models.TaskEventSuperseded, ""))
	} else {
		c.postLocked()
	}
	c.mu.Unlock()

	if prev.Active {
		c.log.WithTask(prev.TaskID).Info("Task superseded by a new submission")
	}
	c.outbox.Flush()

	taskID, err := c.api.Submit(ctx, videoURL)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.epoch != epoch {
		c.mu.Unlock()
		return "", ErrSuperseded
	}
	if err != nil {
		c.state = models.TaskState{VideoURL: videoURL, Err: models.UserMessage(err)}
		c.postLocked()
		c.mu.Unlock()
		c.log.WithError(err).WithPayload(map[string]interface{}{"video_url": videoURL}).Warn("Failed to submit collection task")
		c.outbox.Flush()
		return "", err
	}

	loopCtx, cancel := context.WithCancel(c.base)
	l := &loop{cancel: cancel, done: make(chan struct{}), polling: true}
	c.state = models.TaskState{
		TaskID:   taskID,
		VideoURL: videoURL,
		Status:   models.TaskStatusPending,
		Active:   true,
	}
	c.loop = l
	c.postLocked(event(c.state, models.TaskEventSubmitted, ""))
	c.mu.Unlock()

	c.log.WithTask(taskID).WithPayload(map[string]interface{}{"video_url": videoURL}).Info("Collection task submitted")
	c.outbox.Flush()

	go c.poll(loopCtx, l, epoch, taskID)
	return taskID, nil
}

// poll runs the status loop of one task. Ticks never overlap: the timer is reset only after the
// previous call returned.
func (c *Controller) poll(ctx context.Context, l *loop, epoch uint64, taskID string) {
	defer close(l.done)
	defer l.cancel()

	log := c.log.WithTask(taskID)
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res, err := c.api.Status(ctx, taskID)
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.state.Active = false
			c.state.Err = models.UserMessage(err)
			l.polling = false
			c.postLocked(event(c.state, models.TaskEventAborted, c.state.Err))
			c.mu.Unlock()

			log.WithError(err).Warn("Status poll failed, polling stopped")
			c.inLoopCallback(l, c.outbox.Flush)
			return
		}

		c.state.Status = res.Status
		c.state.Progress = res.Progress
		if res.Status == models.TaskStatusCompleted {
			c.state.Result = res.Data
		}
		terminal := res.Status.IsTerminal()
		if terminal {
			c.state.Active = false
			l.polling = false
			c.postLocked(event(c.state, models.TaskEventTerminal, ""))
		} else {
			c.postLocked(event(c.state, models.TaskEventProgress, ""))
		}
		c.mu.Unlock()

		if !terminal {
			log.WithPayload(map[string]interface{}{"status": res.Status, "progress": res.Progress}).Debug("Task progress")
			c.inLoopCallback(l, c.outbox.Flush)
			timer.Reset(c.interval)
			continue
		}

		log.WithPayload(map[string]interface{}{"status": res.Status}).Info("Task reached a terminal status")
		c.inLoopCallback(l, c.outbox.Flush)
		if res.Status == models.TaskStatusCompleted && c.refresh != nil {
			c.inLoopCallback(l, func() {
				c.mu.Lock()
				stale := c.closed || ctx.Err() != nil
				c.mu.Unlock()
				if !stale {
					c.refresh(ctx)
				}
			})
		}
		return
	}
}

// inLoopCallback runs fn on the loop goroutine with l marked, so that a Close issued from a
// callback does not wait for the goroutine it is running on.
func (c *Controller) inLoopCallback(l *loop, fn func()) {
	c.mu.Lock()
	l.inCallback = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		l.inCallback = false
		c.mu.Unlock()
	}()
	fn()
}

// Wait blocks until the current poll loop has ended or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	l := c.loop
	c.mu.Unlock()
	if l == nil {
		return nil
	}
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops polling and waits for the loop to exit. The controller cannot be reused and no
// callback starts after Close returns.
//
// Close may be called from OnChange, an observer or the refresh function. When the loop
// goroutine is running one of those, Close does not wait for it; the loop exits as soon as the
// callback returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.stopLoopLocked()
	c.state.Active = false
	c.outbox.Close()
	var done chan struct{}
	if l := c.loop; l != nil && !l.inCallback {
		done = l.done
	}
	c.mu.Unlock()

	c.cancelBase()
	if done != nil {
		<-done
	}
}

// stopLoopLocked cancels the running loop, if any. A loop that already reached a terminal
// status keeps its context so a running refresh is not cut short. Caller holds mu.
func (c *Controller) stopLoopLocked() {
	if l := c.loop; l != nil && l.polling {
		l.polling = false
		l.cancel()
	}
}

// postLocked queues the current state and events for the callbacks. Caller holds mu.
func (c *Controller) postLocked(events ...models.TaskEvent) {
	if c.onChange == nil && (len(c.observers) == 0 || len(events) == 0) {
		return
	}
	c.outbox.Post(update{state: c.state, events: events})
}

func (c *Controller) deliver(u update) {
	for _, ev := range u.events {
		for _, o := range c.observers {
			o.OnTaskEvent(ev)
		}
	}
	if c.onChange != nil {
		c.onChange(u.state)
	}
}

func event(s models.TaskState, kind models.TaskEventKind, message string) models.TaskEvent {
	return models.TaskEvent{
		TaskID:   s.TaskID,
		VideoURL: s.VideoURL,
		Kind:     kind,
		Status:   s.Status,
		Progress: s.Progress,
		Message:  message,
		At:       time.Now(),
	}
}
