// Package list keeps the paginated, filterable view of collected items.
//
// Every fetch takes a new sequence number and only the response carrying the latest number is
// applied, so a slow answer for an old page or filter never overwrites a newer one. View changes
// reach OnChange one at a time and in the order they were applied.
package list

import (
	"context"
	"errors"
	"sync"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/util"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

// ErrNoPendingDelete is returned by ConfirmDelete when no delete was requested.
var ErrNoPendingDelete = errors.New("no delete pending confirmation")

// Collaborator is the part of the collection API the list needs.
type Collaborator interface {
	List(ctx context.Context, q models.ListQuery) (*models.ListPage, error)
	Detail(ctx context.Context, id int64) (*models.CollectionItem, error)
	Delete(ctx context.Context, id int64) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the fixed page size.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.view.PageSize = size
		}
	}
}

// WithFilters sets the initial filters. An empty platform means all platforms.
func WithFilters(status models.StatusFilter, platform string) Option {
	return func(c *Controller) {
		c.view.StatusFilter = status
		c.view.PlatformFilter = platform
	}
}

// WithEmptyPagePolicy chooses what happens when a delete empties a page other than the first,
// see config.EmptyPageStay and config.EmptyPageStepBack.
func WithEmptyPagePolicy(policy string) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithOnChange registers a callback that receives every new view snapshot.
func WithOnChange(fn func(models.ListView)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// Controller owns the list view state.
type Controller struct {
	api      Collaborator
	policy   string
	onChange func(models.ListView)
	log      *logger.Logger
	outbox   *util.Mailbox[models.ListView]

	mu   sync.Mutex
	view models.ListView
	seq  uint64
}

// New creates a Controller on page 1 with no filters. Nothing is fetched until Load.
func New(api Collaborator, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		policy: config.EmptyPageStay,
		log:    logger.Discard(),
		view: models.ListView{
			Page:     1,
			PageSize: DefaultPageSize,
			Items:    []models.CollectionItem{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.outbox = util.NewMailbox(c.deliver)
	return c
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() models.ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Load fetches the current page with the current filters.
func (c *Controller) Load(ctx context.Context) error {
	return c.fetch(ctx, nil)
}

// Refresh is Load under the name used for the task completion signal.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// GoToPage fetches page. Pages below 1 are clamped to 1.
func (c *Controller) GoToPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return c.fetch(ctx, func(v *models.ListView) bool {
		v.Page = page
		return true
	})
}

// NextPage moves forward one page. It does nothing while the next button is disabled.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.fetch(ctx, func(v *models.ListView) bool {
		if v.NextDisabled() {
			return false
		}
		v.Page++
		return true
	})
}

// PrevPage moves back one page. It does nothing on page 1.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.fetch(ctx, func(v *models.ListView) bool {
		if v.PrevDisabled() {
			return false
		}
		v.Page--
		return true
	})
}

// SetStatusFilter changes the status filter and goes back to page 1.
func (c *Controller) SetStatusFilter(ctx context.Context, f models.StatusFilter) error {
	return c.fetch(ctx, func(v *models.ListView) bool {
		v.StatusFilter = f
		v.Page = 1
		return true
	})
}

// SetPlatformFilter changes the platform filter and goes back to page 1. An empty platform
// means all platforms.
func (c *Controller) SetPlatformFilter(ctx context.Context, platform string) error {
	return c.fetch(ctx, func(v *models.ListView) bool {
		v.PlatformFilter = platform
		v.Page = 1
		return true
	})
}

// fetch applies mutate to the view and requests the resulting page. A false return from
// mutate cancels the fetch.
func (c *Controller) fetch(ctx context.Context, mutate func(v *models.ListView) bool) error {
	c.mu.Lock()
	if mutate != nil && !mutate(&c.view) {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	seq := c.seq
	q := models.ListQuery{
		Page:     c.view.Page,
		PageSize: c.view.PageSize,
		Status:   c.view.StatusFilter,
		Platform: c.view.PlatformFilter,
	}
	c.view.Loading = true
	c.postLocked()
	c.mu.Unlock()
	c.outbox.Flush()

	page, err := c.api.List(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.WithPayload(map[string]interface{}{"page": q.Page}).Debug("Discarding stale list response")
		return err
	}
	c.view.Loading = false
	if err != nil {
		c.view.Err = models.UserMessage(err)
	} else {
		c.view.Items = page.Items
		c.view.Total = page.Total
		c.view.Err = ""
	}
	c.postLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).WithPayload(map[string]interface{}{"page": q.Page}).Warn("Failed to fetch collection list")
	}
	c.outbox.Flush()
	return err
}

// Detail loads one item. It does not change the view.
func (c *Controller) Detail(ctx context.Context, id int64) (*models.CollectionItem, error) {
	item, err := c.api.Detail(ctx, id)
	if err != nil {
		c.log.WithError(err).WithPayload(map[string]interface{}{"id": id}).Warn("Failed to load item detail")
	}
	return item, err
}

// RequestDelete marks id as awaiting confirmation. Nothing is sent yet.
func (c *Controller) RequestDelete(id int64) {
	c.mu.Lock()
	c.view.PendingDelete = &id
	c.postLocked()
	c.mu.Unlock()
	c.outbox.Flush()
}

// CancelDelete drops the pending delete without sending anything.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	if c.view.PendingDelete == nil {
		c.mu.Unlock()
		return
	}
	c.view.PendingDelete = nil
	c.postLocked()
	c.mu.Unlock()
	c.outbox.Flush()
}

// ConfirmDelete deletes the pending item and reloads the current page. When the delete fails
// the item stays in the view and the error is kept for display.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.view.PendingDelete == nil {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	id := *c.view.PendingDelete
	c.view.PendingDelete = nil
	c.postLocked()
	c.mu.Unlock()
	c.outbox.Flush()

	log := c.log.WithPayload(map[string]interface{}{"id": id})
	if err := c.api.Delete(ctx, id); err != nil {
		c.mu.Lock()
		c.view.Err = models.UserMessage(err)
		c.postLocked()
		c.mu.Unlock()
		log.WithError(err).Warn("Failed to delete item")
		c.outbox.Flush()
		return err
	}
	log.Info("Item deleted")

	if err := c.Load(ctx); err != nil {
		return err
	}
	return c.stepBackIfEmpty(ctx)
}

// stepBackIfEmpty moves to the last non-empty page when the step_back policy is on and the
// current page came back empty while earlier pages still hold items.
func (c *Controller) stepBackIfEmpty(ctx context.Context) error {
	if c.policy != config.EmptyPageStepBack {
		return nil
	}
	c.mu.Lock()
	v := c.view
	c.mu.Unlock()
	if v.Loading || len(v.Items) > 0 || v.Page <= 1 {
		return nil
	}
	return c.GoToPage(ctx, models.LastPage(v.Total, v.PageSize))
}

// postLocked queues the current view for OnChange. Caller holds mu.
func (c *Controller) postLocked() {
	if c.onChange != nil {
		c.outbox.Post(c.view)
	}
}

func (c *Controller) deliver(v models.ListView) {
	c.onChange(v)
}
