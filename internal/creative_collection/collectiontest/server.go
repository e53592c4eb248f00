// Package collectiontest provides an in-memory creative collection API for tests.
//
// The server speaks the same HTTP contract as the real service and lets tests script task
// progress, inject failures, hold requests and inspect what the client sent.
package collectiontest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/extractor"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	xhttp "github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/http"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Operation names accepted by FailNext, Hold and Calls.
const (
	OpSubmit = "submit"
	OpStatus = "status"
	OpList   = "list"
	OpDetail = "detail"
	OpDelete = "delete"
)

// APIRoot is the path prefix the server mounts the API under.
const APIRoot = "/api/v1"

// Step is one scripted status response. A completed step with an Item stores the item before
// the response is sent, the way the real service saves the record and then marks the task done.
type Step struct {
	Status   models.TaskStatus
	Progress int
	Item     *models.CollectionItem
}

type task struct {
	videoURL string
	current  Step
	script   []Step
}

type failure struct {
	status  int
	message string
}

// Server is an in-memory implementation of the creative collection API.
type Server struct {
	ts *httptest.Server

	mu          sync.Mutex
	tasks       map[string]*task
	items       []models.CollectionItem
	nextID      int64
	clock       time.Time
	queuedIDs   []string
	calls       map[string]int
	statusPolls []string
	listQueries []url.Values
	failures    map[string][]failure
	holds       map[string]*hold
	allHolds    []*hold
}

type hold struct {
	ch   chan struct{}
	once sync.Once
}

func (h *hold) release() {
	h.once.Do(func() { close(h.ch) })
}

// New starts a Server without middleware and closes it when the test ends.
func New(t testing.TB) *Server {
	return NewWithConfig(t, config.MiddlewareConfig{})
}

// NewWithConfig starts a Server whose engine applies the given middleware config.
func NewWithConfig(t testing.TB, cfg config.MiddlewareConfig) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := xhttp.NewServer(cfg)
	if err != nil {
		t.Fatalf("collectiontest: create server: %v", err)
	}
	s := &Server{
		tasks:    make(map[string]*task),
		nextID:   1,
		clock:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		calls:    make(map[string]int),
		failures: make(map[string][]failure),
		holds:    make(map[string]*hold),
	}
	s.routes(srv.Engine())
	s.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(s.Close)
	return s
}

// URL returns the API root, suitable as the client base URL.
func (s *Server) URL() string {
	return s.ts.URL + APIRoot
}

// Close releases held requests and stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	holds := s.allHolds
	s.allHolds = nil
	s.holds = make(map[string]*hold)
	s.mu.Unlock()
	for _, h := range holds {
		h.release()
	}
	s.ts.Close()
}

// QueueTaskIDs makes the next submissions return these ids in order instead of random ones.
func (s *Server) QueueTaskIDs(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedIDs = append(s.queuedIDs, ids...)
}

// ScriptTask sets the responses for the next status polls of taskID. The last step repeats.
// The task is created if it does not exist yet.
func (s *Server) ScriptTask(taskID string, steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		t = &task{current: Step{Status: models.TaskStatusPending}}
		s.tasks[taskID] = t
	}
	t.script = append([]Step(nil), steps...)
}

// AddItem stores an item, assigning id and timestamps when they are empty.
func (s *Server) AddItem(item models.CollectionItem) models.CollectionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addItemLocked(item)
}

func (s *Server) addItemLocked(item models.CollectionItem) models.CollectionItem {
	if item.ID == 0 {
		item.ID = s.nextID
	}
	if item.ID >= s.nextID {
		s.nextID = item.ID + 1
	}
	if item.CreatedAt == "" {
		s.clock = s.clock.Add(time.Second)
		item.CreatedAt = s.clock.Format("2006-01-02T15:04:05.000000")
	}
	if item.UpdatedAt == "" {
		item.UpdatedAt = item.CreatedAt
	}
	if item.Status == "" {
		item.Status = models.ItemStatusSuccess
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	s.items = append(s.items, item)
	return item
}

// Items returns a copy of the stored items.
func (s *Server) Items() []models.CollectionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CollectionItem(nil), s.items...)
}

// FailNext makes the next request of op answer with an HTTP error status.
func (s *Server) FailNext(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{status: status, message: message})
}

// RejectNext makes the next request of op answer 200 with success:false.
func (s *Server) RejectNext(op string, message string) {
	s.FailNext(op, http.StatusOK, message)
}

// Hold blocks the next request of op until the returned release func is called.
func (s *Server) Hold(op string) (release func()) {
	h := &hold{ch: make(chan struct{})}
	s.mu.Lock()
	s.holds[op] = h
	s.allHolds = append(s.allHolds, h)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if s.holds[op] == h {
			delete(s.holds, op)
		}
		s.mu.Unlock()
		h.release()
	}
}

// Calls returns how many requests of op reached the server.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// StatusPolls returns the task ids polled so far, in arrival order.
func (s *Server) StatusPolls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statusPolls...)
}

// ListQueries returns the query strings of all list requests.
func (s *Server) ListQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.listQueries...)
}

// enter records the call and applies holds and injected failures. It returns false when the
// request has already been answered.
func (s *Server) enter(c *gin.Context, op string) bool {
	s.mu.Lock()
	s.calls[op]++
	if op == OpList {
		s.listQueries = append(s.listQueries, c.Request.URL.Query())
	}
	h := s.holds[op]
	delete(s.holds, op)
	s.mu.Unlock()

	if h != nil {
		select {
		case <-h.ch:
		case <-c.Request.Context().Done():
			c.Abort()
			return false
		}
	}

	s.mu.Lock()
	var f *failure
	if queue := s.failures[op]; len(queue) > 0 {
		f = &queue[0]
		s.failures[op] = queue[1:]
	}
	s.mu.Unlock()

	if f == nil {
		return true
	}
	if f.status == http.StatusOK {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": f.message})
	} else {
		c.JSON(f.status, gin.H{"detail": f.message})
	}
	return false
}

func (s *Server) routes(engine *gin.Engine) {
	api := engine.Group(APIRoot + "/creative_collection")
	{
		api.POST("/collect", s.handleCollect)
		api.GET("/list", s.handleList)
		api.GET("/status/:task_id", s.handleStatus)
		api.GET("/:id", s.handleDetail)
		api.DELETE("/:id", s.handleDelete)
	}
}

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (s *Server) handleCollect(c *gin.Context) {
	if !s.enter(c, OpSubmit) {
		return
	}
	var req models.CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoURL == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "video_url is required"})
		return
	}

	s.mu.Lock()
	var id string
	if len(s.queuedIDs) > 0 {
		id, s.queuedIDs = s.queuedIDs[0], s.queuedIDs[1:]
	} else {
		id = uuid.NewString()
	}
	if t, exists := s.tasks[id]; exists {
		t.videoURL = req.VideoURL
	} else {
		s.tasks[id] = &task{videoURL: req.VideoURL, current: Step{Status: models.TaskStatusPending}}
	}
	s.mu.Unlock()

	respond(c, models.CollectResponse{TaskID: id})
}

func (s *Server) handleStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	s.mu.Lock()
	s.statusPolls = append(s.statusPolls, taskID)
	s.mu.Unlock()
	if !s.enter(c, OpStatus) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.tasks[taskID]
	if !found {
		respond(c, models.TaskStatusResult{Status: models.TaskStatusNotFound})
		return
	}
	if len(t.script) > 0 {
		t.current = t.script[0]
		if len(t.script) > 1 {
			t.script = t.script[1:]
		} else {
			t.script = nil
		}
		if t.current.Item != nil && t.current.Status == models.TaskStatusCompleted {
			item := *t.current.Item
			if item.VideoURL == "" {
				item.VideoURL = t.videoURL
			}
			if item.SourcePlatform == "" {
				item.SourcePlatform = string(extractor.DetectPlatform(item.VideoURL))
			}
			stored := s.addItemLocked(item)
			t.current.Item = &stored
		}
	}
	respond(c, models.TaskStatusResult{
		Status:   t.current.Status,
		Progress: t.current.Progress,
		Data:     t.current.Item,
	})
}

func (s *Server) handleList(c *gin.Context) {
	if !s.enter(c, OpList) {
		return
	}
	page, errPage := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, errSize := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if errPage != nil || errSize != nil || page < 1 || pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "invalid pagination"}}})
		return
	}
	status := c.Query("status")
	platform := c.Query("platform")

	s.mu.Lock()
	filtered := make([]models.CollectionItem, 0, len(s.items))
	for _, item := range s.items {
		if status != "" && string(item.Status) != status {
			continue
		}
		if platform != "" && item.SourcePlatform != platform {
			continue
		}
		filtered = append(filtered, item)
	}
	s.mu.Unlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt > filtered[j].CreatedAt
	})

	total := len(filtered)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	respond(c, models.ListPage{Items: filtered[start:end], Total: total})
}

func (s *Server) handleDetail(c *gin.Context) {
	if !s.enter(c, OpDetail) {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be an integer"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			respond(c, item)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
}

func (s *Server) handleDelete(c *gin.Context) {
	if !s.enter(c, OpDelete) {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be an integer"})
		return
	}
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()
	respond(c, gin.H{"message": "Deleted successfully"})
}
