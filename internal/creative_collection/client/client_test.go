package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/collectiontest"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	xhttp "github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/http"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	transport, err := xhttp.NewClient(baseURL, 2*time.Second, config.CircuitBreakerConfig{})
	require.NoError(t, err)
	return New(transport, logger.Discard(), opts...)
}

func TestSubmitAndStatus(t *testing.T) {
	srv := collectiontest.New(t)
	srv.QueueTaskIDs("t1")
	srv.ScriptTask("t1",
		collectiontest.Step{Status: models.TaskStatusProcessing, Progress: 40},
	)
	c := newTestClient(t, srv.URL())
	ctx := context.Background()

	id, err := c.Submit(ctx, "https://v.douyin.com/abc")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	st, err := c.Status(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, st.Status)
	assert.Equal(t, 40, st.Progress)
	assert.Nil(t, st.Data)
}

func TestStatusUnknownTaskIsNotFound(t *testing.T) {
	srv := collectiontest.New(t)
	c := newTestClient(t, srv.URL())

	st, err := c.Status(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusNotFound, st.Status)
	assert.True(t, st.Status.IsTerminal())
}

func TestListOmitsEmptyFilters(t *testing.T) {
	srv := collectiontest.New(t)
	srv.AddItem(models.CollectionItem{Title: "a", SourcePlatform: "抖音"})
	failed := "boom"
	srv.AddItem(models.CollectionItem{Title: "b", Status: models.ItemStatusFailed, ErrorMessage: &failed, SourcePlatform: "头条"})
	c := newTestClient(t, srv.URL())
	ctx := context.Background()

	page, err := c.List(ctx, models.ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b", page.Items[0].Title, "newest first")

	page, err = c.List(ctx, models.ListQuery{Page: 1, PageSize: 10, Status: models.FilterFailed, Platform: "头条"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "boom", page.Items[0].Failure())

	queries := srv.ListQueries()
	require.Len(t, queries, 2)
	assert.False(t, queries[0].Has("status"))
	assert.False(t, queries[0].Has("platform"))
	assert.Equal(t, "10", queries[0].Get("page_size"))
	assert.Equal(t, "failed", queries[1].Get("status"))
	assert.Equal(t, "头条", queries[1].Get("platform"))
}

func TestListEmptyPageHasNonNilItems(t *testing.T) {
	srv := collectiontest.New(t)
	c := newTestClient(t, srv.URL())

	page, err := c.List(context.Background(), models.ListQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestErrorTaxonomy(t *testing.T) {
	srv := collectiontest.New(t)
	c := newTestClient(t, srv.URL())
	ctx := context.Background()

	srv.FailNext(collectiontest.OpSubmit, http.StatusInternalServerError, "crawler exploded")
	_, err := c.Submit(ctx, "https://v.douyin.com/abc")
	var terr *models.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Equal(t, "crawler exploded", models.UserMessage(err))

	srv.RejectNext(collectiontest.OpList, "")
	_, err = c.List(ctx, models.ListQuery{Page: 1, PageSize: 10})
	var aerr *models.ApplicationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "list failed", models.UserMessage(err))

	srv.RejectNext(collectiontest.OpDelete, "locked")
	err = c.Delete(ctx, 1)
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "locked", models.UserMessage(err))
	assert.Equal(t, models.ErrorTypeApplication, models.ErrorType(err))
}

func TestDetailNotFound(t *testing.T) {
	srv := collectiontest.New(t)
	c := newTestClient(t, srv.URL())

	_, err := c.Detail(context.Background(), 99)
	var terr *models.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
	assert.Equal(t, "Item not found", models.UserMessage(err))
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := newTestClient(t, url)
	_, err := c.Submit(context.Background(), "https://v.douyin.com/abc")
	var terr *models.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.StatusCode)
	assert.Equal(t, "submit failed", models.UserMessage(err))
}

func TestNonEnvelopeBodyIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.Status(context.Background(), "t1")
	var terr *models.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "status failed", models.UserMessage(err))
}

func TestDetailCacheAndDeleteInvalidation(t *testing.T) {
	srv := collectiontest.New(t)
	item := srv.AddItem(models.CollectionItem{Title: "cached"})
	cache, err := NewMemoryCache(8, time.Minute)
	require.NoError(t, err)
	c := newTestClient(t, srv.URL(), WithDetailCache(cache))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Detail(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "cached", got.Title)
	}
	assert.Equal(t, 1, srv.Calls(collectiontest.OpDetail))

	require.NoError(t, c.Delete(ctx, item.ID))
	_, ok := cache.Get(ctx, item.ID)
	assert.False(t, ok)

	_, err = c.Detail(ctx, item.ID)
	assert.Error(t, err)
	assert.Equal(t, 2, srv.Calls(collectiontest.OpDetail))
}

func TestTieredCacheBackfillsLocal(t *testing.T) {
	ctx := context.Background()
	local, _ := NewMemoryCache(4, 0)
	shared, _ := NewMemoryCache(4, 0)
	tiered := NewTieredCache(local, shared)

	shared.Put(ctx, models.CollectionItem{ID: 5, Title: "shared"})
	got, ok := tiered.Get(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, "shared", got.Title)

	_, ok = local.Get(ctx, 5)
	assert.True(t, ok, "local cache should be back-filled")

	tiered.Invalidate(ctx, 5)
	_, ok = shared.Get(ctx, 5)
	assert.False(t, ok)
}

func TestContextCancellationStopsRequest(t *testing.T) {
	srv := collectiontest.New(t)
	release := srv.Hold(collectiontest.OpStatus)
	defer release()
	c := newTestClient(t, srv.URL())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Status(ctx, "t1")
		done <- err
	}()

	require.Eventually(t, func() bool { return srv.Calls(collectiontest.OpStatus) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("Status did not return after cancel")
	}
}
