// Package client talks to the creative collection HTTP API.
//
// Every response uses the {success, data, message} envelope. A non-2xx status becomes a
// models.TransportError, success:false becomes a models.ApplicationError.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	xhttp "github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/http"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/httpmiddleware"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Operation names, also used in fallback error messages.
const (
	OpSubmit = "submit"
	OpStatus = "status"
	OpList   = "list"
	OpDetail = "detail"
	OpDelete = "delete"
)

const basePath = "/creative_collection"

// Client implements the collaborator operations used by the task and list controllers.
type Client struct {
	http  *xhttp.Client
	cache DetailCache
	log   *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDetailCache caches item details. Items never change once created, so only delete
// invalidates an entry.
func WithDetailCache(cache DetailCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// New creates a Client on top of the shared HTTP transport.
func New(transport *xhttp.Client, log *logger.Logger, opts ...Option) *Client {
	c := &Client{http: transport, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts a collection task for videoURL and returns its task id.
func (c *Client) Submit(ctx context.Context, videoURL string) (string, error) {
	var out models.CollectResponse
	err := c.call(ctx, OpSubmit, http.MethodPost, basePath+"/collect", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").
			SetBody(models.CollectRequest{VideoURL: videoURL})
	}, &out)
	if err != nil {
		return "", err
	}
	if out.TaskID == "" {
		return "", &models.ApplicationError{Op: OpSubmit, Message: "submit response carried no task id"}
	}
	return out.TaskID, nil
}

// Status polls the task once.
func (c *Client) Status(ctx context.Context, taskID string) (*models.TaskStatusResult, error) {
	var out models.TaskStatusResult
	err := c.call(ctx, OpStatus, http.MethodGet, basePath+"/status/{taskID}", func(r *resty.Request) {
		r.SetPathParam("taskID", taskID)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page. An empty status filter or platform is left out of the query.
func (c *Client) List(ctx context.Context, q models.ListQuery) (*models.ListPage, error) {
	var out models.ListPage
	err := c.call(ctx, OpList, http.MethodGet, basePath+"/list", func(r *resty.Request) {
		r.SetQueryParam("page", strconv.Itoa(q.Page)).
			SetQueryParam("page_size", strconv.Itoa(q.PageSize))
		if q.Status != models.FilterAll {
			r.SetQueryParam("status", string(q.Status))
		}
		if q.Platform != "" {
			r.SetQueryParam("platform", q.Platform)
		}
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.CollectionItem{}
	}
	return &out, nil
}

// Detail fetches a single item, going through the detail cache when one is configured.
func (c *Client) Detail(ctx context.Context, id int64) (*models.CollectionItem, error) {
	if c.cache != nil {
		if item, ok := c.cache.Get(ctx, id); ok {
			return item, nil
		}
	}

	var out models.CollectionItem
	err := c.call(ctx, OpDetail, http.MethodGet, basePath+"/{id}", func(r *resty.Request) {
		r.SetPathParam("id", strconv.FormatInt(id, 10))
	}, &out)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Put(ctx, out)
	}
	return &out, nil
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, id int64) error {
	err := c.call(ctx, OpDelete, http.MethodDelete, basePath+"/{id}", func(r *resty.Request) {
		r.SetPathParam("id", strconv.FormatInt(id, 10))
	}, nil)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Invalidate(ctx, id)
	}
	return nil
}

// call sends one request and unwraps the envelope into out (when out is non-nil).
func (c *Client) call(ctx context.Context, op, method, path string, prep func(*resty.Request), out interface{}) error {
	reqInfo := models.RequestInfo{RequestID: uuid.NewString(), Method: method, Path: path}
	log := c.log.WithRequest(reqInfo)

	resp, err := c.http.Do(ctx, method, path, func(r *resty.Request) {
		r.SetHeader(httpmiddleware.RequestIDHeader, reqInfo.RequestID)
		if prep != nil {
			prep(r)
		}
	})
	if err != nil {
		terr := &models.TransportError{Op: op, Err: err}
		log.WithError(terr).Warn("Request failed")
		return terr
	}

	var env models.Envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if !resp.IsSuccess() {
		terr := &models.TransportError{Op: op, StatusCode: resp.StatusCode(), Message: env.Text()}
		log.WithError(terr).Warn("Request returned an error status")
		return terr
	}
	if decodeErr != nil {
		terr := &models.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Err:        errors.Wrapf(decodeErr, "decode %s envelope", op),
		}
		log.WithError(terr).Warn("Response is not a valid envelope")
		return terr
	}
	if !env.Success {
		aerr := &models.ApplicationError{Op: op, Message: env.Text()}
		log.WithError(aerr).Warn("Request rejected by the service")
		return aerr
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			terr := &models.TransportError{
				Op:         op,
				StatusCode: resp.StatusCode(),
				Err:        errors.Wrapf(err, "decode %s data", op),
			}
			log.WithError(terr).Warn("Response data has an unexpected shape")
			return terr
		}
	}
	log.Debug("Request succeeded")
	return nil
}
