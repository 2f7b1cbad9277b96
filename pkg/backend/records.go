package backend

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/internal/schedule"
)

type ListQuery struct {
	Search   string
	Page     int
	PerPage  int
	Statuses []lifecycle.Status
	// Date is YYYY-MM-DD; empty means no date filter.
	Date string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(q.Statuses) > 0 {
		v.Set("status", joinStatuses(q.Statuses))
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	return v
}

func joinStatuses(ss []lifecycle.Status) string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",")
}

// TransitionRequest is the body of the backend's status endpoint.
type TransitionRequest struct {
	Status          lifecycle.Status `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
}

type singleEnvelope struct {
	Success *bool          `json:"success,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    *record.Record `json:"data"`
}

type listEnvelope struct {
	Data []record.Record `json:"data"`
}

func recordPath(kind lifecycle.Kind) string {
	p := lifecycle.PolicyFor(kind).Path
	if p == "" {
		p = "/" + string(kind)
	}
	return p
}

// List fetches one page of records of kind.
func (c *Client) List(ctx context.Context, kind lifecycle.Kind, q ListQuery) (record.Page, error) {
	var page record.Page
	if err := c.getJSON(ctx, "list", recordPath(kind), q.values(), &page); err != nil {
		return record.Page{}, err
	}
	if page.Data == nil {
		page.Data = []record.Record{}
	}
	return page, nil
}

// Get fetches one record with its nested relations.
func (c *Client) Get(ctx context.Context, kind lifecycle.Kind, id string) (record.Record, error) {
	var env singleEnvelope
	if err := c.getJSON(ctx, "get", recordPath(kind)+"/"+url.PathEscape(id), nil, &env); err != nil {
		return record.Record{}, err
	}
	if env.Data == nil {
		return record.Record{}, &Error{Kind: ErrNotFound, Op: "get", Status: http.StatusOK, Message: "empty data"}
	}
	return *env.Data, nil
}

// Transition asks the backend to move a record to req.Status. The returned
// record is nil when the backend acknowledged without echoing it.
func (c *Client) Transition(ctx context.Context, kind lifecycle.Kind, id string, req TransitionRequest) (*record.Record, error) {
	const op = "transition"
	resp, err := c.do(ctx, op, http.MethodPut, recordPath(kind)+"/"+url.PathEscape(id)+"/status", nil, req)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, classify(op, resp.status, resp.body, true)
	}
	if len(strings.TrimSpace(string(resp.body))) == 0 {
		return nil, nil
	}

	var env singleEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, &Error{Kind: ErrFetchFailed, Op: op, Status: resp.status, Message: "undecodable response", Err: err}
	}
	// some endpoints answer 200 with a failure payload
	if env.Success != nil && !*env.Success {
		return nil, &Error{Kind: ErrTransitionRejected, Op: op, Status: resp.status, Message: env.Message}
	}
	return env.Data, nil
}

type ScheduleQuery struct {
	Date     string
	Statuses []lifecycle.Status
	Group    string
}

// Schedule fetches the bookings the grid is assembled from.
func (c *Client) Schedule(ctx context.Context, q ScheduleQuery) ([]record.Record, error) {
	v := url.Values{}
	v.Set("date", q.Date)
	if len(q.Statuses) > 0 {
		v.Set("status", joinStatuses(q.Statuses))
	}
	if q.Group != "" {
		v.Set("group", q.Group)
	}
	var env listEnvelope
	if err := c.getJSON(ctx, "schedule", "/schedule", v, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []record.Record{}
	}
	return env.Data, nil
}

// Resources returns schedulable resources in the backend's display order.
func (c *Client) Resources(ctx context.Context, group string) ([]schedule.Resource, error) {
	v := url.Values{}
	if group != "" {
		v.Set("group", group)
	}
	var env struct {
		Data []struct {
			ID   json.RawMessage `json:"id"`
			Name string          `json:"name"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "resources", "/resources", v, &env); err != nil {
		return nil, err
	}
	out := make([]schedule.Resource, 0, len(env.Data))
	for _, r := range env.Data {
		out = append(out, schedule.Resource{ID: record.DecodeID(r.ID), Name: r.Name})
	}
	return out, nil
}

// Document is an opaque printable artifact (receipt or SPJ).
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

func (c *Client) Receipt(ctx context.Context, kind lifecycle.Kind, id string) (Document, error) {
	const op = "receipt"
	resp, err := c.do(ctx, op, http.MethodGet, recordPath(kind)+"/"+url.PathEscape(id)+"/receipt", nil, nil)
	if err != nil {
		return Document{}, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return Document{}, classify(op, resp.status, resp.body, false)
	}
	doc := Document{ContentType: resp.contentType, Body: resp.body}
	if doc.ContentType == "" {
		doc.ContentType = http.DetectContentType(resp.body)
	}
	if resp.disposition != "" {
		if _, params, err := mime.ParseMediaType(resp.disposition); err == nil {
			doc.Filename = params["filename"]
		}
	}
	if doc.Filename == "" {
		doc.Filename = string(kind) + "-" + id + extensionFor(doc.ContentType)
	}
	return doc, nil
}

func extensionFor(contentType string) string {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "application/pdf":
		return ".pdf"
	case "text/html":
		return ".html"
	default:
		return ""
	}
}
