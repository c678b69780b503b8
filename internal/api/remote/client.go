// Package remote implements api.Client over the HTTP/JSON transport served by
// package server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
)

// Client talks to a finmgr server. It is safe for concurrent use, although
// LastError only describes whichever call finished last.
type Client struct {
	api.ErrorState

	base string
	hc   *http.Client

	mu    sync.Mutex
	token string
}

var _ api.Client = (*Client)(nil)

// New returns a client for baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/") + "/api", hc: hc}
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken resumes a stored session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// raw and contentType replace body for multipart uploads.
	raw         io.Reader
	contentType string
}

// do sends req and decodes a JSON response into out. A 404 on a single entity
// read is reported through found instead of an error.
func (c *Client) do(ctx context.Context, req request, out any) (found bool, err error) {
	u := c.base + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	body := req.raw
	contentType := req.contentType
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return false, err
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}
	hr, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return false, err
	}
	if contentType != "" {
		hr.Header.Set("Content-Type", contentType)
	}
	hr.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		hr.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(hr)
	if err != nil {
		return false, api.NewError(http.StatusServiceUnavailable, api.CodeUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return true, nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e api.Error
	if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
		return api.NewError(resp.StatusCode, api.CodeInternal, strings.TrimSpace(string(data)))
	}
	e.Status = resp.StatusCode
	return &e
}

// call runs do and records the outcome in ErrorState.
func (c *Client) call(ctx context.Context, req request, out any) error {
	_, err := c.do(ctx, req, out)
	return c.Track(err)
}

// get reads one entity and maps NOT_FOUND to nil, nil.
func get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	_, err := c.do(ctx, request{method: http.MethodGet, path: path}, &out)
	if api.ErrorCode(err) == api.CodeNotFound {
		c.Track(nil)
		return nil, nil
	}
	if err := c.Track(err); err != nil {
		return nil, err
	}
	return &out, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.call(ctx, request{method: method, path: path, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	var out []T
	if err := c.call(ctx, request{method: http.MethodGet, path: path, query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	res, err := send[api.LoginResponse](ctx, c, http.MethodPost, "/login", api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return res, nil
}

// Logout ends the session. The local token is dropped even when the server
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.call(ctx, request{method: http.MethodPost, path: "/logout"}, nil)
	c.SetToken("")
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*api.User, error) {
	if c.Token() == "" {
		return nil, c.Track(api.ErrUnauthorized)
	}
	return send[api.User](ctx, c, http.MethodGet, "/me", nil)
}

func idPath(prefix string, id uuid.UUID) string { return prefix + "/" + id.String() }

func (c *Client) ListContacts(ctx context.Context, q api.ContactQuery) ([]api.Contact, error) {
	v := url.Values{}
	if q.Type != nil {
		v.Set("type", string(*q.Type))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	setPage(v, q.Skip, q.Take)
	return list[api.Contact](ctx, c, "/contacts", v)
}

func (c *Client) GetContact(ctx context.Context, id uuid.UUID) (*api.Contact, error) {
	return get[api.Contact](ctx, c, idPath("/contacts", id))
}

func (c *Client) CreateContact(ctx context.Context, req api.ContactRequest) (*api.Contact, error) {
	return send[api.Contact](ctx, c, http.MethodPost, "/contacts", req)
}

func (c *Client) UpdateContact(ctx context.Context, id uuid.UUID, req api.ContactRequest) (*api.Contact, error) {
	return send[api.Contact](ctx, c, http.MethodPut, idPath("/contacts", id), req)
}

func (c *Client) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, request{method: http.MethodDelete, path: idPath("/contacts", id)}, nil)
}

func (c *Client) ListAccounts(ctx context.Context, bankContactID *uuid.UUID) ([]api.Account, error) {
	v := url.Values{}
	if bankContactID != nil {
		v.Set("bankContactId", bankContactID.String())
	}
	return list[api.Account](ctx, c, "/accounts", v)
}

func (c *Client) GetAccount(ctx context.Context, id uuid.UUID) (*api.Account, error) {
	return get[api.Account](ctx, c, idPath("/accounts", id))
}

func (c *Client) CreateAccount(ctx context.Context, req api.AccountRequest) (*api.Account, error) {
	return send[api.Account](ctx, c, http.MethodPost, "/accounts", req)
}

func (c *Client) UpdateAccount(ctx context.Context, id uuid.UUID, req api.AccountRequest) (*api.Account, error) {
	return send[api.Account](ctx, c, http.MethodPut, idPath("/accounts", id), req)
}

func (c *Client) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, request{method: http.MethodDelete, path: idPath("/accounts", id)}, nil)
}

func (c *Client) ListSavingsPlans(ctx context.Context, onlyActive bool) ([]api.SavingsPlan, error) {
	v := url.Values{}
	if onlyActive {
		v.Set("onlyActive", "true")
	}
	return list[api.SavingsPlan](ctx, c, "/savings-plans", v)
}

func (c *Client) GetSavingsPlan(ctx context.Context, id uuid.UUID) (*api.SavingsPlan, error) {
	return get[api.SavingsPlan](ctx, c, idPath("/savings-plans", id))
}

func (c *Client) CreateSavingsPlan(ctx context.Context, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	return send[api.SavingsPlan](ctx, c, http.MethodPost, "/savings-plans", req)
}

func (c *Client) UpdateSavingsPlan(ctx context.Context, id uuid.UUID, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	return send[api.SavingsPlan](ctx, c, http.MethodPut, idPath("/savings-plans", id), req)
}

func (c *Client) DeleteSavingsPlan(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, request{method: http.MethodDelete, path: idPath("/savings-plans", id)}, nil)
}

func (c *Client) ListSecurities(ctx context.Context, onlyActive bool) ([]api.Security, error) {
	v := url.Values{}
	if onlyActive {
		v.Set("onlyActive", "true")
	}
	return list[api.Security](ctx, c, "/securities", v)
}

func (c *Client) GetSecurity(ctx context.Context, id uuid.UUID) (*api.Security, error) {
	return get[api.Security](ctx, c, idPath("/securities", id))
}

func (c *Client) CreateSecurity(ctx context.Context, req api.SecurityRequest) (*api.Security, error) {
	return send[api.Security](ctx, c, http.MethodPost, "/securities", req)
}

func (c *Client) UpdateSecurity(ctx context.Context, id uuid.UUID, req api.SecurityRequest) (*api.Security, error) {
	return send[api.Security](ctx, c, http.MethodPut, idPath("/securities", id), req)
}

func (c *Client) DeleteSecurity(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, request{method: http.MethodDelete, path: idPath("/securities", id)}, nil)
}

func (c *Client) ListPostings(ctx context.Context, q api.PostingQuery) ([]api.Posting, error) {
	v := url.Values{}
	setID := func(key string, id *uuid.UUID) {
		if id != nil {
			v.Set(key, id.String())
		}
	}
	setID("accountId", q.AccountID)
	setID("contactId", q.ContactID)
	setID("savingsPlanId", q.SavingsPlanID)
	setID("securityId", q.SecurityID)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.From != nil {
		v.Set("from", q.From.Format(time.DateOnly))
	}
	if q.To != nil {
		v.Set("to", q.To.Format(time.DateOnly))
	}
	setPage(v, q.Skip, q.Take)
	return list[api.Posting](ctx, c, "/postings", v)
}

func (c *Client) ImportPostings(ctx context.Context, accountID uuid.UUID, r io.Reader, fileName string) (*api.ImportResult, error) {
	body, contentType, err := multipartBody(r, fileName, "text/csv", nil)
	if err != nil {
		return nil, c.Track(err)
	}
	var out api.ImportResult
	req := request{method: http.MethodPost, path: idPath("/accounts", accountID) + "/import", raw: body, contentType: contentType}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAttachments(ctx context.Context, kind api.AttachmentEntityKind, entityID uuid.UUID) ([]api.Attachment, error) {
	return list[api.Attachment](ctx, c, "/attachments/"+url.PathEscape(string(kind))+"/"+entityID.String(), nil)
}

func (c *Client) UploadAttachment(ctx context.Context, kind api.AttachmentEntityKind, entityID uuid.UUID, r io.Reader, fileName, contentType, role string) (*api.Attachment, error) {
	fields := map[string]string{}
	if role != "" {
		fields["role"] = role
	}
	body, ct, err := multipartBody(r, fileName, contentType, fields)
	if err != nil {
		return nil, c.Track(err)
	}
	var out api.Attachment
	req := request{method: http.MethodPost, path: "/attachments/" + url.PathEscape(string(kind)) + "/" + entityID.String(), raw: body, contentType: ct}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]api.User, error) {
	return list[api.User](ctx, c, "/users", nil)
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*api.User, error) {
	return get[api.User](ctx, c, idPath("/users", id))
}

func (c *Client) CreateUser(ctx context.Context, req api.UserRequest) (*api.User, error) {
	return send[api.User](ctx, c, http.MethodPost, "/users", req)
}

func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, req api.UserRequest) (*api.User, error) {
	return send[api.User](ctx, c, http.MethodPut, idPath("/users", id), req)
}

func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, request{method: http.MethodDelete, path: idPath("/users", id)}, nil)
}

func (c *Client) ListBackups(ctx context.Context) ([]api.Backup, error) {
	return list[api.Backup](ctx, c, "/backups", nil)
}

func (c *Client) CreateBackup(ctx context.Context) (*api.Backup, error) {
	return send[api.Backup](ctx, c, http.MethodPost, "/backups", nil)
}

func setPage(v url.Values, skip, take int) {
	if skip > 0 {
		v.Set("skip", strconv.Itoa(skip))
	}
	if take > 0 {
		v.Set("take", strconv.Itoa(take))
	}
}

// multipartBody buffers r as the "file" part of a form.
func multipartBody(r io.Reader, fileName, contentType string, fields map[string]string) (io.Reader, string, error) {
	if r == nil {
		return nil, "", errors.New("no file content")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
