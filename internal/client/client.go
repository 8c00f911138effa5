// Package client is a typed HTTP client for the ArtZip API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"artzip/internal/api"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("artzip api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("artzip api: status %d %s: %s", e.Status, e.Code, e.Message)
}

// File is one photo attached to a review submission.
type File struct {
	Name   string
	Reader io.Reader
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL, e.g. "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken replaces the bearer token used for later calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) Login(ctx context.Context, email, password string) (*api.Token, error) {
	var out api.Token
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, api.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req api.SignupRequest) (*api.Token, error) {
	var out api.Token
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, req, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

func (c *Client) CreateReview(ctx context.Context, p api.ReviewPayload, files []File) (int64, error) {
	var out api.ReviewID
	if err := c.doMultipart(ctx, http.MethodPost, "/reviews", p, files, &out); err != nil {
		return 0, err
	}
	return out.ReviewID, nil
}

func (c *Client) UpdateReview(ctx context.Context, id int64, p api.ReviewPayload, files []File) error {
	return c.doMultipart(ctx, http.MethodPut, "/reviews/"+strconv.FormatInt(id, 10), p, files, nil)
}

func (c *Client) GetReview(ctx context.Context, id int64) (*api.Review, error) {
	var out api.Review
	if err := c.doJSON(ctx, http.MethodGet, "/reviews/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReviewQuery filters the community feed. Page is zero-indexed.
type ReviewQuery struct {
	ExhibitionID int64
	Page         int
	Size         int
	Sort         string
}

func (c *Client) ListReviews(ctx context.Context, q ReviewQuery) (api.Page[api.Review], error) {
	v := pageValues(q.Page, q.Size)
	if q.ExhibitionID > 0 {
		v.Set("exhibitionId", strconv.FormatInt(q.ExhibitionID, 10))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	var out api.Page[api.Review]
	err := c.doJSON(ctx, http.MethodGet, "/reviews", v, nil, &out)
	return out, err
}

func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/reviews/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) ToggleReviewLike(ctx context.Context, id int64) (*api.ReviewLikeState, error) {
	var out api.ReviewLikeState
	if err := c.doJSON(ctx, http.MethodPatch, "/reviews/"+strconv.FormatInt(id, 10)+"/like", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchExhibitions(ctx context.Context, query string, page, size int) (api.Page[api.Exhibition], error) {
	v := pageValues(page, size)
	if query != "" {
		v.Set("query", query)
	}
	var out api.Page[api.Exhibition]
	err := c.doJSON(ctx, http.MethodGet, "/exhibitions", v, nil, &out)
	return out, err
}

func (c *Client) ToggleExhibitionLike(ctx context.Context, id int64) (*api.ExhibitionLikeState, error) {
	var out api.ExhibitionLikeState
	if err := c.doJSON(ctx, http.MethodPatch, "/exhibitions/"+strconv.FormatInt(id, 10)+"/like", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserInfo(ctx context.Context, userID int64) (*api.UserInfo, error) {
	var out api.UserInfo
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID, "/info"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserReviews(ctx context.Context, userID int64, page, size int) (api.Page[api.Review], error) {
	var out api.Page[api.Review]
	err := c.doJSON(ctx, http.MethodGet, userPath(userID, "/reviews"), pageValues(page, size), nil, &out)
	return out, err
}

func (c *Client) GetLikedReviews(ctx context.Context, userID int64, page, size int) (api.Page[api.Review], error) {
	var out api.Page[api.Review]
	err := c.doJSON(ctx, http.MethodGet, userPath(userID, "/reviews/likes"), pageValues(page, size), nil, &out)
	return out, err
}

func (c *Client) GetLikedExhibitions(ctx context.Context, userID int64, page, size int) (api.Page[api.Exhibition], error) {
	var out api.Page[api.Exhibition]
	err := c.doJSON(ctx, http.MethodGet, userPath(userID, "/exhibitions/likes"), pageValues(page, size), nil, &out)
	return out, err
}

func userPath(userID int64, suffix string) string {
	return "/users/" + strconv.FormatInt(userID, 10) + suffix
}

func pageValues(page, size int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	return v
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, query, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// doMultipart sends p as the "data" part (application/json) followed by one
// "files" part per attachment.
func (c *Client) doMultipart(ctx context.Context, method, path string, p api.ReviewPayload, files []File, out any) error {
	body, contentType, err := EncodeSubmission(p, files)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

// EncodeSubmission builds the multipart body of a review create/update.
func EncodeSubmission(p api.ReviewPayload, files []File) (*bytes.Buffer, string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, "", fmt.Errorf("encode review payload: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, api.FormFieldData))
	h.Set("Content-Type", "application/json")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(raw); err != nil {
		return nil, "", err
	}

	for _, f := range files {
		fw, err := w.CreateFormFile(api.FormFieldFiles, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, f.Reader); err != nil {
			return nil, "", fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env api.Envelope[json.RawMessage]
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Error
			if env.Message != "" {
				apiErr.Message = env.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	env := api.Envelope[json.RawMessage]{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
