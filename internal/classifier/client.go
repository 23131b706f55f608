// Package classifier implements the HTTP client for the external
// classification service. Document classification is a two-step exchange:
// the raw bytes are uploaded first, then a blocking workflow run references
// the uploaded file by id. The package also carries the chat-message and
// annotation surfaces of the same service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// System is the outbound classification service surface.
type System interface {
	UploadFile(ctx context.Context, data []byte, filename, user string) (*FileRef, error)
	RunWorkflow(ctx context.Context, inputs map[string]any, user string, purpose Purpose) (*WorkflowResult, error)
	SendChatMessage(ctx context.Context, req ChatRequest) (*ChatResult, error)
	PushAnnotation(ctx context.Context, question, answer string) (*Annotation, error)
	GetAnnotation(ctx context.Context, id string) (*Annotation, error)
	UpdateAnnotation(ctx context.Context, id, question, answer string) (*Annotation, error)
	DeleteAnnotation(ctx context.Context, id string) error

	FileInputs(fileID, filename, user string, extra map[string]any) map[string]any
	Status() Status
}

// FileRef identifies a file uploaded to the classification service.
type FileRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}

// WorkflowResult is the blocking workflow-run response.
type WorkflowResult struct {
	WorkflowRunID string       `json:"workflow_run_id"`
	TaskID        string       `json:"task_id"`
	Data          WorkflowData `json:"data"`
}

// ChatRequest drives a blocking chat-message run.
type ChatRequest struct {
	Query  string
	Inputs map[string]any
	User   string
}

// ChatResult is the blocking chat-message response.
type ChatResult struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
	CreatedAt      int64  `json:"created_at"`
}

// Annotation is a question/answer pair stored on the service.
type Annotation struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	HitCount int    `json:"hit_count"`
}

// Status reports which credential chains resolve, for diagnostics.
type Status struct {
	BaseURL                string `json:"base_url"`
	UploadConfigured       bool   `json:"upload_configured"`
	WorkflowConfigured     bool   `json:"workflow_configured"`
	FileWorkflowConfigured bool   `json:"file_workflow_configured"`
	ChatConfigured         bool   `json:"chat_configured"`
	AnnotationConfigured   bool   `json:"annotation_configured"`
}

type client struct {
	cfg    *Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a System backed by the given configuration.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger.With("system", "classifier"),
	}
}

func (c *client) UploadFile(ctx context.Context, data []byte, filename, user string) (*FileRef, error) {
	key, err := c.cfg.Key(PurposeUpload)
	if err != nil {
		return nil, err
	}
	if user == "" {
		user = c.cfg.DefaultUser
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := form.WriteField("user", user); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	ref := &FileRef{}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		url:         c.cfg.UploadURL(),
		key:         key,
		body:        &body,
		contentType: form.FormDataContentType(),
		timeout:     c.cfg.UploadTimeoutDuration(),
		op:          "upload file",
	}, ref)
	if err != nil {
		return nil, err
	}

	c.logger.Info("file uploaded", "file_id", ref.ID, "name", ref.Name)
	return ref, nil
}

func (c *client) RunWorkflow(ctx context.Context, inputs map[string]any, user string, purpose Purpose) (*WorkflowResult, error) {
	key, err := c.cfg.Key(purpose)
	if err != nil {
		return nil, err
	}
	if user == "" {
		user = c.cfg.DefaultUser
	}

	payload := map[string]any{
		"inputs":        inputs,
		"response_mode": "blocking",
		"user":          user,
	}

	result := &WorkflowResult{}
	err = c.doJSON(ctx, http.MethodPost, c.cfg.WorkflowURL(), key, payload,
		c.cfg.WorkflowTimeoutDuration(), "run workflow", result)
	if err != nil {
		return nil, err
	}

	c.logger.Info("workflow completed", "run_id", result.WorkflowRunID)
	return result, nil
}

func (c *client) SendChatMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	key, err := c.cfg.Key(PurposeChat)
	if err != nil {
		return nil, err
	}
	if req.User == "" {
		req.User = c.cfg.DefaultUser
	}
	if req.Inputs == nil {
		req.Inputs = map[string]any{}
	}

	payload := map[string]any{
		"query":         req.Query,
		"inputs":        req.Inputs,
		"response_mode": "blocking",
		"user":          req.User,
	}

	result := &ChatResult{}
	err = c.doJSON(ctx, http.MethodPost, c.cfg.ChatURL(), key, payload,
		c.cfg.WorkflowTimeoutDuration(), "send chat message", result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *client) PushAnnotation(ctx context.Context, question, answer string) (*Annotation, error) {
	key, err := c.cfg.Key(PurposeAnnotation)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"question": question,
		"answer":   answer,
	}

	annotation := &Annotation{}
	err = c.doJSON(ctx, http.MethodPost, c.cfg.AnnotationsURL(), key, payload,
		c.cfg.AnnotationTimeoutDuration(), "push annotation", annotation)
	if err != nil {
		return nil, err
	}
	return annotation, nil
}

func (c *client) GetAnnotation(ctx context.Context, id string) (*Annotation, error) {
	key, err := c.cfg.Key(PurposeAnnotation)
	if err != nil {
		return nil, err
	}

	annotation := &Annotation{}
	err = c.do(ctx, request{
		method:  http.MethodGet,
		url:     c.cfg.AnnotationsURL() + "/" + id,
		key:     key,
		timeout: c.cfg.AnnotationTimeoutDuration(),
		op:      "get annotation",
	}, annotation)
	if err != nil {
		return nil, err
	}
	return annotation, nil
}

func (c *client) UpdateAnnotation(ctx context.Context, id, question, answer string) (*Annotation, error) {
	key, err := c.cfg.Key(PurposeAnnotation)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"question": question,
		"answer":   answer,
	}

	annotation := &Annotation{}
	err = c.doJSON(ctx, http.MethodPut, c.cfg.AnnotationsURL()+"/"+id, key, payload,
		c.cfg.AnnotationTimeoutDuration(), "update annotation", annotation)
	if err != nil {
		return nil, err
	}
	return annotation, nil
}

func (c *client) DeleteAnnotation(ctx context.Context, id string) error {
	key, err := c.cfg.Key(PurposeAnnotation)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:  http.MethodDelete,
		url:     c.cfg.AnnotationsURL() + "/" + id,
		key:     key,
		timeout: c.cfg.AnnotationTimeoutDuration(),
		op:      "delete annotation",
	}, nil)
}

// FileInputs builds workflow inputs referencing an uploaded file, merging the
// configured extra parameters and any caller-supplied values.
func (c *client) FileInputs(fileID, filename, user string, extra map[string]any) map[string]any {
	inputs := map[string]any{
		c.cfg.FileVariableName: map[string]any{
			"transfer_method": "local_file",
			"upload_file_id":  fileID,
			"type":            c.cfg.FileDocumentType,
		},
		"filename": filename,
		"user":     user,
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(c.cfg.ExtraParams), &params); err != nil {
		c.logger.Warn("ignoring malformed extra_params", "error", err)
	}
	for k, v := range params {
		inputs[k] = v
	}
	for k, v := range extra {
		inputs[k] = v
	}

	return inputs
}

func (c *client) Status() Status {
	return Status{
		BaseURL:                c.cfg.BaseURL,
		UploadConfigured:       c.cfg.Configured(PurposeUpload),
		WorkflowConfigured:     c.cfg.Configured(PurposeWorkflow),
		FileWorkflowConfigured: c.cfg.Configured(PurposeFileWorkflow),
		ChatConfigured:         c.cfg.Configured(PurposeChat),
		AnnotationConfigured:   c.cfg.Configured(PurposeAnnotation),
	}
}

type request struct {
	method      string
	url         string
	key         string
	body        io.Reader
	contentType string
	timeout     time.Duration
	op          string
}

func (c *client) doJSON(ctx context.Context, method, url, key string, payload any, timeout time.Duration, op string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", op, err)
	}
	return c.do(ctx, request{
		method:      method,
		url:         url,
		key:         key,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		timeout:     timeout,
		op:          op,
	}, out)
}

func (c *client) do(ctx context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return fmt.Errorf("%s: %w", r.op, err)
	}
	req.Header.Set("Authorization", "Bearer "+r.key)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", r.op, ErrTimeout)
		}
		return fmt.Errorf("%s: %w: %v", r.op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %w", r.op, &ServiceError{
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(body)),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	return nil
}
