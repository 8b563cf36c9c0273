package inference

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
	"strings"

	"go.uber.org/zap"
)

// DefaultEndpoint is the hosted so-vits upload endpoint.
const DefaultEndpoint = "https://sovits-app--sovits-fastapi-app.modal.run/infer_upload_file"

const (
	fileField   = "file"
	paramsField = "inferenceParams"
)

type ClientOptions struct {
	Endpoint   string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client posts conversion requests to the remote inference service.
type Client struct {
	endpoint   string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// Audio is an open response body from a successful conversion. Callers
// must close Body.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("inference endpoint is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("inference token is required")
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		endpoint:   opts.Endpoint,
		token:      opts.Token,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}, nil
}

// Convert uploads file with params and returns the converted audio body.
func (c *Client) Convert(ctx context.Context, file UploadedFile, params Params) (*Audio, error) {
	body, contentType, err := encodeRequest(file, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("posting inference request",
		zap.String("endpoint", c.endpoint),
		zap.String("file", file.Name),
		zap.Int("bytes", len(file.Data)),
		zap.String("model", string(params.Model)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return &Audio{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

func encodeRequest(file UploadedFile, params Params) (io.Reader, string, error) {
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return nil, "", fmt.Errorf("encode inference params: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, file.Name))
	header.Set("Content-Type", file.MIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := writer.WriteField(paramsField, string(encodedParams)); err != nil {
		return nil, "", fmt.Errorf("write params field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
