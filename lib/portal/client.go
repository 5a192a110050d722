// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package portal is the client side of the Central Portal Publisher
// API: bundle upload, deployment status probes, and the terminal
// publish/drop actions, plus the supervisor that drives uploaded
// deployments to a settled state.
package portal

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mavenport/mavenport/lib/bundle"
	"github.com/mavenport/mavenport/lib/jsonlite"
	"github.com/mavenport/mavenport/lib/secret"
)

// DefaultBaseURL is the production Publisher API endpoint.
const DefaultBaseURL = "https://central.sonatype.com"

// Resource paths of the Publisher API.
const (
	uploadPath     = "/api/v1/publisher/upload"
	statusPath     = "/api/v1/publisher/status"
	deploymentPath = "/api/v1/publisher/deployment"
)

// userAgent identifies this client on every call.
const userAgent = "mavenport"

// Timeout tiers. Uploads carry artifact data and get the long tier;
// status probes and the terminal bulk actions are small exchanges.
const (
	uploadTimeout    = 90 * time.Second
	shortCallTimeout = 30 * time.Second
	statusTimeout    = 30 * time.Second
	connectTimeout   = 10 * time.Second
)

// maxResponseSize bounds response body reads. Publisher API bodies
// are deployment ids and small JSON documents; the bound only guards
// against a misbehaving server.
const maxResponseSize int64 = 1 << 20

// Credentials is the Portal user/token pair. The token lives in
// locked memory and never appears in String output.
type Credentials struct {
	// User is the Portal token username.
	User string

	// Token is the Portal access token.
	Token *secret.Buffer
}

// Validate checks the credentials are populated.
func (c Credentials) Validate() error {
	if c.User == "" {
		return fmt.Errorf("portal: credentials user must be provided")
	}
	if c.Token == nil {
		return fmt.Errorf("portal: credentials token must be provided")
	}
	return nil
}

// authorizationValue renders the bearer-style Authorization header
// the Publisher API expects: base64 of user:token.
func (c Credentials) authorizationValue() string {
	pair := make([]byte, 0, len(c.User)+1+c.Token.Len())
	pair = append(pair, c.User...)
	pair = append(pair, ':')
	pair = append(pair, c.Token.Bytes()...)
	value := "Bearer " + base64.StdEncoding.EncodeToString(pair)
	secret.Zero(pair)
	return value
}

// String renders a redacted form.
func (c Credentials) String() string {
	return "Credentials[user=***, token=***]"
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL of the Publisher API. Empty means DefaultBaseURL.
	BaseURL string

	// Credentials authenticate every call.
	Credentials Credentials

	// HTTPClient overrides the transport. Nil builds one with the
	// connect timeout applied; per-call timeouts come from contexts.
	HTTPClient *http.Client

	// Logger receives call traces. Nil means slog.Default().
	Logger *slog.Logger
}

// Client issues the Publisher API operations. All methods carry the
// fixed User-Agent and the Authorization header.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	authorization string
}

// NewClient validates the credentials and builds a client.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Credentials.Validate(); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("portal: invalid base URL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
		authorization: config.Credentials.authorizationValue(),
	}, nil
}

// Upload POSTs the bundle jar as multipart/form-data. A 201 response
// body is the assigned deployment id and the deployment starts out
// PENDING. Any other status yields an unassigned, terminally FAILED
// state — upload failure of one bundle must not abort the others.
// Transport-level failures are returned as errors and are fatal.
func (c *Client) Upload(ctx context.Context, b bundle.Bundle) (BundleRepositoryState, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return BundleRepositoryState{}, fmt.Errorf("portal: reading bundle %s: %w", b.Path, err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="bundle"; filename=%q`, b.Name())},
		"Content-Type":        {"application/octet-stream"},
	})
	if err != nil {
		return BundleRepositoryState{}, fmt.Errorf("portal: building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return BundleRepositoryState{}, fmt.Errorf("portal: building upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return BundleRepositoryState{}, fmt.Errorf("portal: building upload form: %w", err)
	}

	c.logger.Info("uploading bundle", "bundle", b.Name(), "size", humanize.Bytes(uint64(len(data))))

	status, responseBody, err := c.do(ctx, http.MethodPost, uploadPath, uploadTimeout, &body, form.FormDataContentType())
	if err != nil {
		return BundleRepositoryState{}, fmt.Errorf("portal: uploading bundle %s: %w", b.Name(), err)
	}

	if status != http.StatusCreated {
		return BundleRepositoryState{
			Bundle:       b,
			DeploymentID: UnassignedID,
			Latest:       failedInfo(fmt.Sprintf("failed to upload bundle (%d), message: %s", status, responseBody)),
		}, nil
	}

	deploymentID := string(responseBody)
	return BundleRepositoryState{
		Bundle:       b,
		DeploymentID: deploymentID,
		Latest:       pendingInfo("Assigned id: " + deploymentID),
	}, nil
}

// Status probes one deployment's state. Every non-transport problem —
// a non-200 status, an undecodable body, an unknown state name —
// collapses to a local FAILED snapshot with diagnostics: unknown is
// never treated as success. Transport failures are errors.
func (c *Client) Status(ctx context.Context, deploymentID string) (RepositoryStateInfo, error) {
	path := statusPath + "?id=" + url.QueryEscape(deploymentID)
	status, body, err := c.do(ctx, http.MethodGet, path, statusTimeout, nil, "")
	if err != nil {
		return RepositoryStateInfo{}, fmt.Errorf("portal: probing deployment %s: %w", deploymentID, err)
	}

	if status != http.StatusOK {
		return failedInfo(fmt.Sprintf("failed repository probe; status: %d, message: %s", status, body)), nil
	}

	document := string(body)
	stateName, err := jsonlite.ExtractString(document, "deploymentState")
	if err != nil {
		return failedInfo("failed parsing response message: " + document), nil
	}
	state, err := ParseDeploymentState(stateName)
	if err != nil {
		return failedInfo(fmt.Sprintf("unknown deployment state %q in response: %s", stateName, document)), nil
	}

	info := ""
	if state == StateFailed {
		// Failed deployments carry an errors object worth surfacing.
		if errorsValue, err := jsonlite.Extract(document, "errors"); err == nil {
			info = "errors: " + errorsValue.String()
		} else {
			info = document
		}
	}
	return RepositoryStateInfo{State: state, Info: info}, nil
}

// Publish promotes the deployments to Maven Central. Any non-204
// response fails the whole batch — this is the irreversible terminal
// action and partial silence is not acceptable.
func (c *Client) Publish(ctx context.Context, deploymentIDs []string) error {
	for _, id := range deploymentIDs {
		status, body, err := c.do(ctx, http.MethodPost, deploymentPath+"/"+id, shortCallTimeout, nil, "")
		if err != nil {
			return fmt.Errorf("portal: publishing deployment %s: %w", id, err)
		}
		if status != http.StatusNoContent {
			return fmt.Errorf("portal: publishing %s returned %d: %s", id, status, body)
		}
	}
	return nil
}

// Drop deletes the deployments. Any non-204 response fails the batch.
func (c *Client) Drop(ctx context.Context, deploymentIDs []string) error {
	for _, id := range deploymentIDs {
		status, body, err := c.do(ctx, http.MethodDelete, deploymentPath+"/"+id, shortCallTimeout, nil, "")
		if err != nil {
			return fmt.Errorf("portal: dropping deployment %s: %w", id, err)
		}
		if status != http.StatusNoContent {
			return fmt.Errorf("portal: dropping %s returned %d: %s", id, status, body)
		}
	}
	return nil
}

// do executes one call with the tier's timeout and the fixed headers,
// returning the status code and the bounded response body.
func (c *Client) do(ctx context.Context, method, path string, timeout time.Duration, body io.Reader, contentType string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Authorization", c.authorization)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("calling portal", "method", method, "path", path)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	c.logger.Debug("portal response", "method", method, "path", path, "status", response.StatusCode)
	return response.StatusCode, responseBody, nil
}
