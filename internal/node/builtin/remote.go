package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/ratelimit"
)

const categoryRemote = "remote"

// ErrRemoteService is returned when a remote POST responds with a
// non-2xx status; the status code and response body are captured in the
// error text (§7).
var ErrRemoteService = errors.New("remote service error")

// RegisterRemote registers the two illustrative remote-service node
// shapes (§4.3.7): HTTPRequestNode (synchronous) and AsyncEchoServiceNode
// (asynchronous, suspending on the Callback Coordinator). Concrete
// domain-specific nodes (LLM/image/video APIs) are out of scope (§1); these
// two exercise the synchronous and asynchronous base shapes without
// inventing a concrete external product integration. Every outbound call
// passes through limiter, keyed by the node's service_name input, the way
// §5 describes per-service rate limiting and bounded concurrency.
func RegisterRemote(reg *node.Registry, client *http.Client, coord *coordinator.Coordinator, webhookURL string, limiter *ratelimit.ServiceLimiter, logger *zap.Logger) error {
	logger = logger.With(zap.String("component", "node"))

	if err := reg.Register(describeHTTPRequest, newHTTPRequest(client, limiter)); err != nil {
		return err
	}
	return reg.Register(describeAsyncEchoService, newAsyncEchoService(client, coord, webhookURL, limiter, logger))
}

// --- HTTPRequestNode (synchronous) ---

func describeHTTPRequest() node.Descriptor {
	return node.Descriptor{
		TypeName: "HTTPRequestNode",
		Category: categoryRemote,
		InputPorts: []node.Port{
			{Name: "url", Type: "string", Required: true},
			{Name: "method", Type: "string", HasDefault: true, Default: "POST"},
			{Name: "body", Type: "object", HasDefault: true, Default: map[string]any{}},
			{Name: "headers", Type: "object", HasDefault: true, Default: map[string]any{}},
			{Name: "service_name", Type: "string", HasDefault: true, Default: "http_request"},
		},
		OutputPorts: []node.Port{
			{Name: "status", Type: "int"},
			{Name: "response", Type: "any"},
		},
	}
}

func newHTTPRequest(client *http.Client, limiter *ratelimit.ServiceLimiter) node.ConstructorFunc {
	return func(id string) (*node.Node, node.Processor) {
		n := node.NewNode("HTTPRequestNode", id)
		for _, p := range describeHTTPRequest().InputPorts {
			n.AddInputPort(p)
		}
		for _, p := range describeHTTPRequest().OutputPorts {
			n.AddOutputPort(p)
		}
		return n, node.ProcessorFunc(func(ctx context.Context, n *node.Node) (node.Map, error) {
			return processHTTPRequest(ctx, client, limiter, n)
		})
	}
}

func processHTTPRequest(ctx context.Context, client *http.Client, limiter *ratelimit.ServiceLimiter, n *node.Node) (node.Map, error) {
	url, _ := n.InputValues["url"].(string)
	method, _ := n.InputValues["method"].(string)
	if method == "" {
		method = http.MethodPost
	}
	body, _ := n.InputValues["body"].(map[string]any)
	headers, _ := n.InputValues["headers"].(map[string]any)
	serviceName, _ := n.InputValues["service_name"].(string)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, fmt.Sprintf("%v", v))
	}

	release, err := limiter.Acquire(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrRemoteService, err)
	}
	resp, err := client.Do(req)
	release()
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrRemoteService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRemoteService, err)
	}

	var decoded any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			decoded = string(respBody)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteService, resp.StatusCode, string(respBody))
	}

	return node.Map{
		"status":   node.Some(int64(resp.StatusCode)),
		"response": node.Some(decoded),
	}, nil
}

// --- AsyncEchoServiceNode (asynchronous) ---

func describeAsyncEchoService() node.Descriptor {
	return node.Descriptor{
		TypeName: "AsyncEchoServiceNode",
		Category: categoryRemote,
		InputPorts: []node.Port{
			{Name: "url", Type: "string", Required: true},
			{Name: "payload", Type: "object", HasDefault: true, Default: map[string]any{}},
			{Name: "timeout_seconds", Type: "int", HasDefault: true, Default: int64(30)},
			{Name: "service_name", Type: "string", HasDefault: true, Default: "echo"},
		},
		OutputPorts: []node.Port{
			{Name: "output_url", Type: "string"},
			{Name: "status", Type: "string"},
		},
	}
}

// asyncImmediateResponse is the shape a remote service's synchronous
// acknowledgement takes: a remote job id plus a pod URL used both to
// construct the cancellation endpoint and (by convention of the services
// this shape models) as a stable base for any follow-up calls.
type asyncImmediateResponse struct {
	ID     string `json:"id"`
	PodURL string `json:"pod_url"`
}

func newAsyncEchoService(client *http.Client, coord *coordinator.Coordinator, webhookURL string, limiter *ratelimit.ServiceLimiter, logger *zap.Logger) node.ConstructorFunc {
	return func(id string) (*node.Node, node.Processor) {
		n := node.NewNode("AsyncEchoServiceNode", id)
		for _, p := range describeAsyncEchoService().InputPorts {
			n.AddInputPort(p)
		}
		for _, p := range describeAsyncEchoService().OutputPorts {
			n.AddOutputPort(p)
		}
		return n, node.ProcessorFunc(func(ctx context.Context, n *node.Node) (node.Map, error) {
			return processAsyncEchoService(ctx, client, coord, webhookURL, limiter, logger, n)
		})
	}
}

func processAsyncEchoService(ctx context.Context, client *http.Client, coord *coordinator.Coordinator, webhookURL string, limiter *ratelimit.ServiceLimiter, logger *zap.Logger, n *node.Node) (node.Map, error) {
	url, _ := n.InputValues["url"].(string)
	payload, _ := n.InputValues["payload"].(map[string]any)
	timeoutSeconds := int(toFloat(n.InputValues["timeout_seconds"]))
	serviceName, _ := n.InputValues["service_name"].(string)

	requestBody := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		requestBody[k] = v
	}
	requestBody["webhook_url"] = webhookURL

	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	release, err := limiter.Acquire(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrRemoteService, err)
	}
	resp, err := client.Do(req)
	release()
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrRemoteService, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRemoteService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteService, resp.StatusCode, string(respBody))
	}

	var immediate asyncImmediateResponse
	if err := json.Unmarshal(respBody, &immediate); err != nil {
		return nil, fmt.Errorf("%w: decoding immediate response: %v", ErrRemoteService, err)
	}
	if immediate.ID == "" {
		return nil, fmt.Errorf("%w: immediate response missing id", ErrRemoteService)
	}

	if err := coord.Register(immediate.ID, func(delivery coordinator.Payload) (any, error) {
		status, _ := delivery["status"].(string)
		outputURL := ""
		if urls, ok := delivery["localUrls"].([]any); ok && len(urls) > 0 {
			outputURL, _ = urls[0].(string)
		}
		return node.Map{
			"output_url": node.Some(outputURL),
			"status":     node.Some(status),
		}, nil
	}); err != nil {
		return nil, err
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	value, err := coord.Wait(ctx, immediate.ID, timeout)
	if err != nil {
		cancelRemote(client, immediate.PodURL, immediate.ID, logger)
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}

	out, ok := value.(node.Map)
	if !ok {
		return nil, fmt.Errorf("%w: async delivery had unexpected shape", ErrRemoteService)
	}
	return out, nil
}

// cancelRemote posts the best-effort remote cancellation (§4.3.7, §5).
// Its failure is logged but never aborts the cancellation cascade.
func cancelRemote(client *http.Client, podURL, remoteID string, logger *zap.Logger) {
	if podURL == "" {
		return
	}
	url := fmt.Sprintf("%s/cancel/%s", podURL, remoteID)
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		logger.Warn("failed to build remote cancel request", zap.Error(err), zap.String("url", url))
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("remote cancel request failed", zap.Error(err), zap.String("url", url))
		return
	}
	resp.Body.Close()
}
