// Package logseq implements a client for the Logseq plugin HTTP API.
//
// Every call is a POST to {base}/api with a JSON body of the form
// {"method": "logseq.Editor.getPage", "args": [...]}. Depending on the
// endpoint the response is either the result itself or an envelope with a
// "result" field; both shapes are handled transparently.
package logseq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// API is the set of graph operations the rest of the application consumes.
type API interface {
	GetCurrentGraph(ctx context.Context) (*Graph, error)
	GetAllPages(ctx context.Context) ([]Page, error)
	GetPage(ctx context.Context, name string) (*Page, error)
	GetPageBlocks(ctx context.Context, name string) ([]Block, error)
	GetPageLinkedReferences(ctx context.Context, name string) ([]Block, error)
	GetBlock(ctx context.Context, id string) (*Block, error)
	GetBlockProperties(ctx context.Context, id string) (map[string]any, error)
	SearchBlocks(ctx context.Context, query string) ([]Block, error)
	CreatePage(ctx context.Context, name string, properties map[string]any) (*Page, error)
	DeletePage(ctx context.Context, name string) error
	CreateBlock(ctx context.Context, pageName, content string, properties map[string]any) (*Block, error)
	InsertBlock(ctx context.Context, parentID, content string, properties map[string]any, before bool) (*Block, error)
	UpdateBlock(ctx context.Context, id, content string) (*Block, error)
	MoveBlock(ctx context.Context, id, targetID string, asChild bool) error
	RemoveBlock(ctx context.Context, id string) error
}

// Client talks to a locally hosted Logseq instance.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewClient creates a client for the given API base URL. token may be empty
// when the Logseq HTTP server runs without authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

type callRequest struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// call performs one API invocation and decodes the (possibly
// result-wrapped) response into out. A nil out discards the response.
func (c *Client) call(ctx context.Context, method string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(callRequest{Method: method, Args: args})
	if err != nil {
		return fmt.Errorf("logseq: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("logseq: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return apperr.Upstream(err, "logseq: %s", method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream(err, "logseq: read response for %s", method)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.Upstream(nil, "logseq: 401 unauthorized for %s; check the logseq.token setting", method)
	}
	if resp.StatusCode >= 400 {
		return apperr.Upstream(nil, "logseq: %s returned HTTP %d: %s", method, resp.StatusCode, truncate(raw, 200))
	}

	if out == nil {
		return nil
	}
	payload, err := unwrap(raw)
	if err != nil {
		return apperr.Upstream(err, "logseq: decode response for %s", method)
	}
	if string(payload) == "null" {
		return apperr.NotFound("logseq: %s returned no result", method)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperr.Upstream(err, "logseq: decode result for %s", method)
	}
	return nil
}

// unwrap handles the three response shapes the API produces: a bare value,
// an {"error": ...} envelope, and a {"result": ...} envelope. Search
// results come back under a "blocks" key and are unwrapped the same way.
func unwrap(raw []byte) (json.RawMessage, error) {
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Blocks json.RawMessage `json:"blocks"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Not an object (array, string, number): the value is the result.
		return json.RawMessage(raw), nil //nolint:nilerr
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("api error: %s", envelope.Error)
	}
	if envelope.Result != nil {
		return envelope.Result, nil
	}
	if envelope.Blocks != nil {
		return envelope.Blocks, nil
	}
	return json.RawMessage(raw), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// GetCurrentGraph returns the name and filesystem path of the open graph.
func (c *Client) GetCurrentGraph(ctx context.Context) (*Graph, error) {
	var g Graph
	if err := c.call(ctx, "logseq.App.getCurrentGraph", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetAllPages lists every page in the graph.
func (c *Client) GetAllPages(ctx context.Context) ([]Page, error) {
	var pages []Page
	if err := c.call(ctx, "logseq.Editor.getAllPages", nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPage fetches a page by name.
func (c *Client) GetPage(ctx context.Context, name string) (*Page, error) {
	var p Page
	if err := c.call(ctx, "logseq.Editor.getPage", []any{name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPageBlocks returns the block tree of a page in document order.
func (c *Client) GetPageBlocks(ctx context.Context, name string) ([]Block, error) {
	var blocks []Block
	if err := c.call(ctx, "logseq.Editor.getPageBlocksTree", []any{name}, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// GetPageLinkedReferences returns blocks that link to the named page.
func (c *Client) GetPageLinkedReferences(ctx context.Context, name string) ([]Block, error) {
	var blocks []Block
	if err := c.call(ctx, "logseq.Editor.getPageLinkedReferences", []any{name}, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// GetBlock fetches a block by UUID.
func (c *Client) GetBlock(ctx context.Context, id string) (*Block, error) {
	var b Block
	if err := c.call(ctx, "logseq.Editor.getBlock", []any{id}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBlockProperties returns the property map of a block.
func (c *Client) GetBlockProperties(ctx context.Context, id string) (map[string]any, error) {
	var props map[string]any
	if err := c.call(ctx, "logseq.Editor.getBlockProperties", []any{id}, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// SearchBlocks searches block content for the given query.
func (c *Client) SearchBlocks(ctx context.Context, query string) ([]Block, error) {
	var blocks []Block
	if err := c.call(ctx, "logseq.Editor.search", []any{query}, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// CreatePage creates a new page, optionally with page properties.
func (c *Client) CreatePage(ctx context.Context, name string, properties map[string]any) (*Page, error) {
	args := []any{name}
	if len(properties) > 0 {
		args = append(args, properties)
	}
	var p Page
	if err := c.call(ctx, "logseq.Editor.createPage", args, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePage removes a page and all its blocks.
func (c *Client) DeletePage(ctx context.Context, name string) error {
	return c.call(ctx, "logseq.Editor.deletePage", []any{name}, nil)
}

// CreateBlock appends a block to the end of a page.
func (c *Client) CreateBlock(ctx context.Context, pageName, content string, properties map[string]any) (*Block, error) {
	args := []any{pageName, content}
	if len(properties) > 0 {
		args = append(args, map[string]any{"properties": properties})
	}
	var b Block
	if err := c.call(ctx, "logseq.Editor.appendBlockInPage", args, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBlock inserts a child block under parentID, at the start of the
// children when before is true, otherwise at the end.
func (c *Client) InsertBlock(ctx context.Context, parentID, content string, properties map[string]any, before bool) (*Block, error) {
	method := "logseq.Editor.insertBlock"
	if before {
		method = "logseq.Editor.prependBlock"
	}
	args := []any{parentID, content}
	if len(properties) > 0 {
		args = append(args, map[string]any{"properties": properties})
	}
	var b Block
	if err := c.call(ctx, method, args, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBlock replaces the content of an existing block.
func (c *Client) UpdateBlock(ctx context.Context, id, content string) (*Block, error) {
	var b Block
	if err := c.call(ctx, "logseq.Editor.updateBlock", []any{id, content}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// MoveBlock moves a block after targetID, or under it when asChild is true.
func (c *Client) MoveBlock(ctx context.Context, id, targetID string, asChild bool) error {
	params := map[string]any{
		"srcUUID":    id,
		"targetUUID": targetID,
		"isChild":    asChild,
	}
	return c.call(ctx, "logseq.Editor.moveBlock", []any{params}, nil)
}

// RemoveBlock removes a block and its children.
func (c *Client) RemoveBlock(ctx context.Context, id string) error {
	return c.call(ctx, "logseq.Editor.removeBlock", []any{id}, nil)
}

// Flatten walks a block tree depth-first and returns the blocks in
// document order with children stripped.
func Flatten(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		children := b.Children
		b.Children = nil
		out = append(out, b)
		out = append(out, Flatten(children)...)
	}
	return out
}
