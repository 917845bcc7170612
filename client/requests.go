package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

/*
@routes.get("/view")
@routes.get("/system_stats")
@routes.get("/prompt")
@routes.get("/object_info")
@routes.get("/history")

@routes.post("/prompt")
@routes.post("/interrupt")
@routes.post("/history")
@routes.post("/upload/image")
*/

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s%s", c.baseAddress, path), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("http://%s%s", c.baseAddress, path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// GetNodeInfos fetches the server's node catalog from /object_info.
// Only the fields needed for node pack verification are decoded.
func (c *Client) GetNodeInfos(ctx context.Context) (map[string]NodeInfo, error) {
	infos := make(map[string]NodeInfo)
	if err := c.getJSON(ctx, "/object_info", &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *Client) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{}
	if err := c.getJSON(ctx, "/system_stats", stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) GetQueueExecutionInfo(ctx context.Context) (*QueueExecInfo, error) {
	info := &QueueExecInfo{}
	if err := c.getJSON(ctx, "/prompt", info); err != nil {
		return nil, err
	}
	return info, nil
}

// QueuePrompt serializes the graph to API format and submits it. The
// returned QueueItem's Messages channel delivers execution events until
// a "stopped" message arrives.
func (c *Client) QueuePrompt(ctx context.Context, graph *workflow.Graph) (*QueueItem, error) {
	if err := c.CheckConnection(ctx); err != nil {
		return nil, err
	}

	prompt, err := graph.ToPrompt(c.clientID)
	if err != nil {
		return nil, err
	}

	// hold the lock so websocket messages for the new prompt cannot
	// arrive before the item is registered
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := c.postJSON(ctx, "/prompt", prompt)
	if err != nil {
		return nil, err
	}

	item := &QueueItem{
		Workflow: graph,
		Messages: make(chan PromptMessage, 16),
	}
	if err := json.Unmarshal(body, item); err != nil || item.PromptID == "" {
		perror := &PromptErrorMessage{}
		if perr := json.Unmarshal(body, perror); perr == nil && perror.Error.Message != "" {
			return nil, errors.Errorf("queueing prompt: %s", perror.Error.Message)
		}
		return nil, errors.Errorf("queueing prompt: unexpected response %s", string(body))
	}

	c.queuedItems[item.PromptID] = item
	return item, nil
}

// Interrupt stops the currently executing prompt on the server.
func (c *Client) Interrupt(ctx context.Context) error {
	_, err := c.postJSON(ctx, "/interrupt", struct{}{})
	return err
}

// EraseHistory clears the server's entire prompt history.
func (c *Client) EraseHistory(ctx context.Context) error {
	_, err := c.postJSON(ctx, "/history", map[string]string{"clear": "clear"})
	return err
}

// EraseHistoryItem removes a single prompt from the server history.
func (c *Client) EraseHistoryItem(ctx context.Context, promptID string) error {
	_, err := c.postJSON(ctx, "/history", map[string][]string{"delete": {promptID}})
	return err
}

// GetHistoryOutputs returns the data outputs recorded in the server
// history, keyed by prompt id and producing node id.
func (c *Client) GetHistoryOutputs(ctx context.Context) (map[string]PromptHistoryItem, error) {
	type historyOutputs struct {
		Images *[]DataOutput `json:"images"`
	}
	type historyEntry struct {
		Prompt  []json.RawMessage         `json:"prompt"`
		Outputs map[string]historyOutputs `json:"outputs"`
	}

	history := make(map[string]historyEntry)
	if err := c.getJSON(ctx, "/history", &history); err != nil {
		return nil, err
	}

	items := make(map[string]PromptHistoryItem, len(history))
	for promptID, entry := range history {
		item := PromptHistoryItem{
			PromptID: promptID,
			Outputs:  make(map[int][]DataOutput),
		}
		if len(entry.Prompt) > 0 {
			var index int
			if err := json.Unmarshal(entry.Prompt[0], &index); err == nil {
				item.Index = index
			}
		}
		for nodeID, outputs := range entry.Outputs {
			id, err := strconv.Atoi(nodeID)
			if err != nil || outputs.Images == nil {
				continue
			}
			item.Outputs[id] = *outputs.Images
		}
		items[promptID] = item
	}
	return items, nil
}

// GetHistoryByIndex returns history items sorted by execution order.
func (c *Client) GetHistoryByIndex(ctx context.Context) ([]PromptHistoryItem, error) {
	byID, err := c.GetHistoryOutputs(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]PromptHistoryItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index < items[j].Index
	})
	return items, nil
}

// GetOutput downloads a generated file from the server's /view route.
func (c *Client) GetOutput(ctx context.Context, output DataOutput) ([]byte, error) {
	params := url.Values{}
	params.Add("filename", output.Filename)
	params.Add("subfolder", output.Subfolder)
	params.Add("type", output.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/view?%s", c.baseAddress, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("downloading %s: status %d", output.Filename, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
