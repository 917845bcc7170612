package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

type StopReason string

const (
	StopReasonFinished    StopReason = "finished"
	StopReasonInterrupted StopReason = "interrupted"
	StopReasonError       StopReason = "error"
)

// Callbacks receive client-wide notifications in addition to the
// per-item message channels.
type Callbacks struct {
	QueueCountChanged func(*Client, int)
	JobStarted        func(*Client, *QueueItem)
	JobStopped        func(*Client, *QueueItem, StopReason)
	JobDataAvailable  func(*Client, *QueueItem, *PromptMessageData)
}

// Client talks to a ComfyUI server that has the LightX2V node pack
// installed. REST calls go over HTTP, execution progress arrives over
// the websocket at /ws.
type Client struct {
	baseAddress    string
	host           string
	port           int
	clientID       string
	httpClient     *http.Client
	webSocket      *WebSocketConnection
	callbacks      *Callbacks
	initialized    bool
	nodeClasses    map[string]NodeInfo
	mu             sync.Mutex
	queuedItems    map[string]*QueueItem
	queueCount     int
	activePromptID string
	connectTimeout int
}

// NodeInfo is the subset of /object_info this client cares about.
type NodeInfo struct {
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	OutputNode  bool   `json:"output_node"`
}

// NewClient creates a client for the given server. The websocket is not
// connected until Init is called.
func NewClient(host string, port int, callbacks *Callbacks) *Client {
	return NewClientWithTimeout(host, port, callbacks, -1)
}

// NewClientWithTimeout creates a client whose websocket connection
// attempt gives up after timeoutSeconds.
func NewClientWithTimeout(host string, port int, callbacks *Callbacks, timeoutSeconds int) *Client {
	return &Client{
		baseAddress:    host + ":" + strconv.Itoa(port),
		host:           host,
		port:           port,
		clientID:       uuid.New().String(),
		httpClient:     &http.Client{},
		callbacks:      callbacks,
		queuedItems:    make(map[string]*QueueItem),
		connectTimeout: timeoutSeconds,
	}
}

// ClientID returns the unique id sent with queued prompts. The server
// echoes it on the websocket so this client only sees its own events.
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) IsInitialized() bool {
	return c.initialized
}

// SetHTTPClient replaces the underlying HTTP client, e.g. to add
// transport-level timeouts or a proxy.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Init connects the websocket and fetches the server's node catalog.
func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}

	classes, err := c.GetNodeInfos(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching object info")
	}
	c.nodeClasses = classes

	c.webSocket = &WebSocketConnection{
		WebSocketURL: "ws://" + c.baseAddress + "/ws?clientId=" + c.clientID,
		Callback:     c,
		MaxRetry:     5,
	}
	if err := c.webSocket.ConnectWithManager(c.connectTimeout); err != nil {
		return errors.Wrap(err, "connecting websocket")
	}

	c.initialized = true
	return nil
}

// CheckConnection initializes the client if it is not already.
func (c *Client) CheckConnection(ctx context.Context) error {
	if !c.initialized {
		return c.Init(ctx)
	}
	return nil
}

// Close shuts down the websocket connection.
func (c *Client) Close() {
	if c.webSocket != nil {
		c.webSocket.Close()
	}
	c.initialized = false
}

// HasNodeClass reports whether the server advertises the given node class.
func (c *Client) HasNodeClass(class string) bool {
	_, ok := c.nodeClasses[class]
	return ok
}

// VerifyNodePack checks that every LightX2V node class is registered on
// the server. It returns the classes that are missing; an empty slice
// means the pack is fully installed.
func (c *Client) VerifyNodePack() []string {
	missing := make([]string, 0)
	for _, class := range lightx2v.Classes() {
		if _, ok := c.nodeClasses[string(class)]; !ok {
			missing = append(missing, string(class))
		}
	}
	return missing
}

// GetQueuedItem returns an item queued by this client that has not
// finished yet, or nil.
func (c *Client) GetQueuedItem(promptID string) *QueueItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queuedItems[promptID]
}

// QueueCount returns the server's last reported queue length.
func (c *Client) QueueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueCount
}

// itemForPrompt resolves the queue item a message belongs to. Progress
// messages carry no prompt id, so an empty id falls back to the prompt
// the server most recently started.
func (c *Client) itemForPrompt(promptID string) *QueueItem {
	if promptID == "" {
		promptID = c.activePromptID
	}
	return c.queuedItems[promptID]
}

func (c *Client) finishItem(qi *QueueItem, reason StopReason, exc *PromptMessageStoppedException) {
	if c.callbacks != nil && c.callbacks.JobStopped != nil {
		c.callbacks.JobStopped(c, qi, reason)
	}
	delete(c.queuedItems, qi.PromptID)
	qi.Messages <- PromptMessage{
		Type: "stopped",
		Message: &PromptMessageStopped{
			QueueItem: qi,
			Exception: exc,
		},
	}
}

// OnMessage parses each websocket frame and routes it to the owning
// queue item's message channel.
func (c *Client) OnMessage(msg string) {
	message := &WSStatusMessage{}
	if err := json.Unmarshal([]byte(msg), message); err != nil {
		slog.Error("deserializing status message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch data := message.Data.(type) {
	case *WSMessageDataStatus:
		c.queueCount = data.Status.ExecInfo.QueueRemaining
		if c.callbacks != nil && c.callbacks.QueueCountChanged != nil {
			c.callbacks.QueueCountChanged(c, c.queueCount)
		}
	case *WSMessageDataExecutionStart:
		c.activePromptID = data.PromptID
		if qi := c.itemForPrompt(data.PromptID); qi != nil {
			if c.callbacks != nil && c.callbacks.JobStarted != nil {
				c.callbacks.JobStarted(c, qi)
			}
			qi.Messages <- PromptMessage{
				Type:    "started",
				Message: &PromptMessageStarted{PromptID: qi.PromptID},
			}
		}
	case *WSMessageDataExecutionCached:
		// cached nodes produce no further events; nothing to forward
	case *WSMessageDataExecuting:
		qi := c.itemForPrompt(data.PromptID)
		if qi == nil {
			return
		}
		if data.Node == nil {
			// a nil node signals the end of the prompt
			c.finishItem(qi, StopReasonFinished, nil)
			return
		}
		qi.Messages <- PromptMessage{
			Type: "executing",
			Message: &PromptMessageExecuting{
				NodeID: *data.Node,
				Title:  qi.nodeTitle(*data.Node),
			},
		}
	case *WSMessageDataProgress:
		if qi := c.itemForPrompt(""); qi != nil {
			qi.Messages <- PromptMessage{
				Type:    "progress",
				Message: &PromptMessageProgress{Value: data.Value, Max: data.Max},
			}
		}
	case *WSMessageDataExecuted:
		qi := c.itemForPrompt(data.PromptID)
		if qi == nil {
			return
		}
		mdata := &PromptMessageData{
			NodeID: data.Node,
			Data:   make(map[string][]DataOutput),
		}
		for k, v := range data.Output {
			mdata.Data[k] = *v
		}
		if c.callbacks != nil && c.callbacks.JobDataAvailable != nil {
			c.callbacks.JobDataAvailable(c, qi, mdata)
		}
		qi.Messages <- PromptMessage{Type: "data", Message: mdata}
	case *WSMessageExecutionInterrupted:
		if qi := c.itemForPrompt(data.PromptID); qi != nil {
			c.finishItem(qi, StopReasonInterrupted, nil)
		}
	case *WSMessageExecutionError:
		qi := c.itemForPrompt(data.PromptID)
		if qi == nil {
			return
		}
		nodeName := data.Node
		if id, err := strconv.Atoi(data.Node); err == nil {
			nodeName = qi.nodeTitle(id)
		}
		c.finishItem(qi, StopReasonError, &PromptMessageStoppedException{
			NodeID:           data.Node,
			NodeType:         data.NodeType,
			NodeName:         nodeName,
			ExceptionMessage: data.ExceptionMessage,
			ExceptionType:    data.ExceptionType,
			Traceback:        data.Traceback,
		})
	default:
		slog.Debug("unhandled websocket message", "type", message.Type)
	}
}
