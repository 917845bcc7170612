package client

import "github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"

// QueueItem tracks a prompt queued on the server. Execution events for
// the prompt are delivered in order on Messages; a "stopped" message is
// always the last one sent.
type QueueItem struct {
	PromptID   string                 `json:"prompt_id"`
	Number     int                    `json:"number"`
	NodeErrors map[string]interface{} `json:"node_errors"`
	Messages   chan PromptMessage     `json:"-"`
	Workflow   *workflow.Graph        `json:"-"`
}

// nodeTitle resolves a node id to a human readable name for progress
// reporting.
func (q *QueueItem) nodeTitle(id int) string {
	if q.Workflow != nil {
		if node := q.Workflow.GetNodeByID(id); node != nil {
			if node.Title != "" {
				return node.Title
			}
			return node.Class
		}
	}
	return ""
}
