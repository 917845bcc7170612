package workflow

import (
	"encoding/json"
	"strconv"
)

// Prompt is the payload enqueued to a ComfyUI instance via POST /prompt.
type Prompt struct {
	ClientID string             `json:"client_id"`
	Nodes    map[int]PromptNode `json:"prompt"`
}

// PromptNode is one node of the prompt.
type PromptNode struct {
	// Inputs holds widget values, or for linked inputs a two element
	// array: [origin node id as string, origin slot index]
	Inputs    map[string]interface{} `json:"inputs"`
	ClassType string                 `json:"class_type"`
}

// ToPrompt serializes the graph to the prompt wire format, validating it
// first. Linked inputs override widget values of the same name, matching
// how ComfyUI resolves connections.
func (g *Graph) ToPrompt(clientID string) (*Prompt, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	p := &Prompt{
		ClientID: clientID,
		Nodes:    make(map[int]PromptNode),
	}
	for _, id := range g.sortedIDs() {
		n := g.nodes[id]
		pn := PromptNode{
			ClassType: n.Class,
			Inputs:    make(map[string]interface{}),
		}
		for k, v := range n.Values {
			pn.Inputs[k] = v
		}
		for k, conn := range n.Links {
			pn.Inputs[k] = []interface{}{strconv.Itoa(conn.NodeID), conn.Slot}
		}
		p.Nodes[n.ID] = pn
	}
	return p, nil
}

// JSON renders the prompt payload.
func (p *Prompt) JSON() ([]byte, error) {
	return json.Marshal(p)
}
