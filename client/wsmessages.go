package client

import (
	"encoding/json"
	"strconv"
	"strings"
)

// WSStatusMessage is the envelope for every frame the server pushes.
// Data is decoded into a concrete type selected by Type.
type WSStatusMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (sm *WSStatusMessage) UnmarshalJSON(b []byte) error {
	var temp struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	sm.Type = temp.Type

	switch sm.Type {
	case "status":
		sm.Data = &WSMessageDataStatus{}
	case "execution_start":
		sm.Data = &WSMessageDataExecutionStart{}
	case "execution_cached":
		sm.Data = &WSMessageDataExecutionCached{}
	case "executing":
		sm.Data = &WSMessageDataExecuting{}
	case "progress":
		sm.Data = &WSMessageDataProgress{}
	case "executed":
		sm.Data = &WSMessageDataExecuted{}
	case "execution_interrupted":
		sm.Data = &WSMessageExecutionInterrupted{}
	case "execution_error":
		sm.Data = &WSMessageExecutionError{}
	default:
		sm.Data = nil
	}

	if sm.Data != nil && len(temp.Data) > 0 {
		if err := json.Unmarshal(temp.Data, sm.Data); err != nil {
			return err
		}
	}

	return nil
}

type WSMessageDataStatus struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
}

/*
{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 1}}}}
*/

type WSMessageDataExecutionStart struct {
	PromptID string `json:"prompt_id"`
}

type WSMessageDataExecutionCached struct {
	Nodes    []interface{} `json:"nodes"`
	PromptID string        `json:"prompt_id"`
}

// WSMessageDataExecuting reports the node currently running. The server
// sends node ids as strings; a null node means the prompt finished.
type WSMessageDataExecuting struct {
	Node     *int   `json:"node"`
	PromptID string `json:"prompt_id"`
}

func (m *WSMessageDataExecuting) UnmarshalJSON(b []byte) error {
	var temp struct {
		Node     *string `json:"node"`
		PromptID string  `json:"prompt_id"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	m.PromptID = temp.PromptID
	m.Node = nil
	if temp.Node != nil {
		id, err := parseNodeID(*temp.Node)
		if err != nil {
			return err
		}
		m.Node = &id
	}
	return nil
}

/*
{"type": "executing", "data": {"node": "12", "prompt_id": "ed986d60-2a27-4d28-8871-2fdb36582902"}}
*/

type WSMessageDataProgress struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// WSMessageDataExecuted carries a node's outputs. Each output slot maps
// to either file references or raw text.
type WSMessageDataExecuted struct {
	Node     int                      `json:"node"`
	Output   map[string]*[]DataOutput `json:"output"`
	PromptID string                   `json:"prompt_id"`
}

func (m *WSMessageDataExecuted) UnmarshalJSON(b []byte) error {
	var temp struct {
		Node     string                       `json:"node"`
		Output   map[string][]json.RawMessage `json:"output"`
		PromptID string                       `json:"prompt_id"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	m.PromptID = temp.PromptID
	id, err := parseNodeID(temp.Node)
	if err != nil {
		return err
	}
	m.Node = id

	m.Output = make(map[string]*[]DataOutput)
	for slot, entries := range temp.Output {
		outputs := make([]DataOutput, 0, len(entries))
		for _, raw := range entries {
			var entry DataOutput
			if err := json.Unmarshal(raw, &entry); err == nil && entry.Filename != "" {
				outputs = append(outputs, entry)
				continue
			}
			// some nodes emit bare strings instead of file references
			var text string
			if err := json.Unmarshal(raw, &text); err == nil {
				outputs = append(outputs, DataOutput{Type: "text", Text: text})
			}
		}
		m.Output[slot] = &outputs
	}
	return nil
}

/*
{"type": "executed", "data": {"node": "9", "output": {"images": [{"filename": "lightx2v_00001.mp4", "subfolder": "", "type": "output"}]}, "prompt_id": "ed986d60-2a27-4d28-8871-2fdb36582902"}}
*/

type WSMessageExecutionInterrupted struct {
	PromptID string   `json:"prompt_id"`
	Node     string   `json:"node_id"`
	NodeType string   `json:"node_type"`
	Executed []string `json:"executed"`
}

type WSMessageExecutionError struct {
	PromptID         string                 `json:"prompt_id"`
	Node             string                 `json:"node_id"`
	NodeType         string                 `json:"node_type"`
	Executed         []string               `json:"executed"`
	ExceptionMessage string                 `json:"exception_message"`
	ExceptionType    string                 `json:"exception_type"`
	Traceback        []string               `json:"traceback"`
	CurrentInputs    map[string]interface{} `json:"current_inputs"`
	CurrentOutputs   map[int]interface{}    `json:"current_outputs"`
}

// parseNodeID converts a server node id to an int. Compound ids like
// "57:8" from expanded subgraphs resolve to the instance id before the
// colon.
func parseNodeID(s string) (int, error) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return strconv.Atoi(s)
}
