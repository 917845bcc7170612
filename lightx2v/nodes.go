// Package lightx2v is a typed catalog of the LightX2V ComfyUI node pack:
// the node classes it registers, their input schemas and defaults, and the
// model/sampling configuration the pack composes before inference. The
// catalog lets workflows be assembled and validated without a round trip to
// the server's object_info endpoint.
package lightx2v

import "fmt"

// NodeClass is the class name a node registers under in ComfyUI's
// NODE_CLASS_MAPPINGS.
type NodeClass string

const (
	NodeModelDir               NodeClass = "Lightx2vWanVideoModelDir"
	NodeT5EncoderLoader        NodeClass = "Lightx2vWanVideoT5EncoderLoader"
	NodeT5Encoder              NodeClass = "Lightx2vWanVideoT5Encoder"
	NodeClipVisionLoader       NodeClass = "Lightx2vWanVideoClipVisionEncoderLoader"
	NodeVaeLoader              NodeClass = "Lightx2vWanVideoVaeLoader"
	NodeTeaCache               NodeClass = "Lightx2vTeaCache"
	NodeEmptyEmbeds            NodeClass = "Lightx2vWanVideoEmptyEmbeds"
	NodeImageEncoder           NodeClass = "Lightx2vWanVideoImageEncoder"
	NodeVaeDecoder             NodeClass = "Lightx2vWanVideoVaeDecoder"
	NodeModelLoader            NodeClass = "Lightx2vWanVideoModelLoader"
	NodeSampler                NodeClass = "Lightx2vWanVideoSampler"
)

// Category is the node menu category the pack registers everything under.
const Category = "LightX2V"

// Data types passed between the pack's nodes.
const (
	TypeString          = "STRING"
	TypeImage           = "IMAGE"
	TypeT5Encoder       = "LIGHT_T5_ENCODER"
	TypeTextEmbeddings  = "LIGHT_TEXT_EMBEDDINGS"
	TypeClipVision      = "LIGHT_CLIP_VISION_ENCODER"
	TypeWanVAE          = "LIGHT_WAN_VAE"
	TypeImageEmbeddings = "LIGHT_IMAGE_EMBEDDINGS"
	TypeTeaCacheArgs    = "LIGHT_TEACACHEARGS"
	TypeWanModel        = "LIGHT_WAN_MODEL"
	TypeLatent          = "LIGHT_LATENT"
)

// InputKind is the widget kind of a node input.
type InputKind string

const (
	KindInt     InputKind = "INT"
	KindFloat   InputKind = "FLOAT"
	KindString  InputKind = "STRING"
	KindCombo   InputKind = "COMBO"
	KindBoolean InputKind = "BOOLEAN"
	// KindLink marks an input fed by another node's output rather than a
	// widget value.
	KindLink InputKind = "LINK"
)

// InputSpec describes one input of a node class: its widget kind, default,
// numeric range and step, combo choices, and whether it is optional.
type InputSpec struct {
	Name      string
	Kind      InputKind
	LinkType  string // for KindLink, the connection data type
	Default   interface{}
	Min       float64
	Max       float64
	Step      float64
	Choices   []string
	Multiline bool
	Optional  bool
	Tooltip   string
}

// NodeObject describes one node class of the pack.
type NodeObject struct {
	Class        NodeClass
	DisplayName  string
	Category     string
	Inputs       []InputSpec
	ReturnTypes  []string
	ReturnNames  []string
	Experimental bool
}

// Input returns the spec of the named input, or nil.
func (n *NodeObject) Input(name string) *InputSpec {
	for i := range n.Inputs {
		if n.Inputs[i].Name == name {
			return &n.Inputs[i]
		}
	}
	return nil
}

// Defaults returns the widget inputs of the class mapped to their default
// values. Link inputs carry no default and are omitted.
func (n *NodeObject) Defaults() map[string]interface{} {
	retv := make(map[string]interface{})
	for _, in := range n.Inputs {
		if in.Kind == KindLink || in.Default == nil {
			continue
		}
		retv[in.Name] = in.Default
	}
	return retv
}

// CheckValue validates a widget value against the input's schema: combo
// choices for COMBO inputs, min/max for numeric inputs, and broad Go type
// checks for the rest.
func (n *NodeObject) CheckValue(name string, value interface{}) error {
	in := n.Input(name)
	if in == nil {
		return fmt.Errorf("%s has no input %q", n.Class, name)
	}
	switch in.Kind {
	case KindLink:
		return fmt.Errorf("%s.%s is a %s connection, not a widget value", n.Class, name, in.LinkType)
	case KindCombo:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s.%s wants one of %v, got %T", n.Class, name, in.Choices, value)
		}
		for _, c := range in.Choices {
			if c == s {
				return nil
			}
		}
		return fmt.Errorf("%s.%s: %q is not one of %v", n.Class, name, s, in.Choices)
	case KindInt, KindFloat:
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("%s.%s wants a number, got %T", n.Class, name, value)
		}
		if in.Max > in.Min && (f < in.Min || f > in.Max) {
			return fmt.Errorf("%s.%s: %v outside [%v, %v]", n.Class, name, f, in.Min, in.Max)
		}
		return nil
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s.%s wants a string, got %T", n.Class, name, value)
		}
		return nil
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s.%s wants a bool, got %T", n.Class, name, value)
		}
		return nil
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Lookup returns the catalog entry for a class, or nil if the class is not
// part of the pack.
func Lookup(class NodeClass) *NodeObject {
	return registry[class]
}

// Classes returns every class the pack registers, in registration order.
func Classes() []NodeClass {
	return append([]NodeClass(nil), classOrder...)
}

// DisplayName returns the human-readable name a class registers in
// NODE_DISPLAY_NAME_MAPPINGS.
func DisplayName(class NodeClass) string {
	if o := registry[class]; o != nil {
		return o.DisplayName
	}
	return string(class)
}
