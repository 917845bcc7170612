package workflow

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

func baseOptions() PipelineOptions {
	return PipelineOptions{
		ModelDir:  "/models/Wan2.1-I2V-14B-480P",
		Prompt:    "a cat surfing",
		ImageName: "input.png",
	}
}

func TestBuildTextToVideo(t *testing.T) {
	g, err := BuildTextToVideo(PipelineOptions{
		ModelDir: "/models/Wan2.1-T2V-14B",
		Prompt:   "a cat surfing",
	})
	if err != nil {
		t.Fatalf("building t2v workflow: %v", err)
	}

	for _, class := range []string{
		string(lightx2v.NodeModelLoader),
		string(lightx2v.NodeT5EncoderLoader),
		string(lightx2v.NodeT5Encoder),
		string(lightx2v.NodeEmptyEmbeds),
		string(lightx2v.NodeVaeLoader),
		string(lightx2v.NodeSampler),
		string(lightx2v.NodeVaeDecoder),
		SaveImageClass,
	} {
		if len(g.GetNodesWithClass(class)) != 1 {
			t.Errorf("expected exactly one %s node", class)
		}
	}
	if len(g.GetNodesWithClass(string(lightx2v.NodeImageEncoder))) != 0 {
		t.Error("t2v workflow must not contain an image encoder")
	}
	if len(g.GetNodesWithClass(string(lightx2v.NodeTeaCache))) != 0 {
		t.Error("teacache node present without teacache options")
	}

	loader := g.GetNodesWithClass(string(lightx2v.NodeModelLoader))[0]
	if loader.Values["model_type"] != "t2v" {
		t.Errorf("expected model_type t2v, got %v", loader.Values["model_type"])
	}

	// defaults applied
	embeds := g.GetNodesWithClass(string(lightx2v.NodeEmptyEmbeds))[0]
	if embeds.Values["width"] != 832 || embeds.Values["height"] != 480 || embeds.Values["num_frames"] != 81 {
		t.Errorf("unexpected geometry defaults: %v", embeds.Values)
	}
}

func TestBuildImageToVideo(t *testing.T) {
	tc := lightx2v.DefaultTeaCache()
	opts := baseOptions()
	opts.TeaCache = &tc
	g, err := BuildImageToVideo(opts)
	if err != nil {
		t.Fatalf("building i2v workflow: %v", err)
	}

	if len(g.GetNodesWithClass(string(lightx2v.NodeImageEncoder))) != 1 {
		t.Fatal("i2v workflow needs an image encoder")
	}
	if len(g.GetNodesWithClass(string(lightx2v.NodeClipVisionLoader))) != 1 {
		t.Fatal("i2v workflow needs a CLIP vision loader")
	}
	if len(g.GetNodesWithClass(string(lightx2v.NodeTeaCache))) != 1 {
		t.Fatal("teacache options must produce a teacache node")
	}

	// the VAE loader feeds both the image encoder and the decoder
	vae := g.GetNodesWithClass(string(lightx2v.NodeVaeLoader))[0]
	encoder := g.GetNodesWithClass(string(lightx2v.NodeImageEncoder))[0]
	decoder := g.GetNodesWithClass(string(lightx2v.NodeVaeDecoder))[0]
	if encoder.Links["vae"].NodeID != vae.ID {
		t.Error("image encoder not fed by the VAE loader")
	}
	if decoder.Links["wan_vae"].NodeID != vae.ID {
		t.Error("decoder not fed by the VAE loader")
	}
}

func TestBuildImageToVideoRequiresImage(t *testing.T) {
	opts := baseOptions()
	opts.ImageName = ""
	if _, err := BuildImageToVideo(opts); err == nil {
		t.Fatal("expected error for missing conditioning image")
	}
}

func TestBuildValidatesGeometry(t *testing.T) {
	opts := baseOptions()
	opts.Width = 830
	if _, err := BuildImageToVideo(opts); err == nil {
		t.Fatal("expected error for width not divisible by 8")
	}

	opts = baseOptions()
	opts.NumFrames = 80
	if _, err := BuildImageToVideo(opts); err == nil {
		t.Fatal("expected error for frame count that is not 4n+1")
	}
}

func TestExecutionOrder(t *testing.T) {
	g, err := BuildImageToVideo(baseOptions())
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	order, err := g.ExecutionOrder()
	if err != nil {
		t.Fatalf("ordering workflow: %v", err)
	}
	if len(order) != g.Size() {
		t.Fatalf("order covers %d of %d nodes", len(order), g.Size())
	}

	position := make(map[int]int)
	for i, id := range order {
		position[id] = i
	}
	for _, id := range order {
		n := g.GetNodeByID(id)
		for input, conn := range n.Links {
			if position[conn.NodeID] >= position[id] {
				t.Errorf("node %d input %s executes before its origin %d", id, input, conn.NodeID)
			}
		}
	}
}

func TestExecutionOrderRejectsCycle(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("A", "a")
	b := g.AddNode("B", "b")
	g.Connect(a.Output(0), b, "in")
	g.Connect(b.Output(0), a, "in")

	if _, err := g.ExecutionOrder(); err == nil {
		t.Fatal("expected cycle to be rejected")
	}
}

func TestValidateRejectsBadWiring(t *testing.T) {
	g, err := BuildTextToVideo(PipelineOptions{ModelDir: "/m", Prompt: "x"})
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	// cross-type connection: text embeddings into the model slot
	sampler := g.GetNodesWithClass(string(lightx2v.NodeSampler))[0]
	text := g.GetNodesWithClass(string(lightx2v.NodeT5Encoder))[0]
	g.Connect(text.Output(0), sampler, "model")
	if err := g.Validate(); err == nil {
		t.Fatal("expected type mismatch to be rejected")
	}
}

func TestValidateRejectsBadValue(t *testing.T) {
	g, err := BuildTextToVideo(PipelineOptions{ModelDir: "/m", Prompt: "x"})
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	loader := g.GetNodesWithClass(string(lightx2v.NodeModelLoader))[0]
	loader.Values["precision"] = "int8"
	if err := g.Validate(); err == nil {
		t.Fatal("expected bad combo value to be rejected")
	}
}

func TestToPrompt(t *testing.T) {
	g, err := BuildTextToVideo(PipelineOptions{
		ModelDir: "/models/Wan2.1-T2V-14B",
		Prompt:   "a cat surfing",
		Seed:     1234,
	})
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	prompt, err := g.ToPrompt("test-client")
	if err != nil {
		t.Fatalf("serializing prompt: %v", err)
	}
	if prompt.ClientID != "test-client" {
		t.Errorf("client id not carried: %q", prompt.ClientID)
	}
	if len(prompt.Nodes) != g.Size() {
		t.Errorf("prompt has %d nodes, graph has %d", len(prompt.Nodes), g.Size())
	}

	data, err := prompt.JSON()
	if err != nil {
		t.Fatalf("marshaling prompt: %v", err)
	}

	// links serialize as ["originID", slot]
	var decoded struct {
		ClientID string `json:"client_id"`
		Nodes    map[string]struct {
			Inputs    map[string]interface{} `json:"inputs"`
			ClassType string                 `json:"class_type"`
		} `json:"prompt"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshaling prompt JSON: %v", err)
	}

	sampler := g.GetNodesWithClass(string(lightx2v.NodeSampler))[0]
	text := g.GetNodesWithClass(string(lightx2v.NodeT5Encoder))[0]
	pn, ok := decoded.Nodes[intKey(sampler.ID)]
	if !ok {
		t.Fatalf("sampler node %d missing from prompt", sampler.ID)
	}
	link, ok := pn.Inputs["text_embeddings"].([]interface{})
	if !ok || len(link) != 2 {
		t.Fatalf("text_embeddings not serialized as a link: %v", pn.Inputs["text_embeddings"])
	}
	if link[0] != intKey(text.ID) || link[1] != float64(0) {
		t.Errorf("unexpected link encoding: %v", link)
	}
	if pn.Inputs["seed"] != float64(1234) {
		t.Errorf("seed not carried: %v", pn.Inputs["seed"])
	}
}

func intKey(id int) string {
	return strconv.Itoa(id)
}
