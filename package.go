// Lightx2vwrapper is a Go toolkit for driving the LightX2V video generation
// node pack on a ComfyUI server. It carries a typed catalog of the pack's
// nodes, builds runnable text-to-video and image-to-video workflows from
// that catalog, queues them against a ComfyUI backend, and models the pack's
// dependency manifest so an installation can be sanity checked before a
// single frame is rendered.
package lightx2vwrapper
