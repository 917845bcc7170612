package preset

import "github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"

func teaCache(coefficients lightx2v.Coefficients) *lightx2v.TeaCacheSettings {
	tc := lightx2v.DefaultTeaCache()
	tc.Coefficients = coefficients
	return &tc
}

// builtins match the defaults the node pack ships for the Wan 2.1 models.
var builtins = map[string]Preset{
	"t2v-480p": {
		Name:        "t2v-480p",
		Description: "Text to video, 480p",
		Task:        lightx2v.TaskTextToVideo,
		Width:       832,
		Height:      480,
		NumFrames:   81,
		Steps:       20,
		Shift:       5.0,
		CFGScale:    5.0,
	},
	"t2v-720p": {
		Name:        "t2v-720p",
		Description: "Text to video, 720p",
		Task:        lightx2v.TaskTextToVideo,
		Width:       1280,
		Height:      720,
		NumFrames:   81,
		Steps:       20,
		Shift:       5.0,
		CFGScale:    5.0,
	},
	"i2v-480p": {
		Name:        "i2v-480p",
		Description: "Image to video, 480p, TeaCache enabled",
		Task:        lightx2v.TaskImageToVideo,
		Width:       832,
		Height:      480,
		NumFrames:   81,
		Steps:       20,
		Shift:       5.0,
		CFGScale:    5.0,
		TeaCache:    teaCache(lightx2v.CoefficientsI2V480p),
	},
	"i2v-720p": {
		Name:        "i2v-720p",
		Description: "Image to video, 720p, TeaCache enabled",
		Task:        lightx2v.TaskImageToVideo,
		Width:       1280,
		Height:      720,
		NumFrames:   81,
		Steps:       20,
		Shift:       5.0,
		CFGScale:    5.0,
		TeaCache:    teaCache(lightx2v.CoefficientsI2V720p),
	},
}
