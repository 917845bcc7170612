package lightx2v

import (
	"fmt"
	"math"
)

// Wan 2.1 latent geometry. The VAE compresses time by 4 and space by 8;
// the transformer patchifies latents 1x2x2.
var (
	VAEStride = [3]int{4, 8, 8}
	PatchSize = [3]int{1, 2, 2}
)

// LatentChannels is the channel count of the Wan latent space, used when a
// model's config.json does not override num_channels_latents.
const LatentChannels = 16

// LatentDims computes the latent grid for an i2v run. The source image's
// aspect ratio is preserved while matching the target area, then each axis
// is floored to the VAE stride and patch alignment.
func LatentDims(srcHeight, srcWidth, targetHeight, targetWidth int) (latH, latW int, err error) {
	if srcHeight <= 0 || srcWidth <= 0 {
		return 0, 0, fmt.Errorf("invalid source size %dx%d", srcWidth, srcHeight)
	}
	if targetHeight <= 0 || targetWidth <= 0 {
		return 0, 0, fmt.Errorf("invalid target size %dx%d", targetWidth, targetHeight)
	}

	aspect := float64(srcHeight) / float64(srcWidth)
	maxArea := float64(targetHeight * targetWidth)

	latH = int(math.Sqrt(maxArea*aspect)) / VAEStride[1] / PatchSize[1] * PatchSize[1]
	latW = int(math.Sqrt(maxArea/aspect)) / VAEStride[2] / PatchSize[2] * PatchSize[2]
	if latH == 0 || latW == 0 {
		return 0, 0, fmt.Errorf("target area %v too small for stride alignment", maxArea)
	}
	return latH, latW, nil
}

// PixelDims maps a latent grid back to pixel dimensions.
func PixelDims(latH, latW int) (height, width int) {
	return latH * VAEStride[1], latW * VAEStride[2]
}

// LatentFrames is the temporal extent of the latent volume for a frame
// count: the VAE packs 4 pixel frames per latent frame plus the leading
// frame.
func LatentFrames(numFrames int) int {
	return (numFrames-1)/VAEStride[0] + 1
}

// TargetShape computes the sampler's latent tensor shape
// [channels, frames, height, width]. For i2v the spatial extent comes from
// the image's latent grid; for t2v it comes from the requested resolution.
func TargetShape(task Task, channels, numFrames, latH, latW, targetHeight, targetWidth int) ([4]int, error) {
	if channels <= 0 {
		channels = LatentChannels
	}
	if numFrames < 1 {
		return [4]int{}, fmt.Errorf("num_frames %d < 1", numFrames)
	}
	switch task {
	case TaskImageToVideo:
		if latH <= 0 || latW <= 0 {
			return [4]int{}, fmt.Errorf("i2v requires latent dims, got %dx%d", latH, latW)
		}
		return [4]int{channels, LatentFrames(numFrames), latH, latW}, nil
	case TaskTextToVideo:
		return [4]int{
			LatentChannels,
			LatentFrames(numFrames),
			targetHeight / VAEStride[1],
			targetWidth / VAEStride[2],
		}, nil
	}
	return [4]int{}, fmt.Errorf("unknown task %q", string(task))
}
