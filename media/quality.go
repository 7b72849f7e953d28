package media

const (
	maxDatagramBytes = 65000

	minQuality     = 45
	maxQuality     = 100
	qualityStep    = 3
	initialQuality = 76

	// Frames below this size leave headroom, so quality may rise.
	raiseQualityBelowBytes = 55000
)

// qualityController picks the JPEG quality for screen sharing. Every
// frame must fit in one datagram, so quality drops while frames come
// out too large and creeps back up while they come out small.
type qualityController struct {
	quality int
}

func newQualityController() *qualityController {
	return &qualityController{quality: initialQuality}
}

// Quality returns the setting for the next frame.
func (q *qualityController) Quality() int {
	return q.quality
}

// Observe feeds back the encoded size of the frame just produced and
// adjusts the quality for the next one. The step never moves the
// quality outside [minQuality, maxQuality].
func (q *qualityController) Observe(frameBytes int) {
	if frameBytes < raiseQualityBelowBytes && q.quality <= maxQuality-qualityStep {
		q.quality += qualityStep
	} else if frameBytes > maxDatagramBytes && q.quality >= minQuality+qualityStep {
		q.quality -= qualityStep
	}
}
