package frame

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Source exports the current rendered surface as a self-describing image
// payload (a data URI). Satisfied by core.Simulator.
type Source interface {
	CaptureCanvas(ctx context.Context) (string, error)
}

// Sampler turns canvas exports into fixed-shape observations. Capture always
// yields a 96x96x3 frame whatever the native canvas size, using the same
// resize kernel on every call so frames within an episode stay comparable.
type Sampler struct {
	src Source
}

// NewSampler returns a sampler over the given source.
func NewSampler(src Source) *Sampler {
	return &Sampler{src: src}
}

// Capture exports and decodes the current frame. Transport failures pass
// through from the source; malformed payloads fail with ErrDecodeFailure so
// callers can tell a bad frame from a lost simulator.
func (s *Sampler) Capture(ctx context.Context) (core.Observation, error) {
	payload, err := s.src.CaptureCanvas(ctx)
	if err != nil {
		return core.Observation{}, err
	}
	return Decode(payload)
}

// Decode parses a base64 data-URI image payload into an observation of the
// declared shape. A blank frame is never substituted for a bad payload.
func Decode(dataURI string) (core.Observation, error) {
	raw, err := decodeDataURI(dataURI)
	if err != nil {
		return core.Observation{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return core.Observation{}, fmt.Errorf("%w: decode image: %v", core.ErrDecodeFailure, err)
	}
	return rasterize(img), nil
}

func decodeDataURI(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, fmt.Errorf("%w: payload is not a data URI", core.ErrDecodeFailure)
	}
	meta, encoded, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI has no payload separator", core.ErrDecodeFailure)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URI is not base64-encoded", core.ErrDecodeFailure)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 payload: %v", core.ErrDecodeFailure, err)
	}
	return raw, nil
}

// rasterize scales the decoded image to the declared resolution and flattens
// it into a fresh RGB buffer. ApproxBiLinear is deterministic, so identical
// canvases always rasterize to identical observations.
func rasterize(img image.Image) core.Observation {
	dst := image.NewRGBA(image.Rect(0, 0, core.ObsWidth, core.ObsHeight))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	obs := core.NewObservation()
	for y := 0; y < core.ObsHeight; y++ {
		for x := 0; x < core.ObsWidth; x++ {
			p := dst.PixOffset(x, y)
			o := (y*core.ObsWidth + x) * core.ObsChannels
			obs.Pixels[o+0] = dst.Pix[p+0]
			obs.Pixels[o+1] = dst.Pix[p+1]
			obs.Pixels[o+2] = dst.Pix[p+2]
		}
	}
	return obs
}
