package terrametrics

import (
	"fmt"
	"math"

	"terrametrics/internal/util"
)

// Bands added by the cloud and shadow masking steps.
const (
	CloudsBand         = "clouds"
	DarkPixelsBand     = "dark_pixels"
	CloudTransformBand = "cloud_transform"
	ShadowsBand        = "shadows"
	CloudMaskBand      = "cloudmask"

	// PropSolarAzimuth is the image property read when no azimuth is forced.
	PropSolarAzimuth = "solar_azimuth"
)

// CloudMaskParams configures cloud and shadow masking. Distances are meters.
type CloudMaskParams struct {
	ProbabilityBand      string
	ProbabilityThreshold float64
	MaskShadows          bool
	NIRBand              string
	DarkNIRThreshold     float64
	// SolarAzimuth is degrees clockwise from north. When unset, the
	// solar_azimuth property of the image is used.
	SolarAzimuth   util.Optional[float64]
	ShadowDistance float64
	BufferDistance float64
	// Scale is the working pixel size; zero uses the grid's nominal scale.
	Scale float64
}

func NewCloudMaskParams() CloudMaskParams {
	return CloudMaskParams{
		ProbabilityBand:      "probability",
		ProbabilityThreshold: 30,
		MaskShadows:          true,
		NIRBand:              "nir",
		DarkNIRThreshold:     0.15,
		ShadowDistance:       1000,
		BufferDistance:       50,
	}
}

func (p CloudMaskParams) scale(grid Grid) float64 {
	if p.Scale > 0 {
		return p.Scale
	}
	return grid.NominalScale()
}

// AddCloudBands appends a "clouds" band: probability above the threshold.
func AddCloudBands(img *Image, p CloudMaskParams) (*Image, error) {
	prob, err := img.Select(p.ProbabilityBand)
	if err != nil {
		return nil, err
	}
	clouds, err := prob.Threshold(p.ProbabilityThreshold).Rename(CloudsBand)
	if err != nil {
		return nil, err
	}
	return img.AddBands(clouds)
}

// AddShadowBands appends dark NIR pixels, the projected cloud footprint and
// their intersection as "shadows". img must already hold a "clouds" band.
func AddShadowBands(img *Image, p CloudMaskParams) (*Image, error) {
	azimuth, ok := p.SolarAzimuth.Get()
	if !ok {
		if azimuth, ok = img.Float(PropSolarAzimuth); !ok {
			return nil, fmt.Errorf("%w: no solar azimuth given and image has no %s property", ErrInvalidArgument, PropSolarAzimuth)
		}
	}
	nir, err := img.Select(p.NIRBand)
	if err != nil {
		return nil, err
	}
	clouds, err := img.Select(CloudsBand)
	if err != nil {
		return nil, err
	}

	dark, err := nir.Map(func(v float64) float64 { return boolValue(v < p.DarkNIRThreshold) }).Rename(DarkPixelsBand)
	if err != nil {
		return nil, err
	}
	maxDist := max(1, int(math.Round(p.ShadowDistance/p.scale(img.grid))))
	dist, err := DirectionalDistanceTransform(clouds, 90-azimuth, maxDist)
	if err != nil {
		return nil, err
	}
	projected, err := dist.Mask().Rename(CloudTransformBand)
	if err != nil {
		return nil, err
	}
	shadows, err := projected.Multiply(dark)
	if err != nil {
		return nil, err
	}
	if shadows, err = shadows.Rename(ShadowsBand); err != nil {
		return nil, err
	}
	return img.AddBands(dark, projected, shadows)
}

// CloudShadowMask adds the cloud bands, the shadow bands when enabled, and a
// "cloudmask" band: their union closed by a dilation of 2*BufferDistance/scale
// pixels followed by an erosion of 2 pixels.
func CloudShadowMask(img *Image, p CloudMaskParams) (*Image, error) {
	out, err := AddCloudBands(img, p)
	if err != nil {
		return nil, err
	}
	mask, err := out.Select(CloudsBand)
	if err != nil {
		return nil, err
	}
	if p.MaskShadows {
		if out, err = AddShadowBands(out, p); err != nil {
			return nil, err
		}
		shadows, serr := out.Select(ShadowsBand)
		if serr != nil {
			return nil, serr
		}
		if mask, err = mask.Unmask(0).Or(shadows.Unmask(0)); err != nil {
			return nil, err
		}
	}

	buffer := 2 * p.BufferDistance / p.scale(img.grid)
	if buffer > 0 {
		if mask, err = Dilate(mask, CircleKernel(buffer, UnitsPixels, false)); err != nil {
			return nil, err
		}
	}
	if mask, err = Erode(mask, CircleKernel(2, UnitsPixels, false)); err != nil {
		return nil, err
	}
	if mask, err = mask.Rename(CloudMaskBand); err != nil {
		return nil, err
	}
	return out.AddBands(mask)
}

// ApplyCloudShadowMask masks the original bands of img where the selected
// mask band ("cloudmask", "clouds" or "shadows") is set.
func ApplyCloudShadowMask(img *Image, p CloudMaskParams, maskBand string) (*Image, error) {
	name, err := util.MatchArg("maskBand", maskBand, CloudMaskBand, CloudsBand, ShadowsBand)
	if err != nil {
		return nil, err
	}
	if name == ShadowsBand && !p.MaskShadows {
		return nil, fmt.Errorf("%w: maskBand=%q needs shadow masking enabled", ErrInvalidArgument, maskBand)
	}
	withMask, err := CloudShadowMask(img, p)
	if err != nil {
		return nil, err
	}
	mask, err := withMask.Select(name)
	if err != nil {
		return nil, err
	}
	return img.UpdateMask(mask.Unmask(0).Not())
}
