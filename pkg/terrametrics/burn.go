package terrametrics

import (
	"math"
)

// Percent mortality regression on RdNBR.
const (
	mortalitySlope     = 1135360
	mortalityIntercept = 119487011
	mortalityGain      = 0.00003938
	mortalityOffset    = 0.22845617

	// RefugiaMaxMortality is the highest mortality still counted as refugia.
	RefugiaMaxMortality = 0.1
)

// NBR returns the normalized burn ratio (nir-swir)/(nir+swir) scaled by 1000
// in a band named "nbr".
func NBR(img *Image, nirBand, swirBand string) (*Image, error) {
	nir, err := img.Select(nirBand)
	if err != nil {
		return nil, err
	}
	swir, err := img.Select(swirBand)
	if err != nil {
		return nil, err
	}
	num, err := nir.Subtract(swir)
	if err != nil {
		return nil, err
	}
	den, err := nir.Add(swir)
	if err != nil {
		return nil, err
	}
	ratio, err := num.Divide(den)
	if err != nil {
		return nil, err
	}
	return ratio.Map(func(v float64) float64 { return v * 1000 }).Rename("nbr")
}

// DNBR is pre-fire NBR minus post-fire NBR.
func DNBR(preNBR, postNBR *Image) (*Image, error) {
	d, err := preNBR.Subtract(postNBR)
	if err != nil {
		return nil, err
	}
	return d.Rename("dnbr")
}

// RdNBR relativizes dNBR by sqrt(|preNBR|/1000). A zero pre-fire NBR leaves
// the pixel masked.
func RdNBR(dnbr, preNBR *Image) (*Image, error) {
	den := preNBR.Map(func(v float64) float64 { return math.Sqrt(math.Abs(v) / 1000) })
	r, err := dnbr.Divide(den)
	if err != nil {
		return nil, err
	}
	return r.Rename("rdnbr")
}

// PercentMortality estimates the fraction of basal area killed from RdNBR.
// Pixels where the regression radicand is negative are masked.
func PercentMortality(rdnbr *Image) (*Image, error) {
	return rdnbr.Map(percentMortality).Rename("mortality")
}

func percentMortality(rdnbr float64) float64 {
	return math.Sqrt(rdnbr*mortalitySlope-mortalityIntercept)*mortalityGain - mortalityOffset
}

// Refugia flags pixels with mortality at or below RefugiaMaxMortality.
func Refugia(mortality *Image) (*Image, error) {
	return mortality.Map(func(v float64) float64 { return boolValue(v <= RefugiaMaxMortality) }).Rename("refugia")
}

// BurnSeverityParams names the reflectance bands of the pre and post images.
type BurnSeverityParams struct {
	NIRBand  string
	SWIRBand string
}

func NewBurnSeverityParams() BurnSeverityParams {
	return BurnSeverityParams{NIRBand: "nir", SWIRBand: "swir2"}
}

// BurnSeverityResult holds every intermediate of BurnSeverity.
type BurnSeverityResult struct {
	PreNBR           *Image
	PostNBR          *Image
	DNBR             *Image
	RdNBR            *Image
	PercentMortality *Image
	Refugia          *Image
}

// Stack returns all products as bands of one image.
func (r *BurnSeverityResult) Stack() (*Image, error) {
	pre, err := r.PreNBR.Rename("pre_nbr")
	if err != nil {
		return nil, err
	}
	post, err := r.PostNBR.Rename("post_nbr")
	if err != nil {
		return nil, err
	}
	return pre.AddBands(post, r.DNBR, r.RdNBR, r.PercentMortality, r.Refugia)
}

// BurnSeverity computes NBR for both scenes and the derived severity
// products.
func BurnSeverity(pre, post *Image, p BurnSeverityParams) (*BurnSeverityResult, error) {
	var (
		r   BurnSeverityResult
		err error
	)
	if r.PreNBR, err = NBR(pre, p.NIRBand, p.SWIRBand); err != nil {
		return nil, err
	}
	if r.PostNBR, err = NBR(post, p.NIRBand, p.SWIRBand); err != nil {
		return nil, err
	}
	if r.DNBR, err = DNBR(r.PreNBR, r.PostNBR); err != nil {
		return nil, err
	}
	if r.RdNBR, err = RdNBR(r.DNBR, r.PreNBR); err != nil {
		return nil, err
	}
	if r.PercentMortality, err = PercentMortality(r.RdNBR); err != nil {
		return nil, err
	}
	if r.Refugia, err = Refugia(r.PercentMortality); err != nil {
		return nil, err
	}
	return &r, nil
}
