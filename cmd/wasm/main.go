//go:build js && wasm

package main

import (
	"fmt"
	"math"
	"syscall/js"

	tm "terrametrics/pkg/terrametrics"
)

var lastDNBR *tm.Image

func main() {
	js.Global().Set("burnSeverity", js.FuncOf(burnSeverity))
	js.Global().Set("climateIndices", js.FuncOf(climateIndices))
	js.Global().Set("renderSeverity", js.FuncOf(renderSeverity))
	select {} // block forever
}

// burnSeverity(width, height, preNIR, preSWIR, postNIR, postSWIR) takes
// reflectance arrays in row-major order. NaN marks missing pixels.
func burnSeverity(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return errorResult("usage: burnSeverity(width, height, preNIR, preSWIR, postNIR, postSWIR)")
	}
	grid := tm.NewGrid(args[0].Int(), args[1].Int(), 0, 0, 1, false)
	p := tm.NewBurnSeverityParams()

	pre, err := stack(grid, []string{p.NIRBand, p.SWIRBand}, args[2], args[3])
	if err != nil {
		return errorResult(err.Error())
	}
	post, err := stack(grid, []string{p.NIRBand, p.SWIRBand}, args[4], args[5])
	if err != nil {
		return errorResult(err.Error())
	}

	res, err := tm.BurnSeverity(pre, post, p)
	if err != nil {
		return errorResult("burn severity error: " + err.Error())
	}
	all, err := res.Stack()
	if err != nil {
		return errorResult(err.Error())
	}
	lastDNBR = res.DNBR

	out, err := bandsResult(all)
	if err != nil {
		return errorResult(err.Error())
	}
	out["refugiaPixels"] = res.Refugia.SelfMask().CountValid()
	return js.ValueOf(out)
}

// climateIndices(width, height, temperature, dewpoint[, u, v]) takes degrees
// C and m/s.
func climateIndices(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errorResult("usage: climateIndices(width, height, temperature, dewpoint[, u, v])")
	}
	grid := tm.NewGrid(args[0].Int(), args[1].Int(), 0, 0, 1, false)

	t, err := band(grid, "temperature", args[2])
	if err != nil {
		return errorResult(err.Error())
	}
	td, err := band(grid, "dewpoint", args[3])
	if err != nil {
		return errorResult(err.Error())
	}
	rh, err := tm.RelativeHumidityImage(t, td)
	if err != nil {
		return errorResult(err.Error())
	}
	vpd, err := tm.VaporPressureDeficitImage(t, td)
	if err != nil {
		return errorResult(err.Error())
	}
	all, err := rh.AddBands(vpd)
	if err != nil {
		return errorResult(err.Error())
	}

	if len(args) >= 6 {
		u, err := band(grid, "u", args[4])
		if err != nil {
			return errorResult(err.Error())
		}
		v, err := band(grid, "v", args[5])
		if err != nil {
			return errorResult(err.Error())
		}
		wind, err := tm.WindVelocityImage(u, v)
		if err != nil {
			return errorResult(err.Error())
		}
		hdw, err := tm.HotDryWindyIndexImage(vpd, wind)
		if err != nil {
			return errorResult(err.Error())
		}
		if all, err = all.AddBands(wind, hdw); err != nil {
			return errorResult(err.Error())
		}
	}

	out, err := bandsResult(all)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(out)
}

func renderSeverity(this js.Value, args []js.Value) interface{} {
	if lastDNBR == nil {
		return js.Null()
	}

	opts := tm.NewRenderOptions()
	opts.Title = "dNBR"
	jpegBytes, err := tm.RenderJPEGBytes(lastDNBR, opts)
	if err != nil {
		return js.Null()
	}

	uint8Array := js.Global().Get("Uint8Array").New(len(jpegBytes))
	js.CopyBytesToJS(uint8Array, jpegBytes)
	return uint8Array
}

func band(grid tm.Grid, name string, arr js.Value) (*tm.Image, error) {
	n := arr.Get("length").Int()
	if n != grid.NumPixels() {
		return nil, fmt.Errorf("%s: got %d values for a %dx%d grid", name, n, grid.Width, grid.Height)
	}
	pixels := make([]float64, n)
	for i := range pixels {
		pixels[i] = arr.Index(i).Float()
	}
	return tm.NewImageFromPixels(grid, name, pixels)
}

func stack(grid tm.Grid, names []string, arrs ...js.Value) (*tm.Image, error) {
	var out *tm.Image
	for i, arr := range arrs {
		img, err := band(grid, names[i], arr)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = img
		} else if out, err = out.AddBands(img); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// bandsResult returns each band as a Float64Array plus its mean and median.
func bandsResult(img *tm.Image) (map[string]interface{}, error) {
	opts := tm.RegionOptions{MaxPixels: float64(img.Grid().NumPixels())}
	mean, err := tm.ReduceRegion(img, tm.ReducerMean, opts)
	if err != nil {
		return nil, err
	}
	median, err := tm.ReduceRegion(img, tm.ReducerMedian, opts)
	if err != nil {
		return nil, err
	}

	bands := map[string]interface{}{}
	stats := map[string]interface{}{}
	for _, name := range img.BandNames() {
		data, err := img.Band(name)
		if err != nil {
			return nil, err
		}
		arr := js.Global().Get("Float64Array").New(len(data))
		for i, v := range data {
			arr.SetIndex(i, v)
		}
		bands[name] = arr

		m, ok := mean.Get(name)
		med, _ := median.Get(name)
		if !ok {
			m, med = math.NaN(), math.NaN()
		}
		stats[name] = map[string]interface{}{"mean": m, "median": med}
	}
	return map[string]interface{}{
		"width":  img.Grid().Width,
		"height": img.Grid().Height,
		"bands":  bands,
		"stats":  stats,
	}, nil
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
