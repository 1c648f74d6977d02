package core

import (
	"math"
	"sort"
)

// CenteredBin is one bin of a center-based histogram.
type CenteredBin struct {
	Center float64
	Value  Container
}

// nearest returns the index of the center closest to x; a tie goes to the
// lower center. centers must be sorted and non-empty.
func nearest(centers []float64, x float64) int {
	i := sort.SearchFloat64s(centers, x)
	switch {
	case i == 0:
		return 0
	case i == len(centers):
		return len(centers) - 1
	case x-centers[i-1] <= centers[i]-x:
		return i - 1
	default:
		return i
	}
}

// neighborhood is the span between the midpoints to the adjacent centers,
// open-ended at both extremes.
func neighborhood(centers []float64, i int) (float64, float64) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if i > 0 {
		lo = (centers[i-1] + centers[i]) / 2
	}
	if i < len(centers)-1 {
		hi = (centers[i] + centers[i+1]) / 2
	}
	return lo, hi
}

func encodeCentered(bins []CenteredBin) []interface{} {
	out := make([]interface{}, len(bins))
	for i, bin := range bins {
		out[i] = map[string]interface{}{
			"center": FloatToDocument(bin.Center),
			"data":   bin.Value.Fragment(),
		}
	}
	return out
}

func decodeCentered(obj map[string]interface{}, path string) (string, []CenteredBin, error) {
	contentType, err := readType(obj, "bins:type", path)
	if err != nil {
		return "", nil, err
	}
	binsPath := joinPath(path, "bins")
	items, err := toArray(obj["bins"], binsPath)
	if err != nil {
		return "", nil, err
	}
	bins := make([]CenteredBin, len(items))
	for i, item := range items {
		itemPath := indexPath(binsPath, i)
		pair, err := toObject(item, itemPath, "center", "data")
		if err != nil {
			return "", nil, err
		}
		if bins[i].Center, err = toFloat(pair["center"], joinPath(itemPath, "center")); err != nil {
			return "", nil, err
		}
		if bins[i].Value, err = decodeFragment(contentType, pair["data"], joinPath(itemPath, "data")); err != nil {
			return "", nil, err
		}
	}
	return contentType, bins, nil
}

func decodeRange(obj map[string]interface{}, path string) (float64, float64, error) {
	min, err := toFloat(obj["min"], joinPath(path, "min"))
	if err != nil {
		return 0, 0, err
	}
	max, err := toFloat(obj["max"], joinPath(path, "max"))
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// checkCenters validates sorted, typed bins. Infinite centers are allowed
// only when infinite is set.
func checkCenters(name string, bins []CenteredBin, contentType string, infinite bool) error {
	for i, bin := range bins {
		if math.IsNaN(bin.Center) || (!infinite && math.IsInf(bin.Center, 0)) {
			return invalidConfig(name, "center %v is not finite", bin.Center)
		}
		if i > 0 && !(bins[i-1].Center < bin.Center) {
			return invalidConfig(name, "centers must be strictly increasing at %d", i)
		}
		if !sameType(contentType, bin.Value) {
			return invalidConfig(name, "bin %d holds %s, not %s", i, bin.Value.Name(), contentType)
		}
	}
	return nil
}
