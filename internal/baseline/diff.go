package baseline

import (
	"sort"

	"github.com/seo-intel/seointel/internal/model"
)

// DiffDimensions compares per-dimension scores between the baseline and the
// current run. Records come out in stable dimension order. Dimensions on
// only one side yield new or discontinued records rather than being dropped.
func DiffDimensions(prev, curr map[model.Dimension]int) []model.DeltaRecord {
	prevVals := make(map[string]float64, len(prev))
	for dim, score := range prev {
		prevVals["dimension/"+string(dim)] = float64(score)
	}
	currVals := make(map[string]float64, len(curr))
	for dim, score := range curr {
		currVals["dimension/"+string(dim)] = float64(score)
	}
	return diff(prevVals, currVals)
}

// DiffKeywords compares keyword positions between the baseline and the
// current run. Position scales are inverted (lower is better); the direction
// still reports the numeric change, and the renderer decides how to color it.
func DiffKeywords(prev, curr map[string]float64) []model.DeltaRecord {
	prevVals := make(map[string]float64, len(prev))
	for kw, pos := range prev {
		prevVals["keyword/"+kw] = pos
	}
	currVals := make(map[string]float64, len(curr))
	for kw, pos := range curr {
		currVals["keyword/"+kw] = pos
	}
	return diff(prevVals, currVals)
}

// diff produces one record per entity key found on either side, sorted by
// key. Diffing a snapshot against itself yields only flat records.
func diff(prev, curr map[string]float64) []model.DeltaRecord {
	keys := make(map[string]struct{}, len(prev)+len(curr))
	for k := range prev {
		keys[k] = struct{}{}
	}
	for k := range curr {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	records := make([]model.DeltaRecord, 0, len(sorted))
	for _, key := range sorted {
		p, hasPrev := prev[key]
		c, hasCurr := curr[key]

		rec := model.DeltaRecord{EntityKey: key}
		switch {
		case !hasPrev:
			v := c
			rec.Current = &v
			rec.Direction = model.DirectionNew
		case !hasCurr:
			v := p
			rec.Previous = &v
			rec.Direction = model.DirectionDiscontinued
		default:
			pv, cv := p, c
			rec.Previous = &pv
			rec.Current = &cv
			switch {
			case cv > pv:
				rec.Direction = model.DirectionUp
				rec.Magnitude = cv - pv
			case cv < pv:
				rec.Direction = model.DirectionDown
				rec.Magnitude = pv - cv
			default:
				rec.Direction = model.DirectionFlat
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil
	}
	return records
}
