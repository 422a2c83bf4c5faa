package ladder

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

const (
	// fallbackMinRevenue is the lowest lower bound a band appended after an
	// unbounded tail may get.
	fallbackMinRevenue = 50001

	// fallbackBandWidth is the width given to an unbounded tail when a new
	// band is appended after it.
	fallbackBandWidth = 20000

	// cycleStep is added to the previous top band's cycle value.
	cycleStep = 100
)

// newBandID generates identifiers for appended bands.
var newBandID = uuid.NewString

// AddBand appends a new unbounded band on top of the ladder and closes the
// previously unbounded band just below it. Cross-band invariants are not
// checked here; Validate runs at save time.
func AddBand(l model.Ladder) model.Ladder {
	out := l.Clone()
	if len(out) == 0 {
		return model.Ladder{{ID: newBandID(), MinRevenue: 0, CycleValue: cycleStep}}
	}

	last := out[len(out)-1]

	var minRevenue float64
	if last.MaxRevenue != nil {
		minRevenue = *last.MaxRevenue + 1
	} else {
		minRevenue = math.Max(fallbackMinRevenue, last.MinRevenue+fallbackBandWidth)
	}

	for i := range out {
		if out[i].MaxRevenue == nil {
			out[i].MaxRevenue = model.Revenue(minRevenue - 1)
		}
	}

	return append(out, model.Band{
		ID:         newBandID(),
		MinRevenue: minRevenue,
		MaxRevenue: nil,
		CycleValue: last.CycleValue + cycleStep,
	})
}

// RemoveBand deletes the band with the given ID. A ladder is never reduced
// below one band. When the removed band was the unbounded one, the new top
// band becomes unbounded.
func RemoveBand(l model.Ladder, id string) (model.Ladder, error) {
	if len(l) <= 1 {
		return l, model.NewLadderError(model.KindMinimumBand, id, l.IndexOf(id))
	}

	idx := l.IndexOf(id)
	if idx < 0 {
		return l, model.NewLadderError(model.KindBandNotFound, id, -1)
	}

	removed := l[idx]
	out := make(model.Ladder, 0, len(l)-1)
	for i, b := range l.Clone() {
		if i != idx {
			out = append(out, b)
		}
	}

	if removed.IsUnbounded() {
		out[len(out)-1].MaxRevenue = nil
	}
	return out, nil
}

// UpdateBandField replaces a single field of one band with the parsed raw
// value. Unparsable numbers become 0; an empty upper bound means unbounded.
// No other band is touched.
func UpdateBandField(l model.Ladder, id string, field model.Field, raw string) (model.Ladder, error) {
	if !field.IsValid() {
		return l, model.NewLadderError(model.KindUnknownField, id, l.IndexOf(id))
	}

	idx := l.IndexOf(id)
	if idx < 0 {
		return l, model.NewLadderError(model.KindBandNotFound, id, -1)
	}

	out := l.Clone()
	switch field {
	case model.FieldMinRevenue:
		out[idx].MinRevenue = parseAmount(raw)
	case model.FieldMaxRevenue:
		out[idx].MaxRevenue = parseBound(raw)
	case model.FieldCycleValue:
		out[idx].CycleValue = parseAmount(raw)
	}
	return out, nil
}

// ParseField maps a field name to its Field.
func ParseField(name string) (model.Field, error) {
	f := model.Field(strings.TrimSpace(name))
	if !f.IsValid() {
		return "", model.NewLadderError(model.KindUnknownField, "", -1)
	}
	return f, nil
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseBound(raw string) *float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return model.Revenue(parseAmount(raw))
}
