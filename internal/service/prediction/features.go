package prediction

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/orsched/or-dashboard/internal/model"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
)

// Complexity defaults to the mid ordinal when a request omits it.
const defaultComplexity = 2.0

// Features is the fixed-shape input to the duration model.
type Features struct {
	Service    string
	ORSuite    string
	BookedTime float64
	DayOfWeek  float64
	Complexity *float64
}

// Schema describes the exact feature layout a model was fitted with. It is
// captured once at fit time and consumed by both training and inference, so
// the two sides can never disagree about column order or vocabulary.
type Schema struct {
	HasComplexity bool

	// Imputation values, computed from the training set.
	BookedTimeMedian float64
	ComplexityMedian float64

	// Categorical vocabularies, sorted. Categories outside the vocabulary
	// encode as an all-zero block (the "unknown category" policy).
	ServiceVocab []string
	SuiteVocab   []string
}

// Width returns the encoded vector length: numerics first, then the
// one-hot service block, then the one-hot suite block.
func (s *Schema) Width() int {
	n := 2 // booked_time, day_of_week
	if s.HasComplexity {
		n++
	}
	return n + len(s.ServiceVocab) + len(s.SuiteVocab)
}

// Encode projects a feature record onto the schema. Unknown categories are
// ignored, missing optional numerics are imputed; Encode never fails.
func (s *Schema) Encode(f Features) []float64 {
	row := make([]float64, 0, s.Width())
	row = append(row, f.BookedTime, f.DayOfWeek)
	if s.HasComplexity {
		if f.Complexity != nil {
			row = append(row, *f.Complexity)
		} else {
			row = append(row, s.ComplexityMedian)
		}
	}
	row = append(row, oneHot(s.ServiceVocab, f.Service)...)
	row = append(row, oneHot(s.SuiteVocab, f.ORSuite)...)
	return row
}

func oneHot(vocab []string, value string) []float64 {
	block := make([]float64, len(vocab))
	for i, v := range vocab {
		if v == value {
			block[i] = 1
			break
		}
	}
	return block
}

// buildSchema derives the schema from the eligible training rows. The
// complexity column participates only when at least one row carries a value,
// matching how the source data gained the column after the fact.
func buildSchema(cases []*model.SurgeryCase) Schema {
	services := map[string]struct{}{}
	suites := map[string]struct{}{}
	var booked, complexities []float64

	for _, c := range cases {
		services[c.Service] = struct{}{}
		suites[c.ORSuite] = struct{}{}
		booked = append(booked, c.BookedTime)
		if c.Complexity != nil {
			complexities = append(complexities, float64(*c.Complexity))
		}
	}

	s := Schema{
		HasComplexity:    len(complexities) > 0,
		BookedTimeMedian: median(booked),
		ServiceVocab:     sortedKeys(services),
		SuiteVocab:       sortedKeys(suites),
	}
	if s.HasComplexity {
		s.ComplexityMedian = median(complexities)
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// DayOfWeek encodes a calendar date with Monday = 0, consistently between
// training and inference.
func DayOfWeek(t time.Time) float64 {
	return float64((int(t.Weekday()) + 6) % 7)
}

// featuresFromCase builds the training-time feature record for one row.
func featuresFromCase(c *model.SurgeryCase) Features {
	f := Features{
		Service:    c.Service,
		ORSuite:    c.ORSuite,
		BookedTime: c.BookedTime,
		DayOfWeek:  DayOfWeek(c.Date),
	}
	if c.Complexity != nil {
		v := float64(*c.Complexity)
		f.Complexity = &v
	}
	return f
}

// featuresFromRequest builds the inference-time feature record. BookedTime
// is coerced to a float; anything non-numeric is a malformed-input error.
func featuresFromRequest(req *model.PredictionRequest) (Features, error) {
	booked, err := coerceFloat(req.BookedTime)
	if err != nil {
		return Features{}, apperrors.NewMalformedInput("booked_time must be numeric", err)
	}

	f := Features{
		Service:    req.Service,
		ORSuite:    req.ORSuite,
		BookedTime: booked,
		DayOfWeek:  DayOfWeek(req.Date),
	}
	if req.Complexity != nil {
		v := float64(*req.Complexity)
		f.Complexity = &v
	} else {
		v := defaultComplexity
		f.Complexity = &v
	}
	return f, nil
}

func coerceFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value of type %T", v)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
