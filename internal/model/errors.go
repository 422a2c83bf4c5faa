package model

import "fmt"

// ErrorKind classifies ladder errors. All kinds are user-facing and
// locally recoverable.
type ErrorKind string

const (
	KindMinimumBand       ErrorKind = "minimum_band"
	KindOverlappingRanges ErrorKind = "overlapping_ranges"
	KindInvertedRange     ErrorKind = "inverted_range"
	KindBandNotFound      ErrorKind = "band_not_found"
	KindUnknownField      ErrorKind = "unknown_field"
	KindNoBandForRevenue  ErrorKind = "no_band_for_revenue"
)

// Message returns the text surfaced to the operator for this kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindMinimumBand:
		return "É necessário manter pelo menos uma faixa de faturamento"
	case KindOverlappingRanges:
		return "As faixas de faturamento não podem se sobrepor"
	case KindInvertedRange:
		return "O valor mínimo deve ser menor que o valor máximo em cada faixa"
	case KindBandNotFound:
		return "Faixa de faturamento não encontrada"
	case KindUnknownField:
		return "Campo inválido"
	case KindNoBandForRevenue:
		return "Nenhuma faixa de faturamento cobre o valor informado"
	default:
		return "Erro desconhecido"
	}
}

// IsValidation returns true for kinds produced by the save-time validator.
func (k ErrorKind) IsValidation() bool {
	switch k {
	case KindOverlappingRanges, KindInvertedRange:
		return true
	default:
		return false
	}
}

// LadderError is returned by editor, validator and lookup operations.
// Index is the position of the offending band, -1 when not applicable.
type LadderError struct {
	Kind   ErrorKind
	BandID string
	Index  int
}

func (e *LadderError) Error() string {
	return e.Kind.Message()
}

// Is matches any LadderError of the same kind, so the package sentinels
// work with errors.Is regardless of band details.
func (e *LadderError) Is(target error) bool {
	t, ok := target.(*LadderError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Detail renders the error with its band context, for logs.
func (e *LadderError) Detail() string {
	if e.BandID == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s (band %s at index %d)", e.Kind, e.BandID, e.Index)
}

// NewLadderError builds an error of the given kind for a band.
func NewLadderError(kind ErrorKind, bandID string, index int) *LadderError {
	return &LadderError{Kind: kind, BandID: bandID, Index: index}
}

var (
	ErrMinimumBand       = &LadderError{Kind: KindMinimumBand, Index: -1}
	ErrOverlappingRanges = &LadderError{Kind: KindOverlappingRanges, Index: -1}
	ErrInvertedRange     = &LadderError{Kind: KindInvertedRange, Index: -1}
	ErrBandNotFound      = &LadderError{Kind: KindBandNotFound, Index: -1}
	ErrUnknownField      = &LadderError{Kind: KindUnknownField, Index: -1}
	ErrNoBandForRevenue  = &LadderError{Kind: KindNoBandForRevenue, Index: -1}
)
