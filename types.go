package ties

import "github.com/tiesdata/ties/codec"

// UnknownPolicy controls how unknown keys are handled on decode.
type UnknownPolicy int

const (
	UnknownIgnore UnknownPolicy = iota // Skip unknown keys (default).
	UnknownStrict                      // Report every unknown key as unknown_key.
)

// RequiredPolicy controls whether the record identifiers must be present.
type RequiredPolicy int

const (
	RequiredLenient RequiredPolicy = iota // Missing version/id decode as absent (default).
	RequiredStrict                        // Missing or null version/id is missing_required_field.
)

// FloatKind selects the width of decoded fractional otherInformation values.
type FloatKind int

const (
	FloatDouble FloatKind = iota // float64 (default).
	FloatSingle                  // float32.
)

// Severity expresses the severity level for enforcement findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore: last value wins. Warn: report via DecodeOpt.OnWarning. Error: fail.
}

// DecodeOpt bundles decoding options. Options are passed variadically; when
// several are given the last one wins.
type DecodeOpt struct {
	Unknown    UnknownPolicy
	Required   RequiredPolicy
	FloatKind  FloatKind
	Time       codec.TimeCodec // nil means codec.RFC3339()
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	// FailFast stops at the first issue instead of collecting all of them.
	FailFast bool
	// OnWarning receives non-fatal findings such as duplicate keys under Warn.
	OnWarning func(Issue)
}

// EncodeOpt bundles encoding options; the last one passed wins.
type EncodeOpt struct {
	Time       codec.TimeCodec // nil means codec.RFC3339()
	Indent     string          // per-level indent; empty writes compact output
	EscapeHTML bool            // escape <, > and & inside strings
}

func lastDecodeOpt(opts []DecodeOpt) DecodeOpt {
	var o DecodeOpt
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.Time == nil {
		o.Time = codec.RFC3339()
	}
	return o
}

func lastEncodeOpt(opts []EncodeOpt) EncodeOpt {
	var o EncodeOpt
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.Time == nil {
		o.Time = codec.RFC3339()
	}
	return o
}
