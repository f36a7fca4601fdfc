// Package ties binds TIES (target/entity identification exchange) records to
// and from JSON:
//
// - Plain structs for the record graph, pointer fields for optional scalars,
// nil vs empty slices for absent vs empty sequences
// - Canonical encoding: fixed property order per type, absent fields omitted,
// floats that keep their fraction
// - A stable error model via Issues (JSON Pointer, code, message) and
// sentinel errors for errors.Is
// - Token sources for JSON (goccy/go-json) and YAML with duplicate-key, depth
// and size enforcement
//
// Design policy:
// - Keep only public APIs in the root package; put the token engine under internal/.
// - Schema validation, semantic checks and version conversion live in
// validate/ and convert/ and are never run by the codec.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	rec, err := ties.Unmarshal(data)
//	rec, err := ties.Decode(ctx, ties.JSONReader(f), ties.DecodeOpt{Required: ties.RequiredStrict})
//
//	out, err := ties.MarshalIndent(rec, "  ")
//	canon, err := ties.Format(data)
package ties
