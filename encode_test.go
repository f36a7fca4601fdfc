package ties_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tiesdata/ties"
	"github.com/tiesdata/ties/codec"
)

func TestMarshal_FieldOrderIgnoresPopulationOrder(t *testing.T) {
	r := &ties.Record{}
	r.SecurityTag = ties.String("UNCLASSIFIED")
	r.ID = ties.String("r1")
	r.Version = ties.String("0.9")
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"version":"0.9","id":"r1","securityTag":"UNCLASSIFIED"}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestMarshal_EmptyVsAbsentSequences(t *testing.T) {
	r := &ties.Record{Version: ties.String("0.9"), ObjectItems: []ties.ObjectItem{}}
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"version":"0.9","objectItems":[]}` {
		t.Fatalf("unexpected output: %s", b)
	}
	if strings.Contains(string(b), "null") || strings.Contains(string(b), "objectGroups") {
		t.Fatalf("absent fields must be omitted: %s", b)
	}
}

func TestMarshal_ValueForms(t *testing.T) {
	cases := []struct {
		v    ties.Value
		want string
	}{
		{ties.StringValue("x"), `{"key":"k","value":"x"}`},
		{ties.IntValue(3), `{"key":"k","value":3}`},
		{ties.DoubleValue(3), `{"key":"k","value":3.0}`},
		{ties.FloatValue(0.1), `{"key":"k","value":0.1}`},
		{ties.DoubleValue(-2.5), `{"key":"k","value":-2.5}`},
		{ties.DoubleValue(1e21), `{"key":"k","value":1e+21}`},
		{ties.DoubleValue(1e-7), `{"key":"k","value":1e-7}`},
		{ties.BoolValue(false), `{"key":"k","value":false}`},
		{ties.Value{}, `{"key":"k"}`},
	}
	for _, tc := range cases {
		r := &ties.Record{OtherInformation: []ties.OtherInformation{{Key: "k", Value: tc.v}}}
		b, err := ties.Marshal(r)
		if err != nil {
			t.Fatalf("%v: %v", tc.v, err)
		}
		want := `{"otherInformation":[` + tc.want + `]}`
		if string(b) != want {
			t.Fatalf("%v: got %s want %s", tc.v, b, want)
		}
	}
}

func TestMarshal_NonFiniteIsUnexpectedType(t *testing.T) {
	r := &ties.Record{OtherInformation: []ties.OtherInformation{
		{Key: "a", Value: ties.DoubleValue(math.NaN())},
		{Key: "b", Value: ties.DoubleValue(math.Inf(1))},
	}}
	_, err := ties.Marshal(r)
	if !errors.Is(err, ties.ErrUnexpectedType) {
		t.Fatalf("expected ErrUnexpectedType, got %v", err)
	}
	iss, _ := ties.AsIssues(err)
	if len(iss) != 2 || iss[0].Path != "/otherInformation/0/value" || iss[1].Path != "/otherInformation/1/value" {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestMarshal_SupplementalDescriptionFlattensBaseFirst(t *testing.T) {
	r := &ties.Record{ObjectItems: []ties.ObjectItem{{
		ObjectID: ties.String("o1"),
		ObjectAssertions: &ties.Assertions{SupplementalDescriptions: []ties.SupplementalDescription{
			&ties.SupplementalDescriptionDataFile{
				DataSize:       ties.Int64(42),
				SHA256DataHash: ties.String("abc"),
				SupplementalDescriptionBase: ties.SupplementalDescriptionBase{
					SecurityTag:     ties.String("T"),
					AssertionID:     ties.String("s1"),
					InformationType: ties.String("triage"),
				},
			},
			&ties.SupplementalDescriptionDataObject{
				SupplementalDescriptionBase: ties.SupplementalDescriptionBase{AssertionID: ties.String("s2")},
				DataObject:                  map[string]any{"z": true, "a": "x"},
			},
		}},
	}}}
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"objectItems":[{"objectId":"o1","objectAssertions":{"supplementalDescriptions":[` +
		`{"assertionId":"s1","informationType":"triage","securityTag":"T","sha256DataHash":"abc","dataSize":42},` +
		`{"assertionId":"s2","dataObject":{"a":"x","z":true}}]}}]}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestMarshal_VariantWithoutDistinguishingFields(t *testing.T) {
	for _, sd := range []ties.SupplementalDescription{
		&ties.SupplementalDescriptionDataFile{SupplementalDescriptionBase: ties.SupplementalDescriptionBase{AssertionID: ties.String("a")}},
		&ties.SupplementalDescriptionDataObject{SupplementalDescriptionBase: ties.SupplementalDescriptionBase{AssertionID: ties.String("a")}},
	} {
		r := &ties.Record{ObjectItems: []ties.ObjectItem{{
			ObjectAssertions: &ties.Assertions{SupplementalDescriptions: []ties.SupplementalDescription{sd}},
		}}}
		_, err := ties.Marshal(r)
		iss, ok := ties.AsIssues(err)
		if !ok || iss[0].Code != ties.CodeUnrecognizedVariant || iss[0].Path != "/objectItems/0/objectAssertions/supplementalDescriptions/0" {
			t.Fatalf("%T: expected unrecognized_variant, got %v", sd, err)
		}
		if !errors.Is(err, ties.ErrUnrecognizedVariant) {
			t.Fatalf("%T: expected ErrUnrecognizedVariant", sd)
		}
	}

	// an empty data object is still a data object
	r := &ties.Record{ObjectItems: []ties.ObjectItem{{
		ObjectAssertions: &ties.Assertions{SupplementalDescriptions: []ties.SupplementalDescription{
			&ties.SupplementalDescriptionDataObject{DataObject: map[string]any{}},
		}},
	}}}
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := ties.Unmarshal(b); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

func TestMarshal_NilVariantIsUnexpectedType(t *testing.T) {
	r := &ties.Record{ObjectGroups: []ties.ObjectGroup{{
		GroupAssertions: &ties.Assertions{SupplementalDescriptions: []ties.SupplementalDescription{nil}},
	}}}
	_, err := ties.Marshal(r)
	iss, ok := ties.AsIssues(err)
	if !ok || iss[0].Code != ties.CodeUnexpectedType {
		t.Fatalf("expected unexpected_type, got %v", err)
	}
	if iss[0].Path != "/objectGroups/0/groupAssertions/supplementalDescriptions/0" {
		t.Fatalf("unexpected path %s", iss[0].Path)
	}
}

func TestMarshal_TimeOutOfRange(t *testing.T) {
	r := &ties.Record{Time: ties.Time(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC))}
	if _, err := ties.Marshal(r); !errors.Is(err, ties.ErrUnexpectedType) {
		t.Fatalf("expected ErrUnexpectedType, got %v", err)
	}

	for _, c := range []struct {
		codec codec.TimeCodec
		year  int
	}{
		{codec.Layout(time.RFC3339, nil), 12000},
		{codec.EpochMillis(), 300_000_000},
	} {
		r := &ties.Record{Time: ties.Time(time.Date(c.year, 1, 1, 0, 0, 0, 0, time.UTC))}
		_, err := ties.Marshal(r, ties.EncodeOpt{Time: c.codec})
		iss, ok := ties.AsIssues(err)
		if !ok || iss[0].Code != ties.CodeUnexpectedType || iss[0].Path != "/time" {
			t.Fatalf("%s: expected unexpected_type at /time, got %v", c.codec.Name(), err)
		}
	}
}

func TestMarshal_TimeIsUTC(t *testing.T) {
	loc := time.FixedZone("x", 3600)
	r := &ties.Record{Time: ties.Time(time.Date(2019, 3, 4, 6, 6, 7, 500_000_000, loc))}
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"time":"2019-03-04T05:06:07.5Z"}` {
		t.Fatalf("unexpected output: %s", b)
	}
}

func TestMarshal_TimeRoundTripKeepsInstant(t *testing.T) {
	for _, ts := range []time.Time{
		time.Date(2021, 7, 1, 8, 0, 0, 123_000_000, time.FixedZone("EST", -5*3600)),
		time.Now(),
	} {
		b, err := ties.Marshal(&ties.Record{Time: ties.Time(ts)})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r, err := ties.Unmarshal(b)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !r.Time.Equal(ts) || r.Time.Location() != time.UTC {
			t.Fatalf("expected %v in UTC, got %v", ts, *r.Time)
		}
		if *r.Time != ts.UTC().Round(0) {
			t.Fatalf("expected the UTC form of %v, got %v", ts, *r.Time)
		}
	}
}

func TestMarshal_NilRecord(t *testing.T) {
	if _, err := ties.Marshal(nil); !errors.Is(err, ties.ErrUnexpectedType) {
		t.Fatalf("expected ErrUnexpectedType, got %v", err)
	}
}

func TestMarshalIndent(t *testing.T) {
	r := &ties.Record{Version: ties.String("0.9"), ObjectItems: []ties.ObjectItem{}}
	b, err := ties.MarshalIndent(r, "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "{\n  \"version\": \"0.9\",\n  \"objectItems\": []\n}"
	if string(b) != want {
		t.Fatalf("got %q want %q", b, want)
	}
}

func TestMarshal_HTMLEscaping(t *testing.T) {
	r := &ties.Record{Description: ties.String("<b>&")}
	b, err := ties.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"description":"<b>&"}` {
		t.Fatalf("default output must not escape HTML: %s", b)
	}
	b, err = ties.Marshal(r, ties.EncodeOpt{EscapeHTML: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "<") {
		t.Fatalf("expected escaped output: %s", b)
	}
}

func TestEncoder_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	enc := ties.NewEncoder(&buf)
	for _, id := range []string{"a", "b"} {
		if err := enc.Encode(&ties.Record{ID: ties.String(id)}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if buf.String() != "{\"id\":\"a\"}\n{\"id\":\"b\"}\n" {
		t.Fatalf("unexpected stream: %q", buf.String())
	}
}
