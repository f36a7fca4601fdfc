package validate_test

import (
	"strings"
	"testing"

	"github.com/tiesdata/ties"
	"github.com/tiesdata/ties/validate"
)

var (
	sha = strings.Repeat("a", 64)
	md5 = strings.Repeat("b", 32)
)

func doc(t *testing.T, js string) any {
	t.Helper()
	v, err := ties.ReadTree(ties.JSONBytes([]byte(js)))
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func validDoc(extra string) string {
	return `{"version":"0.9","securityTag":"",` + extra + `"objectItems":[{"objectId":"a","sha256Hash":"` + sha +
		`","md5Hash":"` + md5 + `","authorityInformation":{"securityTag":""}}]}`
}

func allErrors(t *testing.T, js string) []*validate.ValidationError {
	t.Helper()
	v, err := validate.Default()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return v.AllErrors(doc(t, js))
}

func expectOne(t *testing.T, errs []*validate.ValidationError, msg, loc string) {
	t.Helper()
	for _, e := range errs {
		if e.Message == msg && e.Location == loc {
			return
		}
	}
	var got []string
	for _, e := range errs {
		got = append(got, e.Message+" @ "+e.Location)
	}
	t.Fatalf("missing %q @ %s in:\n%s", msg, loc, strings.Join(got, "\n"))
}

func TestSchema_ValidDocument(t *testing.T) {
	if errs := allErrors(t, validDoc("")); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSchema_RequiredProperties(t *testing.T) {
	errs := allErrors(t, `{"objectItems":[{"objectId":"a","sha256Hash":"`+sha+`","md5Hash":"`+md5+`","authorityInformation":{"securityTag":""}}]}`)
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	expectOne(t, errs, "required properties [securityTag, version] are missing", "/")

	errs = allErrors(t, `{"version":"0.9","securityTag":"","objectItems":[{"objectId":"a"}]}`)
	expectOne(t, errs, "required properties [authorityInformation, md5Hash, sha256Hash] are missing", "/objectItems[0]")
}

func TestSchema_AdditionalProperties(t *testing.T) {
	errs := allErrors(t, validDoc(`"foo":1,"bar":2,`))
	expectOne(t, errs, "additional properties [bar, foo] are not allowed", "/")
}

func TestSchema_StringConstraints(t *testing.T) {
	errs := allErrors(t, validDoc(`"id":"","system":"`+strings.Repeat("x", 300)+`",`))
	expectOne(t, errs, "property value '' for id property is too short, minimum length 1", "/id")
	if len(errs) != 1 {
		t.Fatalf("system has no maximum length: %v", errs)
	}

	errs = allErrors(t, validDoc(`"id":"`+strings.Repeat("x", 257)+`",`))
	expectOne(t, errs, "property value '"+strings.Repeat("x", 257)+"' for id property is too long, maximum length 256", "/id")
}

func TestSchema_PatternAndMinimum(t *testing.T) {
	bad := strings.Repeat("z", 64)
	js := `{"version":"0.9","securityTag":"","objectItems":[{"objectId":"a","sha256Hash":"` + bad +
		`","md5Hash":"` + md5 + `","size":-1,"authorityInformation":{"securityTag":""}}]}`
	errs := allErrors(t, js)
	expectOne(t, errs, "property value '"+bad+"' for sha256Hash property does not match the pattern '^[a-fA-F0-9]{64}$'", "/objectItems[0]/sha256Hash")
	expectOne(t, errs, "property value -1 for size property is less than the minimum value of 0", "/objectItems[0]/size")
}

func TestSchema_Enum(t *testing.T) {
	js := strings.Replace(validDoc(""), `"version":"0.9"`, `"version":"0.8"`, 1)
	errs := allErrors(t, js)
	expectOne(t, errs, "enum property version with value '0.8' should have one of the allowed values: [0.9]", "/version")
}

func TestSchema_ArraySizes(t *testing.T) {
	errs := allErrors(t, validDoc(`"objectRelationships":[{"linkageMemberIds":["a"],"linkageDirectionality":"DIRECTED"}],`))
	expectOne(t, errs, "array property linkageMemberIds with 1 items is too small, minimum size 2", "/objectRelationships[0]/linkageMemberIds")

	errs = allErrors(t, validDoc(`"objectRelationships":[{"linkageMemberIds":["a","b","c"],"linkageDirectionality":"DIRECTED"}],`))
	expectOne(t, errs, "array property linkageMemberIds with 3 items is too large, maximum size 2", "/objectRelationships[0]/linkageMemberIds")

	errs = allErrors(t, `{"version":"0.9","securityTag":"","objectItems":[]}`)
	expectOne(t, errs, "array property objectItems with 0 items is too small, minimum size 1", "/objectItems")
}

func TestSchema_UniqueItems(t *testing.T) {
	errs := allErrors(t, validDoc(`"otherInformation":[{"key":"k","value":1},{"value":1,"key":"k"}],`))
	expectOne(t, errs, "array property otherInformation has duplicate items at index [0, 1]", "/otherInformation")
}

func TestSchema_ValueTypes(t *testing.T) {
	errs := allErrors(t, validDoc(`"otherInformation":[{"key":"k","value":[1]},{"key":"n","value":null}],`))
	expectOne(t, errs, "property type array for property value is not one of the allowed types: [string, boolean, integer, number]", "/otherInformation[0]/value")
	expectOne(t, errs, "property value with null value should be one of the allowed types: [string, boolean, integer, number]", "/otherInformation[1]/value")

	errs = allErrors(t, validDoc(`"id":5,`))
	expectOne(t, errs, "property type integer for property id is not the allowed type: string", "/id")
}

func TestSchema_AnyOfCauses(t *testing.T) {
	js := `{"version":"0.9","securityTag":"","objectItems":[{"objectId":"a","sha256Hash":"` + sha +
		`","md5Hash":"` + md5 + `","authorityInformation":{"securityTag":""},` +
		`"objectAssertions":{"supplementalDescriptions":[{"assertionId":"x","informationType":"t","securityTag":""}]}}]}`
	errs := allErrors(t, js)
	if len(errs) != 1 {
		t.Fatalf("expected a single anyOf error, got %v", errs)
	}
	e := errs[0]
	if e.Message != "content for array property at index 0 in supplementalDescriptions does not match any of the possible schema definitions" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	loc := "/objectItems[0]/objectAssertions/supplementalDescriptions[0]"
	if e.Location != loc {
		t.Fatalf("unexpected location %q", e.Location)
	}
	expectOne(t, e.Causes, "required properties [dataSize, sha256DataHash] are missing", loc)
	expectOne(t, e.Causes, "required property dataObject is missing", loc)
	if !strings.Contains(e.Error(), "\npossible causes:\n    required") {
		t.Fatalf("unexpected rendering:\n%s", e.Error())
	}
}

func TestSchema_SortedByLocation(t *testing.T) {
	errs := allErrors(t, validDoc(`"id":"","description":"",`))
	if len(errs) != 2 || errs[0].Location != "/description" || errs[1].Location != "/id" {
		t.Fatalf("unexpected order: %v", errs)
	}
}

func TestValidator_Definition(t *testing.T) {
	v, err := validate.New(validate.Annotation)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	errs := v.AllErrors(doc(t, `{"assertionId":"a","annotationType":"Tag","value":"","securityTag":""}`))
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	expectOne(t, errs, "property value '' for value property is too short, minimum length 1", "/value")
	if err := v.Validate(doc(t, `{"assertionId":"a","annotationType":"Tag","value":"v","securityTag":""}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_ValidateJSONMalformed(t *testing.T) {
	v, err := validate.Default()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := v.ValidateJSON([]byte(`{"version":`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidationError_Rendering(t *testing.T) {
	e := &validate.ValidationError{Message: "m", Location: "/a"}
	if e.Error() != "m\nlocation: /a" {
		t.Fatalf("got %q", e.Error())
	}
	outer := &validate.ValidationError{Message: "outer", Location: "/", Causes: []*validate.ValidationError{e}}
	if outer.Error() != "outer\npossible causes:\n    m\n    location: /a" {
		t.Fatalf("got %q", outer.Error())
	}
}

func TestDocument(t *testing.T) {
	rep, err := validate.Document(doc(t, validDoc("")))
	if err != nil || !rep.OK() {
		t.Fatalf("expected clean report: %+v %v", rep, err)
	}
	rep, err = validate.Document(doc(t, `{}`))
	if err != nil || len(rep.Errors) == 0 || rep.Warnings != nil {
		t.Fatalf("expected schema errors only: %+v %v", rep, err)
	}
}

func TestSchemaDocumentShape(t *testing.T) {
	s := validate.Schema()
	if s.SchemaURI == "" || len(s.Definitions) != 9 {
		t.Fatalf("unexpected schema: %+v", s)
	}
	if got := s.Properties["objectItems"].Items.Ref; got != "#/definitions/objectItem-object" {
		t.Fatalf("unexpected ref %q", got)
	}
}
