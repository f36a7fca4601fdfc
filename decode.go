package ties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/tiesdata/ties/codec"
	"github.com/tiesdata/ties/i18n"
	eng "github.com/tiesdata/ties/internal/engine"
)

// Unmarshal decodes a JSON document into a Record. On failure the record is
// nil and the error is Issues describing every problem found (or the first
// one with FailFast).
func Unmarshal(data []byte, opts ...DecodeOpt) (*Record, error) {
	return Decode(context.Background(), JSONBytes(data), opts...)
}

// UnmarshalYAML decodes a YAML document into a Record with the same rules as
// Unmarshal.
func UnmarshalYAML(data []byte, opts ...DecodeOpt) (*Record, error) {
	return Decode(context.Background(), YAMLBytes(data), opts...)
}

// Decode reads one document from src and binds it to a Record. ctx is
// checked between sequence elements so very large documents can be
// abandoned; in that case ctx.Err() is returned.
func Decode(ctx context.Context, src Source, opts ...DecodeOpt) (*Record, error) {
	o := lastDecodeOpt(opts)
	tree, err := readTree(src, o)
	if err != nil {
		return nil, err
	}
	b := &binder{ctx: ctx, opt: o}
	r := b.record(tree, RootPath())
	if b.ctxErr != nil {
		return nil, b.ctxErr
	}
	if len(b.issues) > 0 {
		return nil, b.issues
	}
	return r, nil
}

// Decoder reads a record from a stream.
type Decoder struct {
	r    io.Reader
	opts []DecodeOpt
}

// NewDecoder returns a Decoder reading JSON from r.
func NewDecoder(r io.Reader, opts ...DecodeOpt) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the whole stream and binds it to a Record.
func (d *Decoder) Decode(ctx context.Context) (*Record, error) {
	return Decode(ctx, JSONReader(d.r), d.opts...)
}

// ReadTree reads one document from src into the generic JSON tree
// (map[string]any, []any, string, gojson.Number, bool, nil), applying the
// duplicate key, depth and size limits of opts.
func ReadTree(src Source, opts ...DecodeOpt) (any, error) {
	return readTree(src, lastDecodeOpt(opts))
}

func readTree(src Source, o DecodeOpt) (any, error) {
	es := engineTokenSource(src)
	eo := eng.EnforceOptions{
		OnDuplicate: toEngineDup(o.Strictness.OnDuplicateKey),
		MaxDepth:    o.MaxDepth,
		MaxBytes:    o.MaxBytes,
		FailFast:    o.FailFast,
	}
	if o.OnWarning != nil {
		eo.IssueSink = func(si eng.SimpleIssue) {
			o.OnWarning(Issue{Path: si.Path, Code: si.Code, Message: si.Message, Offset: si.Offset})
		}
	}
	if eo.Enabled() {
		es = eng.WrapWithEnforcement(es, eo)
	}
	tree, err := eng.DecodeTree(es)
	if err == nil {
		err = eng.ExpectEOF(es)
	}
	if err != nil {
		return nil, Issues{issueFromEngine(err, es.Location())}
	}
	return tree, nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	}
	return eng.DupIgnore
}

func issueFromEngine(err error, offset int64) Issue {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issue{Path: ie.Path, Code: ie.Code, Message: ie.Message, Offset: ie.Offset}
	}
	var se *eng.SyntaxError
	if errors.As(err, &se) && se.Offset >= 0 {
		offset = se.Offset
	}
	return Issue{Path: "/", Code: CodeMalformedInput, Message: err.Error(), Cause: err, Offset: offset}
}

type binder struct {
	ctx    context.Context
	opt    DecodeOpt
	issues Issues
	ctxErr error
}

// stopped reports whether binding should end early.
func (b *binder) stopped() bool {
	if b.ctxErr != nil {
		return true
	}
	if b.opt.FailFast && len(b.issues) > 0 {
		return true
	}
	if b.ctx != nil {
		if err := b.ctx.Err(); err != nil {
			b.ctxErr = err
			return true
		}
	}
	return false
}

func (b *binder) report(it Issue) {
	if b.opt.FailFast && len(b.issues) > 0 {
		return
	}
	if it.Offset == 0 {
		it.Offset = -1
	}
	b.issues = append(b.issues, it)
}

func (b *binder) typeMismatch(p PathRef, want string, got any) {
	g := jsonTypeName(got)
	b.report(p.Issue(CodeUnexpectedType,
		i18n.T(CodeUnexpectedType, map[string]string{"expected": want, "got": g}),
		"expected", want, "got", g))
}

// jsonTypeName names the JSON type of a tree value.
func jsonTypeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case gojson.Number:
		if isIntegerLiteral(string(x)) {
			return "integer"
		}
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

func isIntegerLiteral(s string) bool { return !strings.ContainsAny(s, ".eE") }

// object returns v as an object; null yields ok=false without an issue.
func (b *binder) object(v any, p PathRef) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		b.typeMismatch(p, "object", v)
		return nil, false
	}
	return m, true
}

func (b *binder) unknown(m map[string]any, sh *shape, p PathRef) {
	if b.opt.Unknown != UnknownStrict {
		return
	}
	var extra []string
	for k := range m {
		if !sh.isKnown(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		b.report(p.Field(k).Issue(CodeUnknownKey, i18n.T(CodeUnknownKey, map[string]string{"key": k}), "key", k, "object", sh.name))
	}
}

func missing(p PathRef, key string) Issue {
	return p.Field(key).Issue(CodeMissingRequiredField, i18n.T(CodeMissingRequiredField, map[string]string{"key": key}), "key", key)
}

func (b *binder) str(m map[string]any, key string, p PathRef) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		b.typeMismatch(p.Field(key), "string", v)
		return nil
	}
	return &s
}

func (b *binder) int64(m map[string]any, key string, p PathRef) *int64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(gojson.Number)
	if !ok {
		b.typeMismatch(p.Field(key), "integer", v)
		return nil
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return &i
	}
	// 1e3 or 10.0 still denote integers
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
		b.report(p.Field(key).Issue(CodeUnexpectedType, "expected a 64-bit integer, got "+string(n), "expected", "integer", "got", string(n)))
		return nil
	}
	i := int64(f)
	return &i
}

func (b *binder) time(m map[string]any, key string, p PathRef) *time.Time {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	t, err := b.opt.Time.DecodeTime(v)
	if err != nil {
		it := p.Field(key).Issue(CodeUnexpectedType, "invalid timestamp for codec "+b.opt.Time.Name(), "codec", b.opt.Time.Name())
		if errors.Is(err, codec.ErrTimeType) {
			it.Message = fmt.Sprintf("expected timestamp (%s), got %s", b.opt.Time.Name(), jsonTypeName(v))
		}
		it.Cause = err
		b.report(it)
		return nil
	}
	return &t
}

func (b *binder) stringList(m map[string]any, key string, p PathRef) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		b.typeMismatch(p.Field(key), "array", v)
		return nil
	}
	lp := p.Field(key)
	out := make([]string, 0, len(arr))
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			b.typeMismatch(lp.Index(i), "string", el)
			continue
		}
		out = append(out, s)
	}
	return out
}

// list iterates a sequence of objects; it returns false when the property is
// absent, null or not an array.
func (b *binder) list(m map[string]any, key string, p PathRef, elem func(i int, obj map[string]any, ip PathRef)) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	arr, ok := v.([]any)
	if !ok {
		b.typeMismatch(p.Field(key), "array", v)
		return false
	}
	lp := p.Field(key)
	for i, el := range arr {
		if b.stopped() {
			return true
		}
		ip := lp.Index(i)
		obj, ok := el.(map[string]any)
		if !ok {
			b.typeMismatch(ip, "object", el)
			continue
		}
		elem(i, obj, ip)
	}
	return true
}

func (b *binder) record(v any, p PathRef) *Record {
	m, ok := v.(map[string]any)
	if !ok {
		b.typeMismatch(p, "object", v)
		return nil
	}
	r := &Record{
		Version:      b.str(m, "version", p),
		ID:           b.str(m, "id", p),
		System:       b.str(m, "system", p),
		Organization: b.str(m, "organization", p),
		Time:         b.time(m, "time", p),
		Description:  b.str(m, "description", p),
		Type:         b.str(m, "type", p),
		SecurityTag:  b.str(m, "securityTag", p),
	}
	if b.opt.Required == RequiredStrict {
		for _, k := range []string{"version", "id"} {
			if m[k] == nil {
				b.report(missing(p, k))
			}
		}
	}
	if b.list(m, "objectItems", p, func(i int, obj map[string]any, ip PathRef) {
		r.ObjectItems = append(r.ObjectItems, b.objectItem(obj, ip))
	}) && r.ObjectItems == nil {
		r.ObjectItems = []ObjectItem{}
	}
	if b.list(m, "objectGroups", p, func(i int, obj map[string]any, ip PathRef) {
		r.ObjectGroups = append(r.ObjectGroups, b.objectGroup(obj, ip))
	}) && r.ObjectGroups == nil {
		r.ObjectGroups = []ObjectGroup{}
	}
	if b.list(m, "objectRelationships", p, func(i int, obj map[string]any, ip PathRef) {
		r.ObjectRelationships = append(r.ObjectRelationships, b.objectRelationship(obj, ip))
	}) && r.ObjectRelationships == nil {
		r.ObjectRelationships = []ObjectRelationship{}
	}
	r.OtherInformation = b.otherInformation(m, p)
	b.unknown(m, recordShape, p)
	return r
}

func (b *binder) otherInformation(m map[string]any, p PathRef) []OtherInformation {
	var out []OtherInformation
	if b.list(m, "otherInformation", p, func(i int, obj map[string]any, ip PathRef) {
		oi := OtherInformation{}
		if k := b.str(obj, "key", ip); k != nil {
			oi.Key = *k
		} else if obj["key"] == nil {
			b.report(missing(ip, "key"))
		}
		oi.Value = b.value(obj, "value", ip)
		b.unknown(obj, otherInformationShape, ip)
		out = append(out, oi)
	}) && out == nil {
		out = []OtherInformation{}
	}
	return out
}

// value classifies a JSON scalar: integer literals that fit in 32 bits are
// ints, every other number is a double (or a float with FloatSingle).
func (b *binder) value(m map[string]any, key string, p PathRef) Value {
	v, ok := m[key]
	if !ok || v == nil {
		return Value{}
	}
	switch x := v.(type) {
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case gojson.Number:
		s := string(x)
		if isIntegerLiteral(s) {
			if i, err := strconv.ParseInt(s, 10, 32); err == nil {
				return IntValue(int32(i))
			}
		}
		if b.opt.FloatKind == FloatSingle {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				b.report(p.Field(key).Issue(CodeUnexpectedType, "number out of float range: "+s, "got", s))
				return Value{}
			}
			return FloatValue(float32(f))
		}
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			b.report(p.Field(key).Issue(CodeUnexpectedType, "number out of double range: "+s, "got", s))
			return Value{}
		}
		return DoubleValue(d)
	}
	b.typeMismatch(p.Field(key), "string, boolean or number", v)
	return Value{}
}

func (b *binder) objectItem(m map[string]any, p PathRef) ObjectItem {
	it := ObjectItem{
		ObjectID:     b.str(m, "objectId", p),
		SHA256Hash:   b.str(m, "sha256Hash", p),
		MD5Hash:      b.str(m, "md5Hash", p),
		Size:         b.int64(m, "size", p),
		MimeType:     b.str(m, "mimeType", p),
		RelativeURI:  b.str(m, "relativeUri", p),
		OriginalPath: b.str(m, "originalPath", p),
	}
	ap := p.Field("authorityInformation")
	if obj, ok := b.object(m["authorityInformation"], ap); ok {
		it.AuthorityInformation = b.authorityInformation(obj, ap)
	}
	asp := p.Field("objectAssertions")
	if obj, ok := b.object(m["objectAssertions"], asp); ok {
		it.ObjectAssertions = b.assertions(obj, asp)
	}
	it.OtherInformation = b.otherInformation(m, p)
	b.unknown(m, objectItemShape, p)
	return it
}

func (b *binder) authorityInformation(m map[string]any, p PathRef) *AuthorityInformation {
	a := &AuthorityInformation{
		CollectionID:             b.str(m, "collectionId", p),
		CollectionIDLabel:        b.str(m, "collectionIdLabel", p),
		CollectionIDAlias:        b.str(m, "collectionIdAlias", p),
		CollectionDescription:    b.str(m, "collectionDescription", p),
		SubCollectionID:          b.str(m, "subCollectionId", p),
		SubCollectionIDLabel:     b.str(m, "subCollectionIdLabel", p),
		SubCollectionIDAlias:     b.str(m, "subCollectionIdAlias", p),
		SubCollectionDescription: b.str(m, "subCollectionDescription", p),
		RegistrationDate:         b.time(m, "registrationDate", p),
		ExpirationDate:           b.time(m, "expirationDate", p),
		Owner:                    b.str(m, "owner", p),
		SecurityTag:              b.str(m, "securityTag", p),
	}
	b.unknown(m, authorityInformationShape, p)
	return a
}

func (b *binder) objectGroup(m map[string]any, p PathRef) ObjectGroup {
	g := ObjectGroup{
		GroupID:          b.str(m, "groupId", p),
		GroupType:        b.str(m, "groupType", p),
		GroupDescription: b.str(m, "groupDescription", p),
		GroupMemberIDs:   b.stringList(m, "groupMemberIds", p),
	}
	ap := p.Field("groupAssertions")
	if obj, ok := b.object(m["groupAssertions"], ap); ok {
		g.GroupAssertions = b.assertions(obj, ap)
	}
	g.OtherInformation = b.otherInformation(m, p)
	b.unknown(m, objectGroupShape, p)
	return g
}

func (b *binder) objectRelationship(m map[string]any, p PathRef) ObjectRelationship {
	r := ObjectRelationship{
		LinkageMemberIDs:      b.stringList(m, "linkageMemberIds", p),
		LinkageDirectionality: b.str(m, "linkageDirectionality", p),
		LinkageType:           b.str(m, "linkageType", p),
		LinkageAssertionID:    b.str(m, "linkageAssertionId", p),
	}
	r.OtherInformation = b.otherInformation(m, p)
	b.unknown(m, objectRelationshipShape, p)
	return r
}

func (b *binder) assertions(m map[string]any, p PathRef) *Assertions {
	a := &Assertions{}
	if b.list(m, "annotations", p, func(i int, obj map[string]any, ip PathRef) {
		a.Annotations = append(a.Annotations, b.annotation(obj, ip))
	}) && a.Annotations == nil {
		a.Annotations = []Annotation{}
	}
	if b.list(m, "supplementalDescriptions", p, func(i int, obj map[string]any, ip PathRef) {
		if sd := b.supplementalDescription(obj, ip); sd != nil {
			a.SupplementalDescriptions = append(a.SupplementalDescriptions, sd)
		}
	}) && a.SupplementalDescriptions == nil {
		a.SupplementalDescriptions = []SupplementalDescription{}
	}
	b.unknown(m, assertionsShape, p)
	return a
}

func (b *binder) annotation(m map[string]any, p PathRef) Annotation {
	a := Annotation{
		AssertionID:               b.str(m, "assertionId", p),
		AssertionReferenceID:      b.str(m, "assertionReferenceId", p),
		AssertionReferenceIDLabel: b.str(m, "assertionReferenceIdLabel", p),
		System:                    b.str(m, "system", p),
		Creator:                   b.str(m, "creator", p),
		Time:                      b.time(m, "time", p),
		AnnotationType:            b.str(m, "annotationType", p),
		Key:                       b.str(m, "key", p),
		Value:                     b.str(m, "value", p),
		ItemAction:                b.str(m, "itemAction", p),
		ItemActionTime:            b.time(m, "itemActionTime", p),
		SecurityTag:               b.str(m, "securityTag", p),
	}
	b.unknown(m, annotationShape, p)
	return a
}

// supplementalDescription infers the variant from its distinguishing fields:
// any of sha256DataHash, dataSize or dataRelativeUri selects the data file
// variant, dataObject selects the data object variant.
func (b *binder) supplementalDescription(m map[string]any, p PathRef) SupplementalDescription {
	isFile := m["sha256DataHash"] != nil || m["dataSize"] != nil || m["dataRelativeUri"] != nil
	isObject := m["dataObject"] != nil
	switch {
	case isFile && isObject:
		b.report(p.Issue(CodeAmbiguousVariant, i18n.T(CodeAmbiguousVariant, nil), "variants", "dataFile,dataObject"))
		return nil
	case isFile:
		d := &SupplementalDescriptionDataFile{
			SupplementalDescriptionBase: b.supplementalBase(m, p),
			SHA256DataHash:              b.str(m, "sha256DataHash", p),
			DataSize:                    b.int64(m, "dataSize", p),
			DataRelativeURI:             b.str(m, "dataRelativeUri", p),
		}
		b.unknown(m, dataFileShape, p)
		return d
	case isObject:
		d := &SupplementalDescriptionDataObject{SupplementalDescriptionBase: b.supplementalBase(m, p)}
		if obj, ok := b.object(m["dataObject"], p.Field("dataObject")); ok {
			d.DataObject = obj
		}
		b.unknown(m, dataObjectShape, p)
		return d
	}
	it := p.Issue(CodeUnrecognizedVariant, i18n.T(CodeUnrecognizedVariant, nil), "variants", "dataFile,dataObject")
	it.Hint = "expected sha256DataHash, dataSize or dataRelativeUri (data file) or dataObject (data object)"
	b.report(it)
	return nil
}

func (b *binder) supplementalBase(m map[string]any, p PathRef) SupplementalDescriptionBase {
	return SupplementalDescriptionBase{
		AssertionID:               b.str(m, "assertionId", p),
		AssertionReferenceID:      b.str(m, "assertionReferenceId", p),
		AssertionReferenceIDLabel: b.str(m, "assertionReferenceIdLabel", p),
		System:                    b.str(m, "system", p),
		InformationType:           b.str(m, "informationType", p),
		SecurityTag:               b.str(m, "securityTag", p),
	}
}
