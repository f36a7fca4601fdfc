package ties

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/tiesdata/ties/i18n"
	yamlsrc "github.com/tiesdata/ties/source/yaml"
)

// Marshal encodes r as canonical JSON: fixed property order per type, absent
// fields omitted, empty sequences kept as [].
func Marshal(r *Record, opts ...EncodeOpt) ([]byte, error) {
	o := lastEncodeOpt(opts)
	e := &encodeState{opt: o}
	if r == nil {
		return nil, Issues{RootPath().Issue(CodeUnexpectedType, "cannot encode a nil record")}
	}
	e.record(r, RootPath())
	if len(e.issues) > 0 {
		return nil, e.issues
	}
	if o.Indent == "" {
		return e.buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := gojson.Indent(&out, e.buf.Bytes(), "", o.Indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalIndent is Marshal with the given per-level indent.
func MarshalIndent(r *Record, indent string) ([]byte, error) {
	return Marshal(r, EncodeOpt{Indent: indent})
}

// Encoder writes records to a stream, one JSON document per line.
type Encoder struct {
	w   io.Writer
	opt EncodeOpt
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncodeOpt) *Encoder {
	return &Encoder{w: w, opt: lastEncodeOpt(opts)}
}

// Encode writes r followed by a newline.
func (enc *Encoder) Encode(r *Record) error {
	b, err := Marshal(r, enc.opt)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = enc.w.Write(b)
	return err
}

type encodeState struct {
	buf    bytes.Buffer
	opt    EncodeOpt
	issues Issues
	// first tracks whether the innermost open object has a member yet.
	first []bool
}

func (e *encodeState) fail(p PathRef, code, msg string, cause error) {
	it := p.Issue(code, msg)
	it.Cause = cause
	e.issues = append(e.issues, it)
}

func (e *encodeState) beginObject() {
	e.buf.WriteByte('{')
	e.first = append(e.first, true)
}

func (e *encodeState) endObject() {
	e.first = e.first[:len(e.first)-1]
	e.buf.WriteByte('}')
}

func (e *encodeState) key(name string) {
	top := len(e.first) - 1
	if !e.first[top] {
		e.buf.WriteByte(',')
	}
	e.first[top] = false
	e.writeString(name)
	e.buf.WriteByte(':')
}

func (e *encodeState) writeString(s string) {
	var b []byte
	var err error
	if e.opt.EscapeHTML {
		b, err = gojson.Marshal(s)
	} else {
		b, err = gojson.MarshalNoEscape(s)
	}
	if err != nil {
		// strings always marshal; keep output well-formed regardless
		b = []byte(strconv.Quote(s))
	}
	e.buf.Write(b)
}

func (e *encodeState) str(name string, v *string) {
	if v == nil {
		return
	}
	e.key(name)
	e.writeString(*v)
}

func (e *encodeState) int64(name string, v *int64) {
	if v == nil {
		return
	}
	e.key(name)
	e.buf.WriteString(strconv.FormatInt(*v, 10))
}

func (e *encodeState) time(name string, v *time.Time, p PathRef) {
	if v == nil {
		return
	}
	w, err := e.opt.Time.EncodeTime(*v)
	if err != nil {
		e.fail(p.Field(name), CodeUnexpectedType, "timestamp cannot be encoded", err)
		return
	}
	e.key(name)
	switch x := w.(type) {
	case string:
		e.writeString(x)
	case gojson.Number:
		e.buf.WriteString(string(x))
	default:
		e.fail(p.Field(name), CodeUnexpectedType, fmt.Sprintf("time codec %s produced %T", e.opt.Time.Name(), w), nil)
		e.buf.WriteString("null")
	}
}

func (e *encodeState) stringList(name string, v []string) {
	if v == nil {
		return
	}
	e.key(name)
	e.buf.WriteByte('[')
	for i, s := range v {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.writeString(s)
	}
	e.buf.WriteByte(']')
}

func (e *encodeState) record(r *Record, p PathRef) {
	e.beginObject()
	e.str("version", r.Version)
	e.str("id", r.ID)
	e.str("system", r.System)
	e.str("organization", r.Organization)
	e.time("time", r.Time, p)
	e.str("description", r.Description)
	e.str("type", r.Type)
	e.str("securityTag", r.SecurityTag)
	if r.ObjectItems != nil {
		e.list("objectItems", len(r.ObjectItems), p, func(i int, ip PathRef) { e.objectItem(&r.ObjectItems[i], ip) })
	}
	if r.ObjectGroups != nil {
		e.list("objectGroups", len(r.ObjectGroups), p, func(i int, ip PathRef) { e.objectGroup(&r.ObjectGroups[i], ip) })
	}
	if r.ObjectRelationships != nil {
		e.list("objectRelationships", len(r.ObjectRelationships), p, func(i int, ip PathRef) { e.objectRelationship(&r.ObjectRelationships[i], ip) })
	}
	e.otherInformation(r.OtherInformation, p)
	e.endObject()
}

// list writes a present sequence; callers skip nil slices.
func (e *encodeState) list(name string, n int, p PathRef, elem func(i int, ip PathRef)) {
	e.key(name)
	lp := p.Field(name)
	e.buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		elem(i, lp.Index(i))
	}
	e.buf.WriteByte(']')
}

func (e *encodeState) otherInformation(v []OtherInformation, p PathRef) {
	if v == nil {
		return
	}
	e.list("otherInformation", len(v), p, func(i int, ip PathRef) {
		e.beginObject()
		e.key("key")
		e.writeString(v[i].Key)
		e.value("value", v[i].Value, ip)
		e.endObject()
	})
}

func (e *encodeState) value(name string, v Value, p PathRef) {
	switch v.kind {
	case KindNone:
		return
	case KindString:
		e.key(name)
		e.writeString(v.s)
	case KindInt:
		e.key(name)
		e.buf.WriteString(strconv.FormatInt(int64(v.i), 10))
	case KindFloat:
		e.float(name, float64(v.f), 32, p)
	case KindDouble:
		e.float(name, v.d, 64, p)
	case KindBool:
		e.key(name)
		e.buf.WriteString(strconv.FormatBool(v.b))
	default:
		e.fail(p.Field(name), CodeUnexpectedType, "unknown value kind "+v.kind.String(), nil)
	}
}

func (e *encodeState) float(name string, f float64, bits int, p PathRef) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.fail(p.Field(name), CodeUnexpectedType, "NaN and infinite values have no JSON form", nil)
		return
	}
	e.key(name)
	e.buf.WriteString(formatFloat(f, bits))
}

// formatFloat renders the shortest literal that reads back to the same value
// at the given width, always with a fraction or exponent so the literal reads
// back as a floating-point value.
func formatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	fmtByte := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		fmtByte = 'e'
	}
	s := strconv.FormatFloat(f, fmtByte, -1, bits)
	if fmtByte == 'e' {
		// clean up e-09 to e-9
		if n := len(s); n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (e *encodeState) objectItem(it *ObjectItem, p PathRef) {
	e.beginObject()
	e.str("objectId", it.ObjectID)
	e.str("sha256Hash", it.SHA256Hash)
	e.str("md5Hash", it.MD5Hash)
	e.int64("size", it.Size)
	e.str("mimeType", it.MimeType)
	e.str("relativeUri", it.RelativeURI)
	e.str("originalPath", it.OriginalPath)
	if it.AuthorityInformation != nil {
		e.key("authorityInformation")
		e.authorityInformation(it.AuthorityInformation, p.Field("authorityInformation"))
	}
	if it.ObjectAssertions != nil {
		e.key("objectAssertions")
		e.assertions(it.ObjectAssertions, p.Field("objectAssertions"))
	}
	e.otherInformation(it.OtherInformation, p)
	e.endObject()
}

func (e *encodeState) authorityInformation(a *AuthorityInformation, p PathRef) {
	e.beginObject()
	e.str("collectionId", a.CollectionID)
	e.str("collectionIdLabel", a.CollectionIDLabel)
	e.str("collectionIdAlias", a.CollectionIDAlias)
	e.str("collectionDescription", a.CollectionDescription)
	e.str("subCollectionId", a.SubCollectionID)
	e.str("subCollectionIdLabel", a.SubCollectionIDLabel)
	e.str("subCollectionIdAlias", a.SubCollectionIDAlias)
	e.str("subCollectionDescription", a.SubCollectionDescription)
	e.time("registrationDate", a.RegistrationDate, p)
	e.time("expirationDate", a.ExpirationDate, p)
	e.str("owner", a.Owner)
	e.str("securityTag", a.SecurityTag)
	e.endObject()
}

func (e *encodeState) objectGroup(g *ObjectGroup, p PathRef) {
	e.beginObject()
	e.str("groupId", g.GroupID)
	e.str("groupType", g.GroupType)
	e.str("groupDescription", g.GroupDescription)
	e.stringList("groupMemberIds", g.GroupMemberIDs)
	if g.GroupAssertions != nil {
		e.key("groupAssertions")
		e.assertions(g.GroupAssertions, p.Field("groupAssertions"))
	}
	e.otherInformation(g.OtherInformation, p)
	e.endObject()
}

func (e *encodeState) objectRelationship(r *ObjectRelationship, p PathRef) {
	e.beginObject()
	e.stringList("linkageMemberIds", r.LinkageMemberIDs)
	e.str("linkageDirectionality", r.LinkageDirectionality)
	e.str("linkageType", r.LinkageType)
	e.str("linkageAssertionId", r.LinkageAssertionID)
	e.otherInformation(r.OtherInformation, p)
	e.endObject()
}

func (e *encodeState) assertions(a *Assertions, p PathRef) {
	e.beginObject()
	if a.Annotations != nil {
		e.list("annotations", len(a.Annotations), p, func(i int, ip PathRef) { e.annotation(&a.Annotations[i], ip) })
	}
	if a.SupplementalDescriptions != nil {
		e.list("supplementalDescriptions", len(a.SupplementalDescriptions), p, func(i int, ip PathRef) {
			e.supplementalDescription(a.SupplementalDescriptions[i], ip)
		})
	}
	e.endObject()
}

func (e *encodeState) annotation(a *Annotation, p PathRef) {
	e.beginObject()
	e.str("assertionId", a.AssertionID)
	e.str("assertionReferenceId", a.AssertionReferenceID)
	e.str("assertionReferenceIdLabel", a.AssertionReferenceIDLabel)
	e.str("system", a.System)
	e.str("creator", a.Creator)
	e.time("time", a.Time, p)
	e.str("annotationType", a.AnnotationType)
	e.str("key", a.Key)
	e.str("value", a.Value)
	e.str("itemAction", a.ItemAction)
	e.time("itemActionTime", a.ItemActionTime, p)
	e.str("securityTag", a.SecurityTag)
	e.endObject()
}

func (e *encodeState) supplementalDescription(sd SupplementalDescription, p PathRef) {
	switch v := sd.(type) {
	case *SupplementalDescriptionDataFile:
		if v == nil {
			break
		}
		e.beginObject()
		e.supplementalBase(&v.SupplementalDescriptionBase)
		e.str("sha256DataHash", v.SHA256DataHash)
		e.int64("dataSize", v.DataSize)
		e.str("dataRelativeUri", v.DataRelativeURI)
		e.endObject()
		if v.SHA256DataHash == nil && v.DataSize == nil && v.DataRelativeURI == nil {
			e.unrecognized(p, "a data file needs sha256DataHash, dataSize or dataRelativeUri")
		}
		return
	case *SupplementalDescriptionDataObject:
		if v == nil {
			break
		}
		e.beginObject()
		e.supplementalBase(&v.SupplementalDescriptionBase)
		if v.DataObject != nil {
			e.key("dataObject")
			e.any(v.DataObject, p.Field("dataObject"))
		}
		e.endObject()
		if v.DataObject == nil {
			e.unrecognized(p, "a data object needs dataObject")
		}
		return
	}
	e.fail(p, CodeUnexpectedType, fmt.Sprintf("cannot encode supplemental description %T", sd), nil)
	e.buf.WriteString("null")
}

// unrecognized reports a supplemental description the decoder could not
// assign to a variant.
func (e *encodeState) unrecognized(p PathRef, hint string) {
	it := p.Issue(CodeUnrecognizedVariant, i18n.T(CodeUnrecognizedVariant, nil), "variants", "dataFile,dataObject")
	it.Hint = hint
	e.issues = append(e.issues, it)
}

func (e *encodeState) supplementalBase(b *SupplementalDescriptionBase) {
	e.str("assertionId", b.AssertionID)
	e.str("assertionReferenceId", b.AssertionReferenceID)
	e.str("assertionReferenceIdLabel", b.AssertionReferenceIDLabel)
	e.str("system", b.System)
	e.str("informationType", b.InformationType)
	e.str("securityTag", b.SecurityTag)
}

// any writes a generic JSON tree. Object keys follow sh when given, then the
// remaining keys sorted; with a nil shape all keys are sorted.
func (e *encodeState) any(v any, p PathRef) {
	e.anyShaped(v, nil, p)
}

func (e *encodeState) anyShaped(v any, sh *shape, p PathRef) {
	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case string:
		e.writeString(x)
	case bool:
		e.buf.WriteString(strconv.FormatBool(x))
	case gojson.Number:
		if !yamlsrc.IsJSONNumber(string(x)) {
			e.fail(p, CodeUnexpectedType, "invalid number literal "+strconv.Quote(string(x)), nil)
			e.buf.WriteString("null")
			return
		}
		e.buf.WriteString(string(x))
	case float64:
		e.anyFloat(x, 64, p)
	case float32:
		e.anyFloat(float64(x), 32, p)
	case int:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		e.buf.WriteString(strconv.FormatInt(x, 10))
	case map[string]any:
		e.beginObject()
		for _, k := range orderedKeys(x, sh) {
			e.key(k)
			var child *shape
			if sh != nil {
				child = sh.children[k]
			}
			e.anyShaped(x[k], child, p.Field(k))
		}
		e.endObject()
	case []any:
		e.buf.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.anyShaped(el, sh, p.Index(i))
		}
		e.buf.WriteByte(']')
	default:
		b, err := gojson.Marshal(x)
		if err != nil {
			e.fail(p, CodeUnexpectedType, fmt.Sprintf("cannot encode %T", x), err)
			e.buf.WriteString("null")
			return
		}
		e.buf.Write(b)
	}
}

func (e *encodeState) anyFloat(f float64, bits int, p PathRef) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.fail(p, CodeUnexpectedType, "NaN and infinite values have no JSON form", nil)
		e.buf.WriteString("null")
		return
	}
	e.buf.WriteString(formatFloat(f, bits))
}

// orderedKeys lists the known keys of sh present in m in canonical order,
// followed by the remaining keys sorted.
func orderedKeys(m map[string]any, sh *shape) []string {
	out := make([]string, 0, len(m))
	var rest []string
	if sh != nil {
		for _, k := range sh.keys {
			if _, ok := m[k]; ok {
				out = append(out, k)
			}
		}
	}
	for k := range m {
		if sh == nil || !sh.isKnown(k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
