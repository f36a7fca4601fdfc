// Package convert upgrades TIES documents written against older schema
// versions (0.1.8 through 0.8) to version 0.9.
//
// Documents are the generic trees produced by ties.ReadTree and are modified
// in place. Each migration step runs only when the document is at the version
// it upgrades from, so a 0.5 document passes through 0.5→0.6, 0.6→0.7 and so
// on. Documents at an unrecognised version are left untouched.
package convert

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Target is the version every successful conversion ends at.
const Target = "0.9"

// ErrSecurityTagRequired matches the error returned when a pre-0.3 document
// is converted without a security tag.
var ErrSecurityTagRequired = errors.New("security tag required")

// SecurityTagError reports the version that needed a security tag.
type SecurityTagError struct {
	From string
}

func (e *SecurityTagError) Error() string {
	return fmt.Sprintf("security_tag is required to convert from version %s to version 0.3", e.From)
}

func (e *SecurityTagError) Is(target error) bool { return target == ErrSecurityTagRequired }

// Versions lists the schema versions Convert understands, oldest first.
var Versions = []string{"0.1.8", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7", "0.8", Target}

type step struct {
	from  []string
	to    string
	apply func(doc map[string]any, tag string) error
}

var steps = []step{
	{from: []string{"0.1.8", "0.2"}, to: "0.3", apply: to03},
	{from: []string{"0.3"}, to: "0.4", apply: to04},
	{from: []string{"0.4"}, to: "0.5", apply: to05},
	{from: []string{"0.5"}, to: "0.6", apply: to06},
	{from: []string{"0.6"}, to: "0.7", apply: to07},
	{from: []string{"0.7"}, to: "0.8", apply: to08},
	{from: []string{"0.8"}, to: "0.9", apply: to09},
}

// Supported reports whether version is one Convert knows how to upgrade (or
// is already current).
func Supported(version string) bool {
	for _, v := range Versions {
		if v == version {
			return true
		}
	}
	return false
}

// Version returns the document's version string, or "" when it has none.
func Version(doc map[string]any) string {
	v, _ := doc["version"].(string)
	return v
}

// Convert upgrades doc in place. securityTag fills in the security tags that
// became mandatory in 0.3 and must be non-empty for 0.1.8 and 0.2 documents.
func Convert(doc map[string]any, securityTag string) error {
	for _, s := range steps {
		if !contains(s.from, Version(doc)) {
			continue
		}
		if err := s.apply(doc, securityTag); err != nil {
			return err
		}
		doc["version"] = s.to
	}
	return nil
}

// Tree converts a decoded document tree. Anything other than a JSON object is
// rejected.
func Tree(tree any, securityTag string) error {
	doc, ok := tree.(map[string]any)
	if !ok {
		return errors.New("convert: document is not a JSON object")
	}
	return Convert(doc, securityTag)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// objects returns the object elements of m[key], skipping anything else.
func objects(m map[string]any, key string) []map[string]any {
	arr, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if o, ok := el.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

// child returns m[key] as an object, or nil.
func child(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}

func rename(m map[string]any, from, to string) {
	if v, ok := m[from]; ok {
		m[to] = v
		delete(m, from)
	}
}

func setDefault(m map[string]any, key string, v any) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

// fixTime repairs the "YYYY-MM-DDT:hh:mm:ss" timestamps written by early
// exporters.
func fixTime(m map[string]any, key string) {
	if s, ok := m[key].(string); ok {
		m[key] = strings.Replace(s, "T:", "T", 1)
	}
}

func to03(doc map[string]any, tag string) error {
	if tag == "" {
		return &SecurityTagError{From: Version(doc)}
	}
	setDefault(doc, "securityTag", tag)
	fixTime(doc, "time")

	items, ok := doc["objectItem"]
	delete(doc, "objectItem")
	if !ok {
		items = []any{}
	}
	doc["objectItems"] = items

	for _, it := range objects(doc, "objectItems") {
		rename(it, "relativeURI", "relativeUri")
		rename(it, "systemIdentifier", "systemId")

		auth := child(it, "authorityInformation")
		if auth == nil {
			auth = map[string]any{}
			it["authorityInformation"] = auth
		}
		setDefault(auth, "securityTag", tag)
		fixTime(auth, "registrationDate")
		fixTime(auth, "expirationDate")

		for _, rel := range objects(it, "objectRelationships") {
			rename(rel, "linkageAssertId", "linkageAssertionId")
		}
		assertions := child(it, "objectAssertions")
		for _, a := range objects(assertions, "annotations") {
			setDefault(a, "securityTag", tag)
			// annotation values gained a minimum length of 1
			if v, ok := a["value"]; !ok || v == "" {
				a["value"] = " "
			}
			fixTime(a, "time")
			fixTime(a, "itemActionTime")
		}
		for _, sd := range objects(assertions, "systemSupplementalDescriptions") {
			setDefault(sd, "securityTag", tag)
			setDefault(sd, "informationType", "triageSupplemental")
			rename(sd, "dataHash", "sha256DataHash")
		}
	}
	return nil
}

func to04(doc map[string]any, _ string) error {
	if id, ok := doc["id"]; ok {
		doc["id"] = text(id)
	}
	for _, it := range objects(doc, "objectItems") {
		for _, sd := range objects(child(it, "objectAssertions"), "systemSupplementalDescriptions") {
			delete(sd, "description")
		}
	}
	return nil
}

// text renders a scalar the way it appears in the source document.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case gojson.Number:
		return string(x)
	case nil:
		return "null"
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func to05(doc map[string]any, _ string) error {
	for _, it := range objects(doc, "objectItems") {
		for _, a := range objects(child(it, "objectAssertions"), "annotations") {
			switch k, _ := a["key"].(string); k {
			case "Tag", "UserDescribed":
				a["annotationType"] = k
				delete(a, "key")
			default:
				a["annotationType"] = "Unknown"
			}
		}
	}
	return nil
}

func to06(doc map[string]any, _ string) error {
	for _, it := range objects(doc, "objectItems") {
		auth := child(it, "authorityInformation")
		if auth == nil {
			continue
		}
		rename(auth, "collectionIdDescription", "collectionIdLabel")
		rename(auth, "subCollectionIdDescription", "subCollectionIdLabel")
	}
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	}
	return true
}

func to07(doc map[string]any, _ string) error {
	items := objects(doc, "objectItems")
	for _, it := range items {
		if !truthy(it["systemId"]) && truthy(it["sha256Hash"]) {
			it["systemId"] = it["sha256Hash"]
		}
	}
	for _, it := range items {
		rels := objects(it, "objectRelationships")
		for _, rel := range rels {
			hash, ok := rel["linkageSha256Hash"]
			delete(rel, "linkageSha256Hash")
			if !ok || !truthy(hash) {
				continue
			}
			h, _ := hash.(string)
			linked := systemIDsFor(items, h)
			if len(linked) == 0 {
				rel["linkageSystemId"] = hash
				continue
			}
			rel["linkageSystemId"] = linked[0]
			for _, id := range linked[1:] {
				dup := deepCopy(rel).(map[string]any)
				dup["linkageSystemId"] = id
				it["objectRelationships"] = append(it["objectRelationships"].([]any), dup)
			}
		}
	}
	return nil
}

// systemIDsFor returns the distinct, sorted system ids of the items whose
// sha256Hash equals hash.
func systemIDsFor(items []map[string]any, hash string) []string {
	if hash == "" {
		return nil
	}
	seen := map[string]bool{}
	var ids []string
	for _, it := range items {
		if h, _ := it["sha256Hash"].(string); h != hash {
			continue
		}
		id, ok := it["systemId"].(string)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func to08(doc map[string]any, _ string) error {
	top, _ := doc["objectRelationships"].([]any)
	moved := false
	for _, it := range objects(doc, "objectItems") {
		for _, rel := range objects(it, "objectRelationships") {
			rel["linkageDirectionality"] = "DIRECTED"
			rel["linkageSystemIds"] = []any{it["systemId"], rel["linkageSystemId"]}
			delete(rel, "linkageSystemId")
			top = append(top, rel)
			moved = true
		}
		delete(it, "objectRelationships")
	}
	if moved {
		doc["objectRelationships"] = top
	}
	return nil
}

func to09(doc map[string]any, _ string) error {
	for _, it := range objects(doc, "objectItems") {
		rename(it, "systemId", "objectId")
		rename(it, "otherIds", "otherInformation")

		assertions := child(it, "objectAssertions")
		for _, a := range objects(assertions, "annotations") {
			rename(a, "systemUniqueId", "assertionReferenceId")
			rename(a, "systemName", "system")
		}
		for _, sd := range objects(assertions, "systemSupplementalDescriptions") {
			rename(sd, "systemExportId", "assertionReferenceId")
			rename(sd, "systemExportIdCallTag", "assertionReferenceIdLabel")
			rename(sd, "systemName", "system")
		}
		if assertions != nil {
			rename(assertions, "systemSupplementalDescriptions", "supplementalDescriptions")
		}
	}
	for _, rel := range objects(doc, "objectRelationships") {
		rename(rel, "linkageSystemIds", "linkageMemberIds")
	}
	return nil
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, el := range x {
			m[k] = deepCopy(el)
		}
		return m
	case []any:
		a := make([]any, len(x))
		for i, el := range x {
			a[i] = deepCopy(el)
		}
		return a
	}
	return v
}
