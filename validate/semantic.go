package validate

import (
	"fmt"

	"github.com/tiesdata/ties"
)

// Warnings runs the semantic checks on a schema-valid document. The checks
// run in a fixed order and each contributes its findings in document order.
func Warnings(doc any) []*ValidationWarning {
	root, _ := doc.(map[string]any)
	var out []*ValidationWarning
	out = append(out, duplicateSHA256(root)...)
	for i, it := range objects(root, "objectItems") {
		out = append(out, duplicateOtherInformationKeys(it, fmt.Sprintf("/objectItems[%d]/otherInformation", i))...)
	}
	for i, g := range objects(root, "objectGroups") {
		out = append(out, duplicateOtherInformationKeys(g, fmt.Sprintf("/objectGroups[%d]/otherInformation", i))...)
	}
	out = append(out, duplicateObjectAndGroupIDs(root)...)
	out = append(out, duplicateAssertionIDs(root)...)
	out = append(out, danglingLinkageMembers(root)...)
	out = append(out, danglingLinkageAssertions(root)...)
	for i, r := range objects(root, "objectRelationships") {
		out = append(out, duplicateOtherInformationKeys(r, fmt.Sprintf("/objectRelationships[%d]/otherInformation", i))...)
	}
	out = append(out, duplicateOtherInformationKeys(root, "/otherInformation")...)
	return out
}

// RecordWarnings runs the semantic checks on a record.
func RecordWarnings(r *ties.Record) ([]*ValidationWarning, error) {
	b, err := ties.Marshal(r)
	if err != nil {
		return nil, err
	}
	doc, err := ties.ReadTree(ties.JSONBytes(b))
	if err != nil {
		return nil, err
	}
	return Warnings(doc), nil
}

// objects returns the object elements of m[key]; other elements are nil.
func objects(m map[string]any, key string) []map[string]any {
	arr, _ := m[key].([]any)
	out := make([]map[string]any, len(arr))
	for i, el := range arr {
		out[i], _ = el.(map[string]any)
	}
	return out
}

func stringAt(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// index groups positions by value, remembering first-seen order.
type index struct {
	order []string
	pos   map[string][]int
}

func (x *index) add(v string, i int) {
	if x.pos == nil {
		x.pos = map[string][]int{}
	}
	if _, ok := x.pos[v]; !ok {
		x.order = append(x.order, v)
	}
	x.pos[v] = append(x.pos[v], i)
}

func (x *index) has(v string) bool {
	_, ok := x.pos[v]
	return ok
}

func duplicateSHA256(root map[string]any) []*ValidationWarning {
	var x index
	for i, it := range objects(root, "objectItems") {
		if h, ok := stringAt(it, "sha256Hash"); ok {
			x.add(h, i)
		}
	}
	var out []*ValidationWarning
	for _, h := range x.order {
		if idx := x.pos[h]; len(idx) > 1 {
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("objectItems at indexes %s have duplicate sha256Hash value ('%s')", intList(idx), h),
				Location: "/objectItems",
			})
		}
	}
	return out
}

func duplicateOtherInformationKeys(owner map[string]any, loc string) []*ValidationWarning {
	var x index
	for i, oi := range objects(owner, "otherInformation") {
		if k, ok := stringAt(oi, "key"); ok {
			x.add(k, i)
		}
	}
	var out []*ValidationWarning
	for _, k := range x.order {
		if idx := x.pos[k]; len(idx) > 1 {
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("otherInformation array contains duplicate key ('%s') at indexes %s", k, intList(idx)),
				Location: loc,
			})
		}
	}
	return out
}

func objectAndGroupIndexes(root map[string]any) (items, groups index) {
	for i, it := range objects(root, "objectItems") {
		if id, ok := stringAt(it, "objectId"); ok {
			items.add(id, i)
		}
	}
	for i, g := range objects(root, "objectGroups") {
		if id, ok := stringAt(g, "groupId"); ok {
			groups.add(id, i)
		}
	}
	return items, groups
}

func duplicateObjectAndGroupIDs(root map[string]any) []*ValidationWarning {
	items, groups := objectAndGroupIndexes(root)
	var out []*ValidationWarning
	for _, id := range items.order {
		if idx := items.pos[id]; len(idx) > 1 {
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("objectItems at indexes %s have duplicate objectId value ('%s')", intList(idx), id),
				Location: "/objectItems",
			})
		}
	}
	for _, id := range groups.order {
		if idx := groups.pos[id]; len(idx) > 1 {
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("objectGroups at indexes %s have duplicate groupId value ('%s')", intList(idx), id),
				Location: "/objectGroups",
			})
		}
	}
	for _, id := range items.order {
		if !groups.has(id) {
			continue
		}
		msg := plural("objectItem", items.pos[id]) + " and " + plural("objectGroup", groups.pos[id])
		out = append(out, &ValidationWarning{
			Message:  fmt.Sprintf("%s have duplicate objectId/groupId value ('%s')", msg, id),
			Location: "/",
		})
	}
	return out
}

func plural(noun string, idx []int) string {
	if len(idx) == 1 {
		return fmt.Sprintf("%s at index %d", noun, idx[0])
	}
	return fmt.Sprintf("%ss at indexes %s", noun, intList(idx))
}

// assertionSite is one assertion with its location. set is false when the
// assertion has no assertionId.
type assertionSite struct {
	id  string
	set bool
	loc string
}

// assertions lists every assertion of item and group assertion blocks in
// document order.
func assertions(root map[string]any) []assertionSite {
	var out []assertionSite
	visit := func(owner map[string]any, prefix, blockKey string) {
		block, _ := owner[blockKey].(map[string]any)
		for _, list := range []string{"annotations", "supplementalDescriptions"} {
			for i, a := range objects(block, list) {
				id, ok := stringAt(a, "assertionId")
				out = append(out, assertionSite{id: id, set: ok, loc: fmt.Sprintf("%s/%s/%s[%d]/assertionId", prefix, blockKey, list, i)})
			}
		}
	}
	for i, it := range objects(root, "objectItems") {
		visit(it, fmt.Sprintf("/objectItems[%d]", i), "objectAssertions")
	}
	for i, g := range objects(root, "objectGroups") {
		visit(g, fmt.Sprintf("/objectGroups[%d]", i), "groupAssertions")
	}
	return out
}

func duplicateAssertionIDs(root map[string]any) []*ValidationWarning {
	var order []string
	locs := map[string][]string{}
	for _, a := range assertions(root) {
		if a.id == "" {
			continue
		}
		if _, ok := locs[a.id]; !ok {
			order = append(order, a.id)
		}
		locs[a.id] = append(locs[a.id], a.loc)
	}
	var out []*ValidationWarning
	for _, id := range order {
		if len(locs[id]) < 2 {
			continue
		}
		for _, loc := range locs[id] {
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("assertion has duplicate assertionId value ('%s')", id),
				Location: loc,
			})
		}
	}
	return out
}

func danglingLinkageMembers(root map[string]any) []*ValidationWarning {
	items, groups := objectAndGroupIndexes(root)
	var out []*ValidationWarning
	for i, r := range objects(root, "objectRelationships") {
		ids, _ := r["linkageMemberIds"].([]any)
		for j, v := range ids {
			id, ok := v.(string)
			if !ok || items.has(id) || groups.has(id) {
				continue
			}
			out = append(out, &ValidationWarning{
				Message:  fmt.Sprintf("objectRelationship has a linkageMemberId ('%s') that does not reference an objectItem or objectGroup in this export", id),
				Location: fmt.Sprintf("/objectRelationships[%d]/linkageMemberIds[%d]", i, j),
			})
		}
	}
	return out
}

func danglingLinkageAssertions(root map[string]any) []*ValidationWarning {
	known := map[string]bool{}
	for _, a := range assertions(root) {
		if a.set {
			known[a.id] = true
		}
	}
	var out []*ValidationWarning
	for i, r := range objects(root, "objectRelationships") {
		id, ok := stringAt(r, "linkageAssertionId")
		if !ok || known[id] {
			continue
		}
		out = append(out, &ValidationWarning{
			Message:  fmt.Sprintf("objectRelationship has a linkageAssertionId ('%s') that does not reference an assertion in this export", id),
			Location: fmt.Sprintf("/objectRelationships[%d]/linkageAssertionId", i),
		})
	}
	return out
}
