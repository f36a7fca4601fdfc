package ties

// shape describes the canonical key order of one object type and the shapes
// of its nested objects. It drives Format and the unknown-key check; the
// typed encoder writes fields in the same order.
type shape struct {
	name     string
	keys     []string
	known    map[string]struct{}
	children map[string]*shape // nested object, or element shape for arrays of objects
}

func newShape(name string, keys ...string) *shape {
	s := &shape{name: name, keys: keys, known: make(map[string]struct{}, len(keys)), children: map[string]*shape{}}
	for _, k := range keys {
		s.known[k] = struct{}{}
	}
	return s
}

func (s *shape) isKnown(k string) bool {
	_, ok := s.known[k]
	return ok
}

var supplementalBaseKeys = []string{
	"assertionId",
	"assertionReferenceId",
	"assertionReferenceIdLabel",
	"system",
	"informationType",
	"securityTag",
}

var (
	otherInformationShape = newShape("otherInformation", "key", "value")

	annotationShape = newShape("annotation",
		"assertionId",
		"assertionReferenceId",
		"assertionReferenceIdLabel",
		"system",
		"creator",
		"time",
		"annotationType",
		"key",
		"value",
		"itemAction",
		"itemActionTime",
		"securityTag",
	)

	dataFileShape   = newShape("supplementalDescriptionDataFile", append(append([]string{}, supplementalBaseKeys...), "sha256DataHash", "dataSize", "dataRelativeUri")...)
	dataObjectShape = newShape("supplementalDescriptionDataObject", append(append([]string{}, supplementalBaseKeys...), "dataObject")...)
	// union of both variants, used where the variant is not yet known
	supplementalShape = newShape("supplementalDescription", append(append([]string{}, supplementalBaseKeys...), "sha256DataHash", "dataSize", "dataRelativeUri", "dataObject")...)

	assertionsShape = newShape("assertions", "annotations", "supplementalDescriptions")

	authorityInformationShape = newShape("authorityInformation",
		"collectionId",
		"collectionIdLabel",
		"collectionIdAlias",
		"collectionDescription",
		"subCollectionId",
		"subCollectionIdLabel",
		"subCollectionIdAlias",
		"subCollectionDescription",
		"registrationDate",
		"expirationDate",
		"owner",
		"securityTag",
	)

	objectItemShape = newShape("objectItem",
		"objectId",
		"sha256Hash",
		"md5Hash",
		"size",
		"mimeType",
		"relativeUri",
		"originalPath",
		"authorityInformation",
		"objectAssertions",
		"otherInformation",
	)

	objectGroupShape = newShape("objectGroup",
		"groupId",
		"groupType",
		"groupDescription",
		"groupMemberIds",
		"groupAssertions",
		"otherInformation",
	)

	objectRelationshipShape = newShape("objectRelationship",
		"linkageMemberIds",
		"linkageDirectionality",
		"linkageType",
		"linkageAssertionId",
		"otherInformation",
	)

	recordShape = newShape("ties",
		"version",
		"id",
		"system",
		"organization",
		"time",
		"description",
		"type",
		"securityTag",
		"objectItems",
		"objectGroups",
		"objectRelationships",
		"otherInformation",
	)
)

func init() {
	assertionsShape.children["annotations"] = annotationShape
	assertionsShape.children["supplementalDescriptions"] = supplementalShape

	objectItemShape.children["authorityInformation"] = authorityInformationShape
	objectItemShape.children["objectAssertions"] = assertionsShape
	objectItemShape.children["otherInformation"] = otherInformationShape

	objectGroupShape.children["groupAssertions"] = assertionsShape
	objectGroupShape.children["otherInformation"] = otherInformationShape

	objectRelationshipShape.children["otherInformation"] = otherInformationShape

	recordShape.children["objectItems"] = objectItemShape
	recordShape.children["objectGroups"] = objectGroupShape
	recordShape.children["objectRelationships"] = objectRelationshipShape
	recordShape.children["otherInformation"] = otherInformationShape
}

// KeyOrder returns the canonical property order for an object type. Known
// names: ties, objectItem, authorityInformation, objectGroup,
// objectRelationship, assertions, annotation, supplementalDescriptionDataFile,
// supplementalDescriptionDataObject, otherInformation. Unknown names yield nil.
func KeyOrder(name string) []string {
	for _, s := range []*shape{
		recordShape, objectItemShape, authorityInformationShape, objectGroupShape,
		objectRelationshipShape, assertionsShape, annotationShape, dataFileShape,
		dataObjectShape, otherInformationShape,
	} {
		if s.name == name {
			return append([]string(nil), s.keys...)
		}
	}
	return nil
}
