package validate

import (
	js "github.com/tiesdata/ties/jsonschema"
)

// Definition names inside the TIES schema. Each can be used as the root of a
// Validator to check a fragment of a document.
const (
	Annotation                        = "annotation-object"
	Assertions                        = "assertions-object"
	AuthorityInformation              = "authorityInformation-object"
	ObjectGroup                       = "objectGroup-object"
	ObjectItem                        = "objectItem-object"
	ObjectRelationship                = "objectRelationship-object"
	OtherInformation                  = "otherInformation-object"
	SupplementalDescriptionDataFile   = "supplementalDescriptionDataFile-object"
	SupplementalDescriptionDataObject = "supplementalDescriptionDataObject-object"
)

const (
	sha256Pattern = "^[a-fA-F0-9]{64}$"
	md5Pattern    = "^[a-fA-F0-9]{32}$"
)

func str() *js.Schema { return &js.Schema{Type: js.Types{"string"}, MinLength: js.Int(1)} }

func identifier() *js.Schema {
	return &js.Schema{Type: js.Types{"string"}, MinLength: js.Int(1), MaxLength: js.Int(256)}
}

func securityTag() *js.Schema { return &js.Schema{Type: js.Types{"string"}} }

func hash(n int, pattern string) *js.Schema {
	return &js.Schema{Type: js.Types{"string"}, MinLength: js.Int(n), MaxLength: js.Int(n), Pattern: pattern}
}

func size() *js.Schema { return &js.Schema{Type: js.Types{"integer"}, Minimum: js.Int64(0)} }

func arrayOf(items *js.Schema) *js.Schema {
	return &js.Schema{Type: js.Types{"array"}, Items: items, UniqueItems: true}
}

func object(required []string, props map[string]*js.Schema) *js.Schema {
	return &js.Schema{
		Type:                 js.Types{"object"},
		Properties:           props,
		Required:             required,
		AdditionalProperties: js.Bool(false),
	}
}

func supplementalBase(extra map[string]*js.Schema) map[string]*js.Schema {
	props := map[string]*js.Schema{
		"assertionId":               identifier(),
		"assertionReferenceId":      str(),
		"assertionReferenceIdLabel": str(),
		"system":                    str(),
		"informationType":           str(),
		"securityTag":               securityTag(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// Schema returns a fresh copy of the TIES 0.9 JSON Schema (draft 4).
func Schema() *js.Schema {
	otherInformation := arrayOf(js.RefTo(OtherInformation))

	defs := map[string]*js.Schema{
		OtherInformation: object([]string{"key", "value"}, map[string]*js.Schema{
			"key":   str(),
			"value": {Type: js.Types{"string", "boolean", "integer", "number"}},
		}),
		Annotation: object([]string{"annotationType", "assertionId", "securityTag", "value"}, map[string]*js.Schema{
			"assertionId":               identifier(),
			"assertionReferenceId":      str(),
			"assertionReferenceIdLabel": str(),
			"system":                    str(),
			"creator":                   str(),
			"time":                      str(),
			"annotationType":            str(),
			"key":                       str(),
			"value":                     str(),
			"itemAction":                str(),
			"itemActionTime":            str(),
			"securityTag":               securityTag(),
		}),
		SupplementalDescriptionDataFile: object(
			[]string{"assertionId", "dataSize", "informationType", "securityTag", "sha256DataHash"},
			supplementalBase(map[string]*js.Schema{
				"sha256DataHash":  hash(64, sha256Pattern),
				"dataSize":        size(),
				"dataRelativeUri": str(),
			})),
		SupplementalDescriptionDataObject: object(
			[]string{"assertionId", "dataObject", "informationType", "securityTag"},
			supplementalBase(map[string]*js.Schema{
				"dataObject": {Type: js.Types{"object"}},
			})),
		Assertions: object(nil, map[string]*js.Schema{
			"annotations": arrayOf(js.RefTo(Annotation)),
			"supplementalDescriptions": arrayOf(&js.Schema{AnyOf: []*js.Schema{
				js.RefTo(SupplementalDescriptionDataFile),
				js.RefTo(SupplementalDescriptionDataObject),
			}}),
		}),
		AuthorityInformation: object([]string{"securityTag"}, map[string]*js.Schema{
			"collectionId":             str(),
			"collectionIdLabel":        str(),
			"collectionIdAlias":        str(),
			"collectionDescription":    str(),
			"subCollectionId":          str(),
			"subCollectionIdLabel":     str(),
			"subCollectionIdAlias":     str(),
			"subCollectionDescription": str(),
			"registrationDate":         str(),
			"expirationDate":           str(),
			"owner":                    str(),
			"securityTag":              securityTag(),
		}),
		ObjectItem: object([]string{"authorityInformation", "md5Hash", "objectId", "sha256Hash"}, map[string]*js.Schema{
			"objectId":             identifier(),
			"sha256Hash":           hash(64, sha256Pattern),
			"md5Hash":              hash(32, md5Pattern),
			"size":                 size(),
			"mimeType":             str(),
			"relativeUri":          str(),
			"originalPath":         str(),
			"authorityInformation": js.RefTo(AuthorityInformation),
			"objectAssertions":     js.RefTo(Assertions),
			"otherInformation":     otherInformation,
		}),
		ObjectGroup: object([]string{"groupId", "groupMemberIds", "groupType"}, map[string]*js.Schema{
			"groupId":          identifier(),
			"groupType":        str(),
			"groupDescription": str(),
			"groupMemberIds": {
				Type:        js.Types{"array"},
				Items:       identifier(),
				MinItems:    js.Int(1),
				UniqueItems: true,
			},
			"groupAssertions":  js.RefTo(Assertions),
			"otherInformation": otherInformation,
		}),
		ObjectRelationship: object([]string{"linkageDirectionality", "linkageMemberIds"}, map[string]*js.Schema{
			"linkageMemberIds": {
				Type:     js.Types{"array"},
				Items:    identifier(),
				MinItems: js.Int(2),
				MaxItems: js.Int(2),
			},
			"linkageDirectionality": {Type: js.Types{"string"}, Enum: []any{"DIRECTED", "BIDIRECTED", "UNDIRECTED"}},
			"linkageType":           str(),
			"linkageAssertionId":    identifier(),
			"otherInformation":      otherInformation,
		}),
	}

	root := object([]string{"version", "securityTag", "objectItems"}, map[string]*js.Schema{
		"version":      {Type: js.Types{"string"}, Enum: []any{"0.9"}},
		"id":           identifier(),
		"system":       str(),
		"organization": str(),
		"time":         str(),
		"description":  str(),
		"type":         str(),
		"securityTag":  securityTag(),
		"objectItems": {
			Type:        js.Types{"array"},
			Items:       js.RefTo(ObjectItem),
			MinItems:    js.Int(1),
			UniqueItems: true,
		},
		"objectGroups":        arrayOf(js.RefTo(ObjectGroup)),
		"objectRelationships": arrayOf(js.RefTo(ObjectRelationship)),
		"otherInformation":    otherInformation,
	})
	root.SchemaURI = js.Draft4
	root.Title = "TIES"
	root.Description = "TIES export document, version 0.9"
	root.Definitions = defs
	return root
}
