package ties

// SupplementalDescription is one of *SupplementalDescriptionDataFile or
// *SupplementalDescriptionDataObject. The wire form has no discriminator;
// the decoder infers the variant from which fields are present.
type SupplementalDescription interface {
	Base() *SupplementalDescriptionBase
	isSupplementalDescription()
}

// SupplementalDescriptionBase holds the fields shared by every variant.
type SupplementalDescriptionBase struct {
	AssertionID               *string
	AssertionReferenceID      *string
	AssertionReferenceIDLabel *string
	System                    *string
	InformationType           *string
	SecurityTag               *string
}

// SupplementalDescriptionDataFile describes a data file stored alongside the
// export. At least one of SHA256DataHash, DataSize and DataRelativeURI must be
// set; the variant is inferred from them on decode.
type SupplementalDescriptionDataFile struct {
	SupplementalDescriptionBase
	SHA256DataHash  *string
	DataSize        *int64
	DataRelativeURI *string
}

// SupplementalDescriptionDataObject carries an inline JSON object. DataObject
// values are the generic JSON tree: map[string]any, []any, string,
// gojson.Number, bool or nil. A nil DataObject cannot be encoded.
type SupplementalDescriptionDataObject struct {
	SupplementalDescriptionBase
	DataObject map[string]any
}

func (d *SupplementalDescriptionDataFile) Base() *SupplementalDescriptionBase {
	return &d.SupplementalDescriptionBase
}
func (d *SupplementalDescriptionDataFile) isSupplementalDescription() {}

func (d *SupplementalDescriptionDataObject) Base() *SupplementalDescriptionBase {
	return &d.SupplementalDescriptionBase
}
func (d *SupplementalDescriptionDataObject) isSupplementalDescription() {}
