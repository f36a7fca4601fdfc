package ties

import "time"

// Annotation is an assertion made about an object item or group.
type Annotation struct {
	AssertionID               *string
	AssertionReferenceID      *string
	AssertionReferenceIDLabel *string
	System                    *string
	Creator                   *string
	Time                      *time.Time
	AnnotationType            *string
	Key                       *string
	Value                     *string
	ItemAction                *string
	ItemActionTime            *time.Time
	SecurityTag               *string
}

// Assertions groups the annotations and supplemental descriptions attached
// to an item or group.
type Assertions struct {
	Annotations              []Annotation
	SupplementalDescriptions []SupplementalDescription
}
