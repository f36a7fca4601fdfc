package ties

import "time"

// Version is the schema version written by this package's tooling.
const Version = "0.9"

// Record is the top-level TIES document. Optional scalars are nil when
// absent; a nil slice is absent while an empty non-nil slice encodes as [].
type Record struct {
	Version             *string
	ID                  *string
	System              *string
	Organization        *string
	Time                *time.Time
	Description         *string
	Type                *string
	SecurityTag         *string
	ObjectItems         []ObjectItem
	ObjectGroups        []ObjectGroup
	ObjectRelationships []ObjectRelationship
	OtherInformation    []OtherInformation
}

// String returns a pointer to s for populating optional fields.
func String(s string) *string { return &s }

// Int64 returns a pointer to n for populating optional fields.
func Int64(n int64) *int64 { return &n }

// Time returns a pointer to t for populating optional fields.
func Time(t time.Time) *time.Time { return &t }
