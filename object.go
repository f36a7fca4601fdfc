package ties

import "time"

// Linkage directionality values.
const (
	Directed   = "DIRECTED"
	Bidirected = "BIDIRECTED"
	Undirected = "UNDIRECTED"
)

// ObjectItem describes one file or object in the export.
type ObjectItem struct {
	ObjectID             *string
	SHA256Hash           *string
	MD5Hash              *string
	Size                 *int64
	MimeType             *string
	RelativeURI          *string
	OriginalPath         *string
	AuthorityInformation *AuthorityInformation
	ObjectAssertions     *Assertions
	OtherInformation     []OtherInformation
}

// AuthorityInformation records where an object item came from.
type AuthorityInformation struct {
	CollectionID             *string
	CollectionIDLabel        *string
	CollectionIDAlias        *string
	CollectionDescription    *string
	SubCollectionID          *string
	SubCollectionIDLabel     *string
	SubCollectionIDAlias     *string
	SubCollectionDescription *string
	RegistrationDate         *time.Time
	ExpirationDate           *time.Time
	Owner                    *string
	SecurityTag              *string
}

// ObjectGroup gathers object items under a shared identity.
type ObjectGroup struct {
	GroupID          *string
	GroupType        *string
	GroupDescription *string
	GroupMemberIDs   []string
	GroupAssertions  *Assertions
	OtherInformation []OtherInformation
}

// ObjectRelationship links two object items or groups.
type ObjectRelationship struct {
	LinkageMemberIDs      []string
	LinkageDirectionality *string
	LinkageType           *string
	LinkageAssertionID    *string
	OtherInformation      []OtherInformation
}
