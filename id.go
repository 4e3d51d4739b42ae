package bookkeeper

import "github.com/xraph/bookkeeper/id"

// ID is the primary identifier type for all bookkeeping entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
