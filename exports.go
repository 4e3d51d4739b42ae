package bookkeeper

import "github.com/xraph/bookkeeper/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	TRY        = types.TRY
	USD        = types.USD
	EUR        = types.EUR
	Zero       = types.Zero
	Sum        = types.Sum
	ParseMoney = types.ParseMoney
)

// Re-export Date constructors
var (
	NewDate   = types.NewDate
	ParseDate = types.ParseDate
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
