package vesting

import (
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Re-export common types for convenience so users don't have to import the
// types and schedule packages.

// Amount is re-exported from types package.
type Amount = types.Amount

// TokenAmount is re-exported from types package.
type TokenAmount = types.TokenAmount

// Schedule is re-exported from schedule package.
type Schedule = schedule.Schedule

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	ZeroAmount  = types.ZeroAmount
	ParseAmount = types.ParseAmount
	Sum         = types.Sum
)
