// Package vesting provides a time-locked token vesting ledger for Go
// applications.
//
// The ledger custodies fungible token balances on behalf of a single owner
// and releases them to beneficiaries according to linear vesting schedules.
// It is a library, not a service. Token movement is delegated to a
// custody.Adapter and state lives in a store.Store.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/vesting"
//	    "github.com/xraph/vesting/custody/memory"
//	    storemem "github.com/xraph/vesting/store/memory"
//	)
//
//	bank := memory.New()
//	l := vesting.New(storemem.New(), bank, vesting.WithOwner("treasury"))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	scheduleID, err := l.CreateVestingSchedule(ctx, "treasury", vesting.CreateParams{
//	    Token:       "usdt",
//	    Beneficiary: "alice",
//	    Start:       time.Now(),
//	    Cliff:       30 * 24 * time.Hour,
//	    Duration:    365 * 24 * time.Hour,
//	    SlicePeriod: 24 * time.Hour,
//	    Amount:      vesting.NewAmount(1_000_000_000),
//	})
//
// # Vesting Curve
//
// Nothing vests before start+cliff. Everything has vested at start+duration.
// In between the vested amount grows linearly, in steps of the slice period:
//
//	vested = total * floor(elapsed / slice) * slice / duration
//
// All arithmetic is on unsigned integers of arbitrary size and rounds down.
//
// # Custody
//
// Creating a schedule pulls its full amount from the owner into custody
// before anything is recorded, so the ledger always holds at least what it
// owes. Releases and emergency withdrawals push value back out. A failed
// push rolls the bookkeeping back.
//
// # Access Control
//
// The owner creates schedules, withdraws funds and transfers ownership.
// Only a schedule's beneficiary may release from it.
//
// # Concurrency
//
// Mutations are serialized by a single ledger-wide lock. Queries share it
// for reading, so they never see a release that is about to be rolled back.
//
// # TypeID
//
// Schedules use TypeID for globally unique, type-safe identifiers:
//
//	vsch_01h2xcejqtf2nbrexx3vqjhp41
//
// TypeIDs are K-sortable. Creation order is also recorded explicitly in
// Schedule.Seq and, per beneficiary, Schedule.Index.
package vesting
