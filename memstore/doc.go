// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package memstore is an in-memory implementation of voting.Store and
// auth.AccountStore, used by tests and by DATABASE_TYPE=memory.
//
// RunInTx holds the store lock for the whole callback and swaps in the
// staged state only when the callback succeeds. FailNext injects a one-shot
// error into a named operation.
package memstore
