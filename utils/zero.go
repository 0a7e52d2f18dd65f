// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

// Zero returns the zero value of [T].
func Zero[T any]() T {
	return *new(T)
}
