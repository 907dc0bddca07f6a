// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import "strconv"

// WaitCondition is what a Future waits for.
//
// High and Low are level conditions: they are satisfied by the current level
// of the pin, or by a transition to that level. The edge conditions are only
// satisfied by a transition observed after the wait was registered.
type WaitCondition uint8

const (
	High WaitCondition = iota
	Low
	RisingEdge
	FallingEdge
	AnyEdge
)

const conditionName = "HighLowRisingEdgeFallingEdgeAnyEdge"

var conditionIndex = [...]uint8{0, 4, 7, 17, 28, 35}

func (c WaitCondition) String() string {
	if c > AnyEdge {
		return "WaitCondition(" + strconv.Itoa(int(c)) + ")"
	}
	return conditionName[conditionIndex[c]:conditionIndex[c+1]]
}

// IsLevel returns true for High and Low.
func (c WaitCondition) IsLevel() bool {
	return c == High || c == Low
}

// satisfiedBy reports whether a level condition already holds for a pin at
// level high. Edge conditions never hold.
func (c WaitCondition) satisfiedBy(high bool) bool {
	switch c {
	case High:
		return high
	case Low:
		return !high
	default:
		return false
	}
}

// matches reports whether a pin going from wasHigh to isHigh resolves the
// condition.
func (c WaitCondition) matches(wasHigh, isHigh bool) bool {
	rising := !wasHigh && isHigh
	falling := wasHigh && !isHigh
	switch c {
	case High, RisingEdge:
		return rising
	case Low, FallingEdge:
		return falling
	case AnyEdge:
		return rising || falling
	default:
		return false
	}
}
