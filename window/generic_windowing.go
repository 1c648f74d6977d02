/*
* Copyright 2020 Dheeraj R. Reddy.
*
* Copyright 2016 Samsung Research America. All rights reserved.
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* This file has been modified by Dheeraj R. Reddy by being re-written
* in Golang.
 */

package window

import "histodb/tree"

// Windowing lays windows back to back starting from the newest element:
// element 0 is the newest, window lengths follow a LengthsSequence.
type Windowing interface {
	GetSizeOfFirstWindow() int64

	// Return the sizes of the first K windows, where
	// 		first K windows cover <= n elements
	// 		first K+1 windows cover > n elements
	GetWindowsCoveringUpto(n int64) []int64
}

type GenericWindowing struct {
	lengthSeq             LengthsSequence
	windowStartMarkersSet *tree.RbTree[int64, struct{}]
	firstWindowLength     int64
	lastWindowStart       int64
	lastWindowLength      int64
}

func NewGenericWindowing(lengthSeq LengthsSequence) *GenericWindowing {
	genericWindow := &GenericWindowing{
		lengthSeq:             lengthSeq,
		windowStartMarkersSet: tree.NewRbTree[int64, struct{}](),
		firstWindowLength:     lengthSeq.NextWindowLength(),
		lastWindowStart:       0,
		lastWindowLength:      0,
	}
	genericWindow.addWindow(genericWindow.firstWindowLength)
	return genericWindow
}

func NewPowerWindowing(p, q, R, S int64) *GenericWindowing {
	return NewGenericWindowing(NewPowerLengthsSequence(p, q, R, S))
}

func (gwin *GenericWindowing) addWindow(length int64) {
	gwin.lastWindowStart += gwin.lastWindowLength
	gwin.windowStartMarkersSet.Insert(gwin.lastWindowStart, struct{}{})
	gwin.lastWindowLength = length
}

// Add windows until we have at least one window marker larger than target.
func (gwin *GenericWindowing) addWindowsPastMarker(targetMarker int64) {
	for gwin.lastWindowStart <= targetMarker {
		length := gwin.lengthSeq.NextWindowLength()
		if length > gwin.lengthSeq.MaxWindowSize() {
			length = gwin.lengthSeq.MaxWindowSize()
		}
		gwin.addWindow(length)
	}
}

func (gwin *GenericWindowing) GetSizeOfFirstWindow() int64 {
	return gwin.firstWindowLength
}

func (gwin *GenericWindowing) GetWindowsCoveringUpto(n int64) []int64 {
	if n <= 0 {
		return make([]int64, 0)
	}

	gwin.addWindowsPastMarker(n)

	windows := make([]int64, 0, gwin.windowStartMarkersSet.Count())
	prevMarker := int64(0)

	gwin.windowStartMarkersSet.Map(func(currentMarker int64, _ struct{}) bool {
		if currentMarker <= n {
			if currentMarker != 0 {
				windows = append(windows, currentMarker-prevMarker)
				prevMarker = currentMarker
			}
			return false
		}
		return true
	})
	return windows
}
