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

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownSequence = errors.New("unknown length sequence")

type LengthsSequence interface {
	NextWindowLength() int64
	MaxWindowSize() int64
	Equals(other LengthsSequence) bool
}

// 1, base, base^2, ..., base^k, ...
type ExponentialLengthsSequence struct {
	next float64
	base float64
}

func NewExponentialLengthsSequence(base float64) *ExponentialLengthsSequence {
	return &ExponentialLengthsSequence{
		next: 1.0,
		base: base,
	}
}

func (seq *ExponentialLengthsSequence) NextWindowLength() int64 {
	prev := seq.next
	seq.next *= seq.base
	return int64(math.Ceil(prev))
}

func (seq *ExponentialLengthsSequence) MaxWindowSize() int64 {
	return math.MaxUint32
}

func (seq *ExponentialLengthsSequence) Equals(other LengthsSequence) bool {
	switch exp := other.(type) {
	case *ExponentialLengthsSequence:
		return seq.base == exp.base
	default:
		return false
	}
}

// R * k^(p-1) windows of length S * k^q, for k = 1, 2, ...
type PowerLengthsSequence struct {
	p    int64
	q    int64
	R    int64
	S    int64
	k    int64
	curr int64
}

func NewPowerLengthsSequence(p, q, R, S int64) *PowerLengthsSequence {
	return &PowerLengthsSequence{
		p:    p,
		q:    q,
		R:    R,
		S:    S,
		k:    1,
		curr: 0,
	}
}

func (seq *PowerLengthsSequence) NextWindowLength() int64 {
	count := seq.R * int64Pow(seq.k, seq.p-1)
	if count <= seq.curr {
		seq.k++
		seq.curr = 0
	}
	seq.curr++
	return seq.S * int64Pow(seq.k, seq.q)
}

func (seq *PowerLengthsSequence) MaxWindowSize() int64 {
	return math.MaxUint32
}

func (seq *PowerLengthsSequence) Equals(other LengthsSequence) bool {
	switch power := other.(type) {
	case *PowerLengthsSequence:
		return seq.p == power.p &&
			seq.q == power.q &&
			seq.R == power.R &&
			seq.S == power.S
	default:
		return false
	}
}

func int64Pow(base, exp int64) int64 {
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

// Config describes a lengths sequence in a config file.
type Config struct {
	Kind string  `yaml:"kind"`
	Base float64 `yaml:"base"`
	P    int64   `yaml:"p"`
	Q    int64   `yaml:"q"`
	R    int64   `yaml:"r"`
	S    int64   `yaml:"s"`
}

const (
	Exponential = "exponential"
	Power       = "power"
)

func (config Config) Validate() error {
	switch config.Kind {
	case Exponential:
		if !(config.Base > 1) {
			return fmt.Errorf("exponential base must be > 1, got %v", config.Base)
		}
	case Power:
		if config.P < 1 || config.Q < 0 || config.R < 1 || config.S < 1 {
			return errors.New("power sequence needs p >= 1, q >= 0, r >= 1, s >= 1")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSequence, config.Kind)
	}
	return nil
}

// Sequence returns a fresh sequence positioned at its first window.
func (config Config) Sequence() (LengthsSequence, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Kind == Exponential {
		return NewExponentialLengthsSequence(config.Base), nil
	}
	return NewPowerLengthsSequence(config.P, config.Q, config.R, config.S), nil
}
