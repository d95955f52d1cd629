// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "math"

func float32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }

func float32Bits(v float32) uint32 { return math.Float32bits(v) }
