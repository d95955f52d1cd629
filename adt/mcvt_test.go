// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "testing"

func TestMcvtIndexingSimple(t *testing.T) {
	var c McvtChunk
	for i := range c.Heights {
		c.Heights[i] = float32(i)
	}
	if got := c.GetOuterHeight(0, 0); got != 0 {
		t.Errorf("GetOuterHeight(0,0) = %v, want 0", got)
	}
	if got := c.GetOuterHeight(8, 0); got != 8 {
		t.Errorf("GetOuterHeight(8,0) = %v, want 8", got)
	}
	if got := c.GetInnerHeight(0, 0); got != 9 {
		t.Errorf("GetInnerHeight(0,0) = %v, want 9", got)
	}
}

func TestMcvtIndexingExplicit(t *testing.T) {
	var c McvtChunk
	c.Heights[0] = 100
	c.Heights[8] = 108
	c.Heights[17] = 117
	c.Heights[9] = 209
	c.Heights[16] = 216

	cases := []struct {
		name string
		got  float32
		want float32
	}{
		{"outer(0,0)", c.GetOuterHeight(0, 0), 100},
		{"outer(8,0)", c.GetOuterHeight(8, 0), 108},
		{"outer(0,1)", c.GetOuterHeight(0, 1), 117},
		{"inner(0,0)", c.GetInnerHeight(0, 0), 209},
		{"inner(7,0)", c.GetInnerHeight(7, 0), 216},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestMcvtSettersMatchGetters(t *testing.T) {
	var c McvtChunk
	c.SetOuterHeight(3, 4, 42.5)
	if got := c.GetOuterHeight(3, 4); got != 42.5 {
		t.Errorf("GetOuterHeight(3,4) = %v, want 42.5", got)
	}
	c.SetInnerHeight(2, 5, -17.25)
	if got := c.GetInnerHeight(2, 5); got != -17.25 {
		t.Errorf("GetInnerHeight(2,5) = %v, want -17.25", got)
	}
}

func TestMcvtEncodeDecodeRoundTrip(t *testing.T) {
	var c McvtChunk
	for i := range c.Heights {
		c.Heights[i] = float32(i) * 1.5
	}
	decoded, err := parseMcvtChunk(c.encode())
	if err != nil {
		t.Fatalf("parseMcvtChunk: %v", err)
	}
	if decoded.Heights != c.Heights {
		t.Errorf("round trip mismatch")
	}
}
