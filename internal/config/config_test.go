package config

import (
	"errors"
	"testing"
)

// TestParseHexColor_ValidInputs covers case handling, the optional hash
// prefix and byte ordering.
func TestParseHexColor_ValidInputs(t *testing.T) {
	testCases := []struct {
		name                string
		input               string
		wantR, wantG, wantB uint8
	}{
		{name: "uppercase, no hash", input: "FF0000", wantR: 255},
		{name: "lowercase, with hash", input: "#ff0000", wantR: 255},
		{name: "mixed case", input: "Ff00fF", wantR: 255, wantB: 255},
		{name: "black", input: "000000"},
		{name: "white", input: "#FFFFFF", wantR: 255, wantG: 255, wantB: 255},
		{name: "brand yellow", input: "#F8B31D", wantR: 248, wantG: 179, wantB: 29},
		{name: "distinct channels", input: "010203", wantR: 1, wantG: 2, wantB: 3},
		{name: "distinct high channels", input: "AABBCC", wantR: 170, wantG: 187, wantB: 204},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b, err := ParseHexColor(tc.input)
			if err != nil {
				t.Fatalf("ParseHexColor(%q) returned error: %v", tc.input, err)
			}
			if r != tc.wantR || g != tc.wantG || b != tc.wantB {
				t.Errorf("ParseHexColor(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tc.input, r, g, b, tc.wantR, tc.wantG, tc.wantB)
			}
		})
	}
}

func TestParseHexColor_InvalidInputs(t *testing.T) {
	inputs := []string{
		"", "#", "FFF", "#FFF", "FFFFFFF", "GGGGGG", "FF00GG",
		"FF 000", "FF#000", "##FF0000", "FF0000\n", "#FFFFFFFFFFFFFF",
	}

	for _, in := range inputs {
		_, _, _, err := ParseHexColor(in)
		if err == nil {
			t.Errorf("ParseHexColor(%q) expected error, got nil", in)
			continue
		}
		if !errors.Is(err, ErrInvalidHexColor) {
			t.Errorf("ParseHexColor(%q) error %v does not wrap ErrInvalidHexColor", in, err)
		}
	}
}

func ptrUint8(v uint8) *uint8 { return &v }
func ptrInt(v int) *int       { return &v }

func TestRuntimeConfig_GetTextColor(t *testing.T) {
	testCases := []struct {
		name                string
		config              *RuntimeConfig
		wantR, wantG, wantB uint8
	}{
		{
			name:   "nil receiver",
			config: nil,
			wantR:  TextColorR, wantG: TextColorG, wantB: TextColorB,
		},
		{
			name:   "partial override ignored",
			config: &RuntimeConfig{TextColorR: ptrUint8(1)},
			wantR:  TextColorR, wantG: TextColorG, wantB: TextColorB,
		},
		{
			name: "full override",
			config: &RuntimeConfig{
				TextColorR: ptrUint8(0),
				TextColorG: ptrUint8(0),
				TextColorB: ptrUint8(255),
			},
			wantB: 255,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b := tc.config.GetTextColor()
			if r != tc.wantR || g != tc.wantG || b != tc.wantB {
				t.Errorf("GetTextColor() = (%d, %d, %d), want (%d, %d, %d)",
					r, g, b, tc.wantR, tc.wantG, tc.wantB)
			}
		})
	}
}

func TestRuntimeConfig_SetTextColorHex(t *testing.T) {
	c := &RuntimeConfig{}
	if err := c.SetTextColorHex("#102030"); err != nil {
		t.Fatalf("SetTextColorHex: %v", err)
	}
	if r, g, b := c.GetTextColor(); r != 0x10 || g != 0x20 || b != 0x30 {
		t.Errorf("GetTextColor() = (%d, %d, %d), want (16, 32, 48)", r, g, b)
	}

	if err := c.SetTextColorHex("nope"); err == nil {
		t.Error("expected error for invalid colour")
	}
	// A failed parse leaves the previous override in place.
	if r, _, _ := c.GetTextColor(); r != 0x10 {
		t.Errorf("override lost after failed parse: r=%d", r)
	}
}

func TestRuntimeConfig_Defaults(t *testing.T) {
	var c *RuntimeConfig

	if got := c.GetScale(); got != PatchSize {
		t.Errorf("GetScale() = %d, want %d", got, PatchSize)
	}
	if got := c.GetInputSize(); got != InputSize {
		t.Errorf("GetInputSize() = %d, want %d", got, InputSize)
	}
	if got := c.GetEmbedDim(); got != EmbedDim {
		t.Errorf("GetEmbedDim() = %d, want %d", got, EmbedDim)
	}
	if got := c.GetQuality(); got != DefaultQuality {
		t.Errorf("GetQuality() = %d, want %d", got, DefaultQuality)
	}
	if got := c.GetGridSize(); got != GridSize {
		t.Errorf("GetGridSize() = %d, want %d", got, GridSize)
	}
}

func TestRuntimeConfig_Overrides(t *testing.T) {
	c := &RuntimeConfig{
		Scale:     ptrInt(8),
		InputSize: ptrInt(224),
		EmbedDim:  ptrInt(768),
		Quality:   ptrInt(250),
	}

	if got := c.GetScale(); got != 8 {
		t.Errorf("GetScale() = %d, want 8", got)
	}
	if got := c.GetGridSize(); got != 16 {
		t.Errorf("GetGridSize() = %d, want 16", got)
	}
	if got := c.GetEmbedDim(); got != 768 {
		t.Errorf("GetEmbedDim() = %d, want 768", got)
	}
	if got := c.GetQuality(); got != 100 {
		t.Errorf("GetQuality() = %d, want 100 (clamped)", got)
	}

	c.Scale = ptrInt(0)
	if got := c.GetScale(); got != PatchSize {
		t.Errorf("GetScale() with zero override = %d, want %d", got, PatchSize)
	}
}
