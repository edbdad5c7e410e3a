package adc

import "testing"

func TestVoltsToRaw(t *testing.T) {
	cases := []struct {
		volts float64
		want  int
	}{
		{0, 0},
		{5, 1023},
		{2.5, 512},
		{2.15, 440},
		{-0.01, 0},
		{-1, 0},
		{5.02, 1023},
		{5.1, 1023},
		{4.999, 1023},
	}
	for _, c := range cases {
		if got := VoltsToRaw(c.volts, 5, 1023); got != c.want {
			t.Errorf("VoltsToRaw(%v): expected %d, got %d", c.volts, c.want, got)
		}
	}
}

func TestVoltsToRawOtherScale(t *testing.T) {
	// 12V battery through a 15V full-scale divider on a 12-bit scale.
	if got := VoltsToRaw(11.8, 15, 4095); got != 3221 {
		t.Errorf("expected 3221, got %d", got)
	}
	if got := VoltsToRaw(15.3, 15, 4095); got != 4095 {
		t.Errorf("expected saturation at 4095, got %d", got)
	}
}
