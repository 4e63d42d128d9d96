package screen

import "testing"

func TestParseRandr(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Size
		ok     bool
	}{
		{
			name: "xrandr connected",
			output: "Screen 0: minimum 8 x 8, current 4480 x 1440, maximum 32767 x 32767\n" +
				"HDMI-1 connected primary 2560x1440+0+0 (normal left inverted right x axis y axis) 597mm x 336mm\n" +
				"   2560x1440     59.95*+\n" +
				"DP-1 connected 1920x1080+2560+0 (normal left inverted right x axis y axis) 527mm x 296mm\n",
			want: Size{Width: 2560, Height: 1440},
			ok:   true,
		},
		{
			name: "wlr-randr current mode",
			output: "eDP-1 \"Sharp Corporation 0x1453 (eDP-1)\"\n" +
				"  Enabled: yes\n" +
				"  Modes:\n" +
				"    1920x1200 px, 59.950001 Hz (preferred)\n" +
				"    2880x1800 px, 60.000000 Hz (preferred, current)\n",
			want: Size{Width: 2880, Height: 1800},
			ok:   true,
		},
		{
			name:   "disconnected only",
			output: "VGA-1 disconnected (normal left inverted right x axis y axis)\n",
		},
		{
			name:   "empty",
			output: "",
		},
	}

	for _, tc := range tests {
		got, ok := ParseRandr(tc.output)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: ParseRandr()=%v,%v, want %v,%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseModeToken(t *testing.T) {
	valid := map[string]Size{
		"1920x1080":        {Width: 1920, Height: 1080},
		"1920x1080+0+0":    {Width: 1920, Height: 1080},
		"1280x720,":        {Width: 1280, Height: 720},
		"3840x2160+1920+0": {Width: 3840, Height: 2160},
	}
	for token, want := range valid {
		got, ok := parseModeToken(token)
		if !ok || got != want {
			t.Fatalf("parseModeToken(%q)=%v,%v, want %v,true", token, got, ok, want)
		}
	}

	for _, token := range []string{"x", "0x1453", "axis", "8", "x1080", "12x", "(normal"} {
		if got, ok := parseModeToken(token); ok {
			t.Fatalf("parseModeToken(%q)=%v, want no match", token, got)
		}
	}
}
