package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"1024", 1024},
		{"10MiB", 10 * MiB},
		{"10Mi", 10 * MiB},
		{"10mb", 10 * MB},
		{"1Gi", GiB},
		{"1.5Ki", ByteSize(1536)},
		{"0", 0},
		{" 512 Ki ", 512 * KiB},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "10XB", "-5", "10 10"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", in)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{10 * MiB, "10MiB"},
		{GiB, "1GiB"},
		{512, "512B"},
		{2 * KiB, "2KiB"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", uint64(tt.in), got, tt.want)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("10MiB")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if b != 10*MiB {
		t.Errorf("UnmarshalText = %d, want %d", b, 10*MiB)
	}
}
