package netaddr

import "testing"

func TestValidIPv4(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"192.168.1.20", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"192.168.001.020", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"a.b.c.d", false},
		{" 1.2.3.4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidIPv4(tt.in); got != tt.want {
			t.Errorf("ValidIPv4(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidPort(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"32400", true},
		{"1", true},
		{"65535", true},
		{"0", false},
		{"65536", false},
		{"-1", false},
		{"http", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPort(tt.in); got != tt.want {
			t.Errorf("ValidPort(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	if got := BaseURL("192.168.1.20", "32400"); got != "http://192.168.1.20:32400" {
		t.Fatalf("unexpected base url %q", got)
	}
}
