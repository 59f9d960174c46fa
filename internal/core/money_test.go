package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0.01", 1, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{"", 0, true},
		{"-3.50", 0, true},
		{"+3.50", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"1.2.3", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDecimalToCents(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMoneyValue(t *testing.T) {
	if got := (Money{Cents: 1234}).Value(); got != 12.34 {
		t.Errorf("Value() = %v, want 12.34", got)
	}
	if got := FromValue(12.345); got.Cents != 1235 {
		t.Errorf("FromValue(12.345) = %d cents, want 1235", got.Cents)
	}
}
