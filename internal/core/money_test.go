package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100", 10000, false},
		{"100.50", 10050, false},
		{"100,50", 10050, false},
		{"0.01", 1, false},
		{".5", 50, false},
		{"12.3", 1230, false},
		{"12.345", 1235, false}, // half-up on the third decimal
		{"12.344", 1234, false},
		{" 80 ", 8000, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"92233720368547759", 0, true}, // would overflow int64 cents
	}

	for _, tt := range tests {
		got, err := ParseDecimalToCents(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecimalToCents(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 10000}
	b := Money{Cents: 4000}
	if a.Add(b).Cents != 14000 {
		t.Errorf("Add = %d", a.Add(b).Cents)
	}
	if a.Sub(b).Cents != 6000 {
		t.Errorf("Sub = %d", a.Sub(b).Cents)
	}
	if a.Reais() != 100.0 {
		t.Errorf("Reais = %v", a.Reais())
	}
}
