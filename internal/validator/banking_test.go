package validator

import "testing"

func TestValidIBAN(t *testing.T) {
	tests := []struct {
		name string
		iban string
		want bool
	}{
		{"germany", "DE89370400440532013000", true},
		{"germany with spaces", "de89 3704 0044 0532 0130 00", true},
		{"united kingdom", "GB82WEST12345698765432", true},
		{"portugal", "PT50000201231234567890154", true},
		{"norway shortest", "NO9386011117947", true},
		{"bad checksum", "DE89370400440532013001", false},
		{"too short", "DE8937040044", false},
		{"no country", "1289370400440532013000", false},
		{"symbols", "DE89-3704-0044-0532-0130-00", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidIBAN(tt.iban); got != tt.want {
				t.Errorf("ValidIBAN(%q) = %v, want %v", tt.iban, got, tt.want)
			}
		})
	}
}

func TestValidBIC(t *testing.T) {
	tests := []struct {
		bic  string
		want bool
	}{
		{"DEUTDEFF", true},
		{"DEUTDEFF500", true},
		{"deutdeff", true},
		{"DEUTDEF", false},
		{"DEUTDEFF50", false},
		{"1234DEFF", false},
	}

	for _, tt := range tests {
		t.Run(tt.bic, func(t *testing.T) {
			if got := ValidBIC(tt.bic); got != tt.want {
				t.Errorf("ValidBIC(%q) = %v, want %v", tt.bic, got, tt.want)
			}
		})
	}
}

func TestIBANLast4(t *testing.T) {
	if got := IBANLast4("de89 3704 0044 0532 0130 00"); got != "3000" {
		t.Errorf("IBANLast4 = %s", got)
	}
}
