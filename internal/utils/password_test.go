package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret!1", 4) // minimal cost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "Secret!1") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestPasswordPolicyViolations(t *testing.T) {
	cases := []struct {
		password string
		want     int
	}{
		{"Valid!x", 0},
		{"NoDigitsFine!", 0}, // digits are not required
		{"short", 3},         // too short, no upper, no symbol
		{"alllower!", 1},     // no upper
		{"ALLUPPER!", 1},     // no lower
		{"NoSymbol1", 1},     // no non-alphanumeric
		{"", 4},              // everything missing
	}
	for _, tc := range cases {
		if got := PasswordPolicyViolations(tc.password); len(got) != tc.want {
			t.Errorf("PasswordPolicyViolations(%q) = %v (%d), want %d violations",
				tc.password, got, len(got), tc.want)
		}
	}
}
