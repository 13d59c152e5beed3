package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "test@example.com", false},
		{"valid email with subdomain", "user@sub.domain.com", false},
		{"invalid email no @", "testexample.com", true},
		{"invalid email no domain", "test@", true},
		{"invalid email no user", "@example.com", true},
		{"empty email", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantErr bool
	}{
		{"valid password", "password123", false},
		{"valid password long", "verylongpassword1234567890", false},
		{"short password", "pass", true},
		{"empty password", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pwd)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantFields []string
	}{
		{"valid registration", "test@example.com", "password123", nil},
		{"invalid email", "invalid", "password123", []string{"email"}},
		{"short password", "test@example.com", "123", []string{"password"}},
		{"both invalid", "invalid", "123", []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ValidateRegistration(tt.email, tt.password)
			if len(fe) != len(tt.wantFields) {
				t.Fatalf("ValidateRegistration() = %v, want fields %v", fe, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fe[f]; !ok {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}

type profileForm struct {
	FirstName  string `form:"first_name" validate:"required,max=100"`
	Phone      string `form:"phone" validate:"omitempty,phone"`
	Profession string `form:"profession" validate:"required,oneof=pharmacist pharmacy_technician pharmacy_assistant"`
	License    string `form:"license_number" validate:"omitempty,license"`
}

func TestValidateStructUsesFormNames(t *testing.T) {
	err := Validate(profileForm{Phone: "abc", Profession: "surgeon", License: "no spaces"})
	fe, ok := err.(FieldErrors)
	if !ok {
		t.Fatalf("expected FieldErrors, got %T (%v)", err, err)
	}

	for _, field := range []string{"first_name", "phone", "profession", "license_number"} {
		if _, ok := fe[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, fe)
		}
	}

	if err := Validate(profileForm{FirstName: "Ana", Phone: "+351 912 345 678", Profession: "pharmacist", License: "PH-123"}); err != nil {
		t.Errorf("expected valid form, got %v", err)
	}
}
