package services

import (
	"errors"
	"strings"
	"testing"

	"merchant-service/internal/domain/entities"
)

func TestValidateMerchantRequest(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name      string
		mutate    func(*entities.MerchantRequest)
		wantField string
		wantMsg   string
	}{
		{"valid", func(*entities.MerchantRequest) {}, "", ""},
		{"optional fields absent", func(r *entities.MerchantRequest) { r.BusinessName, r.Address = nil, nil }, "", ""},
		{"blank name", func(r *entities.MerchantRequest) { r.Name = " \t" }, "name", "name is required"},
		{"long name", func(r *entities.MerchantRequest) { r.Name = strings.Repeat("n", 201) }, "name", "name must be at most 200 characters"},
		{"missing email", func(r *entities.MerchantRequest) { r.Email = "" }, "email", "email is required"},
		{"bad email", func(r *entities.MerchantRequest) { r.Email = "acme.example" }, "email", "invalid email"},
		{"long email", func(r *entities.MerchantRequest) {
			r.Email = strings.Repeat("a", 200) + "@" + strings.Repeat("b", 164) + ".com"
		}, "email", "email must be at most 254 characters"},
		{"missing phone", func(r *entities.MerchantRequest) { r.Phone = "" }, "phone", "phone is required"},
		{"letters in phone", func(r *entities.MerchantRequest) { r.Phone = "555-CALL-NOW" }, "phone", "invalid phone number"},
		{"short phone", func(r *entities.MerchantRequest) { r.Phone = "12345" }, "phone", "invalid phone number"},
		{"long business name", func(r *entities.MerchantRequest) { r.BusinessName = strPtr(strings.Repeat("b", 256)) }, "businessName", "businessName must be at most 255 characters"},
		{"long address", func(r *entities.MerchantRequest) { r.Address = strPtr(strings.Repeat("a", 501)) }, "address", "address must be at most 500 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.ValidateMerchantRequest(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *entities.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("fields = %+v, want exactly one", verr.Fields)
			}
			if verr.Fields[0].Field != tt.wantField || verr.Fields[0].Message != tt.wantMsg {
				t.Errorf("got %+v, want {%s %s}", verr.Fields[0], tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestValidateMerchantRequest_ReportsEveryField(t *testing.T) {
	err := NewRequestValidator().ValidateMerchantRequest(entities.MerchantRequest{})

	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	got := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		got = append(got, f.Field)
	}
	if strings.Join(got, ",") != "name,email,phone" {
		t.Errorf("fields = %v, want name,email,phone", got)
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range entities.MerchantStatuses {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%s) = %v", s, err)
		}
	}
	if err := ValidateStatus("Active"); err == nil {
		t.Error("ValidateStatus(Active) accepted a non-exact match")
	}
}
