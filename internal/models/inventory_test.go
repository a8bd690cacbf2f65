package models

import (
	"encoding/json"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestRestockNeeded(t *testing.T) {
	cases := []struct {
		name      string
		actual    *float64
		threshold *float64
		want      bool
	}{
		{"below threshold", f(2), f(5), true},
		{"at threshold", f(5), f(5), false},
		{"above threshold", f(8), f(5), false},
		{"no threshold", f(2), nil, false},
		{"no actual", nil, f(5), false},
		{"neither", nil, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RestockNeeded(tc.actual, tc.threshold); got != tc.want {
				t.Fatalf("RestockNeeded(%v, %v) = %v, want %v", tc.actual, tc.threshold, got, tc.want)
			}
		})
	}
}

func TestUnitBatch_SingleObject(t *testing.T) {
	var batch UnitBatch
	if err := json.Unmarshal([]byte(`{"name":"kilogram","abbreviation":"kg"}`), &batch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(batch) != 1 || batch[0].Name != "kilogram" {
		t.Fatalf("expected one unit named kilogram, got %+v", batch)
	}
}

func TestUnitBatch_List(t *testing.T) {
	var batch UnitBatch
	data := `[{"name":"kilogram","abbreviation":"kg"},{"name":"liter","abbreviation":"L"}]`
	if err := json.Unmarshal([]byte(data), &batch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(batch) != 2 || batch[1].Abbreviation != "L" {
		t.Fatalf("expected two units, got %+v", batch)
	}
}

func TestIngredientBatch_SingleObject(t *testing.T) {
	var batch IngredientBatch
	data := `{"name":"flour","category_name":"dry goods","unit_name":"kilogram","threshold":2.5}`
	if err := json.Unmarshal([]byte(data), &batch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(batch) != 1 || batch[0].Threshold == nil || *batch[0].Threshold != 2.5 {
		t.Fatalf("expected one ingredient with threshold 2.5, got %+v", batch)
	}
}

func TestPaymentMethodValidation(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodWechat} {
		if !m.IsValid() {
			t.Errorf("expected %q to be valid", m)
		}
	}
	if PaymentMethod("bitcoin").IsValid() {
		t.Error("expected bitcoin to be invalid")
	}
}

func TestDineOptionValidation(t *testing.T) {
	if !DineOptionTakeOut.IsValid() || !DineOptionDineIn.IsValid() {
		t.Error("expected built-in dine options to be valid")
	}
	if DineOption("delivery").IsValid() {
		t.Error("expected delivery to be invalid")
	}
}
