package models

import "testing"

func TestCartItemSubtotal(t *testing.T) {
	cases := []struct {
		name string
		item CartItemDetail
		want float64
	}{
		{
			"no modifiers",
			CartItemDetail{ProductPrice: 4.25, Quantity: 3},
			12.75,
		},
		{
			"modifier price added per unit",
			CartItemDetail{
				ProductPrice: 5.00,
				Quantity:     2,
				Modifiers:    []CartModifier{{ModifierID: 1, Name: "extra boba", Price: 0.50}},
			},
			11.00,
		},
		{
			"multiple modifiers",
			CartItemDetail{
				ProductPrice: 6.00,
				Quantity:     1,
				Modifiers: []CartModifier{
					{ModifierID: 1, Price: 0.75},
					{ModifierID: 2, Price: 0.25},
				},
			},
			7.00,
		},
		{
			"free modifier",
			CartItemDetail{
				ProductPrice: 3.50,
				Quantity:     2,
				Modifiers:    []CartModifier{{ModifierID: 9, Name: "less ice", Price: 0}},
			},
			7.00,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.Subtotal(); got != tc.want {
				t.Fatalf("Subtotal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCartTotalSumsLineSubtotals(t *testing.T) {
	cart := CartResponse{Items: []CartItemDetail{
		{ItemSubtotal: 11.00},
		{ItemSubtotal: 4.25},
	}}
	if got := cart.Total(); got != 15.25 {
		t.Fatalf("Total() = %v, want 15.25", got)
	}

	empty := CartResponse{Items: []CartItemDetail{}}
	if got := empty.Total(); got != 0 {
		t.Fatalf("Total() of empty cart = %v, want 0", got)
	}
}
