package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

func TestValidatePreppedRecipe(t *testing.T) {
	hours := func(v float64) *float64 { return &v }

	cases := []struct {
		name    string
		prep    *float64
		lines   []models.PreppedItemIngredientRequest
		wantErr bool
	}{
		{
			"valid recipe",
			hours(2.5),
			[]models.PreppedItemIngredientRequest{{IngredientName: "milk", UnitName: "liter", Quantity: 1.5}},
			false,
		},
		{"zero prep time", hours(0), nil, true},
		{"negative prep time", hours(-1), nil, true},
		{"nil prep time is unchanged", nil, nil, false},
		{
			"zero quantity",
			hours(1),
			[]models.PreppedItemIngredientRequest{{IngredientName: "milk", UnitName: "liter", Quantity: 0}},
			true,
		},
		{
			"negative quantity",
			hours(1),
			[]models.PreppedItemIngredientRequest{{IngredientName: "milk", UnitName: "liter", Quantity: -2}},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := validatePreppedRecipe(tc.prep, tc.lines)
			if tc.wantErr && msg == "" {
				t.Fatal("expected a validation message")
			}
			if !tc.wantErr && msg != "" {
				t.Fatalf("unexpected validation message: %s", msg)
			}
		})
	}
}

// the create handler rejects bad numeric fields before touching any store
func preppedCreateRequest(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	setGinTestMode()

	h := &Handler{}
	r := gin.New()
	r.POST("/prepped-items", h.CreatePreppedItem)

	req := httptest.NewRequest(http.MethodPost, "/prepped-items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePreppedItem_RejectsNonPositivePrepTime(t *testing.T) {
	body := `{"name":"custard base","prep_time_hours":-2,
		"ingredients":[{"ingredient_name":"milk","unit_name":"liter","quantity":1}]}`
	w := preppedCreateRequest(t, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive prep time, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "prep_time_hours") {
		t.Fatalf("expected prep_time_hours message, got %s", w.Body.String())
	}
}

func TestCreatePreppedItem_RejectsNonPositiveQuantity(t *testing.T) {
	body := `{"name":"custard base","prep_time_hours":2,
		"ingredients":[{"ingredient_name":"milk","unit_name":"liter","quantity":-1}]}`
	w := preppedCreateRequest(t, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive quantity, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "quantity") {
		t.Fatalf("expected quantity message, got %s", w.Body.String())
	}
}

func TestCreatePreppedItem_RejectsEmptyRecipe(t *testing.T) {
	body := `{"name":"custard base","prep_time_hours":2,"ingredients":[]}`
	w := preppedCreateRequest(t, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty recipe, got %d", w.Code)
	}
}
