package openfoodfacts

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLookupBarcodeFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/product/4006381333931.json" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"code": "4006381333931",
			"product": {
				"product_name": "Choco Spread",
				"brands": "ChocoCo",
				"image_url": "https://images.example.com/choco.jpg",
				"ingredients_text": "sugar, hazelnuts, milk powder",
				"nutriments": {"nutrition-score-fr": 22}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second)
	product, err := client.LookupBarcode("4006381333931")
	if err != nil {
		t.Fatalf("LookupBarcode() error = %v", err)
	}

	if product.Name != "Choco Spread" {
		t.Fatalf("Name = %q", product.Name)
	}
	if product.Brand != "ChocoCo" {
		t.Fatalf("Brand = %q", product.Brand)
	}
	if product.Ingredients != "sugar, hazelnuts, milk powder" {
		t.Fatalf("Ingredients = %q", product.Ingredients)
	}
	if product.NutritionalScore == nil || *product.NutritionalScore != 22 {
		t.Fatalf("NutritionalScore = %v, want 22", product.NutritionalScore)
	}
}

func TestLookupBarcodeDefaultsUnknownName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 1, "product": {"ingredients_text": "water"}}`))
	}))
	defer srv.Close()

	product, err := NewClient(srv.URL, 2*time.Second).LookupBarcode("12345678")
	if err != nil {
		t.Fatalf("LookupBarcode() error = %v", err)
	}
	if product.Name != "Unknown Product" {
		t.Fatalf("Name = %q, want Unknown Product", product.Name)
	}
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Run("status zero body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		}))
		defer srv.Close()

		if _, err := NewClient(srv.URL, 2*time.Second).LookupBarcode("00000000"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("http 404", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		if _, err := NewClient(srv.URL, 2*time.Second).LookupBarcode("00000000"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestLookupBarcodeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 50*time.Millisecond).LookupBarcode("12345678"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestLookupBarcodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 2*time.Second).LookupBarcode("12345678")
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want generic upstream error", err)
	}
}
