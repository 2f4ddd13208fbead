package openfoodfacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	// ErrNotFound: the barcode is unknown to the product database.
	ErrNotFound = errors.New("product not found in Open Food Facts")
	// ErrTimeout: the lookup did not complete within the configured bound.
	ErrTimeout = errors.New("Open Food Facts request timed out")
)

// Product is the subset of the Open Food Facts payload the resolver consumes.
type Product struct {
	Name             string
	Brand            string
	ImageURL         string
	Ingredients      string
	NutritionalScore *float64
}

type lookupResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product struct {
		ProductName     string  `json:"product_name"`
		Brands          string  `json:"brands"`
		ImageURL        string  `json:"image_url"`
		IngredientsText string  `json:"ingredients_text"`
		Nutriments      struct {
			NutritionScore *float64 `json:"nutrition-score-fr"`
		} `json:"nutriments"`
	} `json:"product"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// LookupBarcode fetches a product by barcode. A timeout is reported as
// ErrTimeout, distinct from ErrNotFound (status 0 in the response body).
func (c *Client) LookupBarcode(barcode string) (*Product, error) {
	url := fmt.Sprintf("%s/product/%s.json", c.baseURL, barcode)

	resp, err := c.http.Get(url)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("Open Food Facts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Food Facts returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode Open Food Facts response: %w", err)
	}

	if body.Status != 1 {
		return nil, ErrNotFound
	}

	name := body.Product.ProductName
	if name == "" {
		name = "Unknown Product"
	}

	return &Product{
		Name:             name,
		Brand:            body.Product.Brands,
		ImageURL:         body.Product.ImageURL,
		Ingredients:      body.Product.IngredientsText,
		NutritionalScore: body.Product.Nutriments.NutritionScore,
	}, nil
}
