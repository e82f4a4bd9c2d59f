// Package catalog implementa el puerto pricing.Catalog contra la API HTTP del
// catálogo de e-commerce.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/application/pricing"
	"github.com/docufact/docufact-api/internal/domain"
)

var _ pricing.Catalog = (*Client)(nil)

// Client cliente HTTP del catálogo externo. Los reintentos de transporte los
// maneja retryablehttp; los timeouts por ítem vienen en el contexto de la capa
// de sourcing. Toda falla se mapea a ErrCatalogUnavailable: el sourcing decide
// el fallback, nunca este cliente.
type Client struct {
	base string
	http *retryablehttp.Client
}

// NewClient construye el cliente. requestTimeout acota cada petición
// individual; los reintentos reusan el presupuesto del contexto.
func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 500 * time.Millisecond
	rc.Logger = nil
	rc.HTTPClient.Timeout = requestTimeout
	return &Client{base: baseURL, http: rc}
}

type productPayload struct {
	ID       string          `json:"id"`
	PriceTTC decimal.Decimal `json:"price_ttc"`
	TaxClass string          `json:"tax_class"`
}

// GetProduct obtiene el precio vigente y la clase de impuesto de un producto.
func (c *Client) GetProduct(ctx context.Context, id string) (*pricing.CatalogProduct, error) {
	var payload productPayload
	if err := c.getJSON(ctx, fmt.Sprintf("%s/products/%s", c.base, id), &payload); err != nil {
		return nil, err
	}
	return &pricing.CatalogProduct{
		ID:       payload.ID,
		PriceTTC: payload.PriceTTC,
		TaxClass: payload.TaxClass,
	}, nil
}

type taxClassPayload struct {
	Class       string          `json:"class"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// TaxRates carga la tasa porcentual de cada clase de impuesto del catálogo.
func (c *Client) TaxRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var payload []taxClassPayload
	if err := c.getJSON(ctx, c.base+"/tax-classes", &payload); err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(payload))
	for _, tc := range payload {
		rates[tc.Class] = tc.RatePercent
	}
	return rates, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s respondió %d", domain.ErrCatalogUnavailable, url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decodificar respuesta: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}
