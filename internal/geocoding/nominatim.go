package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jengzang/geopulse-go/internal/models"
)

// DefaultNominatimURL is the public OpenStreetMap instance
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimProvider reverse geocodes through a Nominatim instance,
// honoring its one request per second usage policy
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatimProvider creates a provider for the instance at baseURL
func NewNominatimProvider(baseURL, userAgent string) *NominatimProvider {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "GeoPulse/1.0 (timeline-engine)"
	}
	return &NominatimProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// nominatimResponse represents the JSON response from the reverse endpoint
type nominatimResponse struct {
	PlaceID     int64   `json:"place_id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	Amenity       string `json:"amenity,omitempty"`
	Shop          string `json:"shop,omitempty"`
	Tourism       string `json:"tourism,omitempty"`
	Leisure       string `json:"leisure,omitempty"`
	Building      string `json:"building,omitempty"`
	HouseNumber   string `json:"house_number,omitempty"`
	Road          string `json:"road,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	City          string `json:"city,omitempty"`
	Town          string `json:"town,omitempty"`
	Village       string `json:"village,omitempty"`
	Country       string `json:"country,omitempty"`
}

// Lookup implements Provider
func (p *NominatimProvider) Lookup(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("format", "jsonv2")
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Required by the Nominatim usage policy
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var nr nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return nil, fmt.Errorf("failed to parse nominatim response: %w", err)
	}
	if nr.Error != "" {
		return nil, nil
	}

	name := extractPlaceName(nr)
	if name == "" {
		return nil, nil
	}

	return &models.ResolvedLocation{
		DisplayName: name,
		City:        firstNonEmpty(nr.Address.City, nr.Address.Town, nr.Address.Village),
		Country:     nr.Address.Country,
	}, nil
}

// extractPlaceName gets the most useful place name from a Nominatim response
func extractPlaceName(nr nominatimResponse) string {
	if nr.Name != "" {
		return nr.Name
	}

	addr := nr.Address
	if addr.Building == "yes" {
		addr.Building = ""
	}
	if name := firstNonEmpty(addr.Amenity, addr.Shop, addr.Tourism, addr.Leisure, addr.Building); name != "" {
		return name
	}

	// Street address
	if addr.Road != "" {
		if addr.HouseNumber != "" {
			return addr.HouseNumber + " " + addr.Road
		}
		return addr.Road
	}

	return firstNonEmpty(addr.Neighbourhood, addr.Suburb, addr.City, addr.Town, addr.Village)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
