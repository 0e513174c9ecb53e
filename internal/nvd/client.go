package nvd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://services.nvd.nist.gov/rest/json"

// IDPrefix is the canonical CVE identifier prefix.
const IDPrefix = "CVE-"

// ErrNotFound signals that an identifier lookup returned no record.
var ErrNotFound = errors.New("CVE not found")

// Client queries the NVD JSON 1.0 REST API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    defaultBaseURL,
	}
}

// NormalizeID prefixes a bare identifier suffix with "CVE-".
func NormalizeID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !strings.HasPrefix(id, IDPrefix) {
		id = IDPrefix + id
	}
	return id
}

type cveResponse struct {
	Result struct {
		CVEItems []cveItem `json:"CVE_Items"`
	} `json:"result"`
}

type cveItem struct {
	CVE struct {
		Meta struct {
			ID string `json:"ID"`
		} `json:"CVE_data_meta"`
		Description struct {
			Data []struct {
				Value string `json:"value"`
			} `json:"description_data"`
		} `json:"description"`
	} `json:"cve"`
	Impact struct {
		BaseMetricV3 struct {
			CVSSV3 struct {
				BaseSeverity string  `json:"baseSeverity"`
				BaseScore    float64 `json:"baseScore"`
			} `json:"cvssV3"`
		} `json:"baseMetricV3"`
	} `json:"impact"`
	PublishedDate string `json:"publishedDate"`
}

func (it cveItem) toRecord() Record {
	rec := Record{
		ID:        it.CVE.Meta.ID,
		Severity:  it.Impact.BaseMetricV3.CVSSV3.BaseSeverity,
		Score:     it.Impact.BaseMetricV3.CVSSV3.BaseScore,
		Published: it.PublishedDate,
	}
	if len(it.CVE.Description.Data) > 0 {
		rec.Description = it.CVE.Description.Data[0].Value
	}
	return rec
}

// GetByID fetches a single record by its CVE identifier.
func (c *Client) GetByID(ctx context.Context, id string) (Record, error) {
	resp, err := c.get(ctx, c.BaseURL+"/cve/1.0/"+url.PathEscape(id))
	if err != nil {
		return Record{}, err
	}
	if len(resp.Result.CVEItems) == 0 {
		return Record{}, ErrNotFound
	}
	return resp.Result.CVEItems[0].toRecord(), nil
}

// SearchByKeyword fetches all records matching a free-text keyword.
// An empty result list is a valid outcome, not an error.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string) ([]Record, error) {
	params := url.Values{}
	params.Set("keyword", keyword)

	resp, err := c.get(ctx, c.BaseURL+"/cves/1.0?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return toRecords(resp.Result.CVEItems), nil
}

// GetByDateRange fetches up to limit records published between start and end.
func (c *Client) GetByDateRange(ctx context.Context, start, end time.Time, limit int) ([]Record, error) {
	params := url.Values{}
	params.Set("resultsPerPage", strconv.Itoa(limit))
	params.Set("startIndex", "0")
	params.Set("pubStartDate", formatTimestamp(start))
	params.Set("pubEndDate", formatTimestamp(end))

	resp, err := c.get(ctx, c.BaseURL+"/cves/1.0?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return toRecords(resp.Result.CVEItems), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*cveResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create NVD request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NVD API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NVD API returned status: %s", resp.Status)
	}

	var parsed cveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode NVD response: %w", err)
	}
	return &parsed, nil
}

func toRecords(items []cveItem) []Record {
	var records []Record
	for _, it := range items {
		records = append(records, it.toRecord())
	}
	return records
}

// formatTimestamp serializes a bound for the publish-date query. The API
// requires this exact literal layout, millisecond field and timezone suffix
// included.
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s:%03d UTC-00:00", t.Format("2006-01-02T15:04:05"), t.Nanosecond()/1e6)
}
