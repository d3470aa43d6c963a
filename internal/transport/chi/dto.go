package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kailas-cloud/findex/internal/domain"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeDocumentNotFound = "document_not_found"
	codeProviderError    = "embedding_provider_error"
	codeStoreUnavailable = "store_unavailable"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query        string   `json:"query"`
	Mode         string   `json:"mode,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	ContentTypes []string `json:"contentTypes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DateFrom     string   `json:"dateFrom,omitempty"`
	DateTo       string   `json:"dateTo,omitempty"`
	UserID       string   `json:"userId,omitempty"`
}

type searchResultItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	ContentType string         `json:"contentType"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Score       float64        `json:"score"`
	CreatedAt   string         `json:"createdAt,omitempty"`
}

type searchResponse struct {
	Results        []searchResultItem `json:"results"`
	Total          int                `json:"total"`
	Query          string             `json:"query"`
	SearchType     string             `json:"searchType"`
	ResponseTimeMs int64              `json:"responseTimeMs"`
	Suggestions    []string           `json:"suggestions"`
}

type indexRequest struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	ContentType string         `json:"contentType,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type indexResponse struct {
	ID        string `json:"id"`
	Embedded  bool   `json:"embedded"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type batchIndexRequest struct {
	Documents []indexRequest `json:"documents"`
}

type batchItemResult struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type batchIndexResponse struct {
	Items     []batchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type documentResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	ContentType string         `json:"contentType"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Embedded    bool           `json:"embedded"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

type analyticsResponse struct {
	Days              int               `json:"days"`
	TotalSearches     int               `json:"totalSearches"`
	AvgResponseTimeMs float64           `json:"avgResponseTimeMs"`
	UniqueUsers       int               `json:"uniqueUsers"`
	DailyVolume       []dailyVolumeItem `json:"dailyVolume"`
	TopQueries        []queryStatItem   `json:"topQueries"`
	TypePerformance   []typeStatItem    `json:"typePerformance"`
}

type dailyVolumeItem struct {
	Day        string `json:"day"`
	SearchType string `json:"searchType"`
	Count      int    `json:"count"`
}

type queryStatItem struct {
	Query      string  `json:"query"`
	Count      int     `json:"count"`
	AvgResults float64 `json:"avgResults"`
}

type typeStatItem struct {
	SearchType        string  `json:"searchType"`
	Count             int     `json:"count"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	AvgResults        float64 `json:"avgResults"`
}

type suggestionsResponse struct {
	Query       string           `json:"query"`
	Suggestions []suggestionItem `json:"suggestions"`
}

type suggestionItem struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

func (r searchRequest) filters() (domain.Filters, error) {
	f := domain.Filters{
		ContentTypes: r.ContentTypes,
		Tags:         r.Tags,
		UserID:       r.UserID,
	}
	if r.DateFrom != "" {
		t, err := parseDate(r.DateFrom)
		if err != nil {
			return domain.Filters{}, err
		}
		f.From = t
	}
	if r.DateTo != "" {
		t, err := parseDate(r.DateTo)
		if err != nil {
			return domain.Filters{}, err
		}
		f.To = t
	}
	return f, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func resultToItem(r domain.Result) searchResultItem {
	item := searchResultItem{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		ContentType: r.ContentType,
		Tags:        r.Tags,
		Metadata:    r.Metadata,
		Score:       r.Score,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if !r.CreatedAt.IsZero() {
		item.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func responseToDTO(resp domain.Response) searchResponse {
	items := make([]searchResultItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = resultToItem(r)
	}
	suggestions := resp.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return searchResponse{
		Results:        items,
		Total:          resp.Total,
		Query:          resp.Query,
		SearchType:     string(resp.SearchType),
		ResponseTimeMs: resp.ResponseTimeMs,
		Suggestions:    suggestions,
	}
}

func documentToDTO(d *domain.Document) documentResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return documentResponse{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		ContentType: d.ContentType,
		Tags:        tags,
		Metadata:    d.Metadata,
		Embedded:    d.HasEmbedding(),
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func analyticsToDTO(a *domain.Analytics) analyticsResponse {
	resp := analyticsResponse{
		Days:              a.Days,
		TotalSearches:     a.TotalSearches,
		AvgResponseTimeMs: a.AvgResponseTimeMs,
		UniqueUsers:       a.UniqueUsers,
		DailyVolume:       make([]dailyVolumeItem, len(a.DailyVolume)),
		TopQueries:        make([]queryStatItem, len(a.TopQueries)),
		TypePerformance:   make([]typeStatItem, len(a.TypePerformance)),
	}
	for i, v := range a.DailyVolume {
		resp.DailyVolume[i] = dailyVolumeItem{
			Day:        v.Day,
			SearchType: string(v.SearchType),
			Count:      v.Count,
		}
	}
	for i, q := range a.TopQueries {
		resp.TopQueries[i] = queryStatItem{
			Query:      q.Query,
			Count:      q.Count,
			AvgResults: q.AvgResults,
		}
	}
	for i, tp := range a.TypePerformance {
		resp.TypePerformance[i] = typeStatItem{
			SearchType:        string(tp.SearchType),
			Count:             tp.Count,
			AvgResponseTimeMs: tp.AvgResponseTimeMs,
			AvgResults:        tp.AvgResults,
		}
	}
	return resp
}

func documentFromIndex(req indexRequest) *domain.Document {
	return &domain.Document{
		ID:          req.ID,
		Title:       req.Title,
		Content:     req.Content,
		ContentType: req.ContentType,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
