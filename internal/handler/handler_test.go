package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors utils.Response with a raw data payload.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID  string `json:"requestId"`
		Total      int    `json:"total"`
		Pagination *struct {
			TotalItems int `json:"totalItems"`
		} `json:"pagination"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cat, err := catalog.New(&catalog.Tables{
		Tariffs: catalog.Table{
			Name:   catalog.TableTariffs,
			Header: []string{"Kanton", "Franchise", "Altersklasse", "Tarifbezeichnung", "Prämie"},
			Rows: [][]string{
				{"ZH", "FRA-1000", "AKL-ERW", "Basis", "350"},
				{"ZH", "FRA-300", "AKL-JUG", "Basis", "280.55"},
				{"BE", "FRA-2500", "AKL-ERW", "Hausarzt", "290"},
			},
		},
		ValueRanges: catalog.Table{
			Name:   catalog.TableValueRanges,
			Header: []string{"Wertebereich", "Code", "Bezeichnung"},
			Rows: [][]string{
				{"Franchise", "FRA-1000", "Franchise CHF 1000"},
				{"Altersklasse", "AKL-ERW", "Erwachsene"},
				{"Altersklasse", "AKL-JUG", "Junge Erwachsene"},
			},
		},
		Postal: catalog.Table{
			Name:   catalog.TablePostal,
			Header: []string{"PLZ", "Kanton"},
			Rows: [][]string{
				{"8001", "Zürich"},
				{"8050", "Zürich"},
				{"8090", "Zürich"},
				{"3000", "Bern"},
				{"8866", "St. Gallen"},
				{"8866", "Glarus"},
				{"9999", "Atlantis"},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New() failed: %v", err)
	}

	resolver := service.NewCantonResolver(cat)
	eligibility := service.NewEligibilityService(cat, resolver, service.NewTariffQueryEngine(cat), nil)
	eligibility.SetClock(func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) })

	cantons := NewCantonHandler(resolver)
	reference := NewReferenceHandler(cat)
	tariffs := NewTariffHandler(eligibility, cat)
	health := NewHealthHandler(cat, nil, "file")

	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/health", health.GetHealth)
	v1.GET("/cantons", cantons.GetCantons)
	v1.GET("/deductibles", reference.GetDeductibles)
	v1.GET("/age-bracket", reference.GetAgeBracket)
	v1.GET("/value-ranges", reference.GetValueRanges)
	v1.POST("/tariffs/search", tariffs.Search)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func TestGetCantons(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name    string
		prefix  string
		code    int
		total   int
		errCode string
	}{
		{name: "zurich prefix", prefix: "80", code: http.StatusOK, total: 3},
		{name: "short prefix", prefix: "8", code: http.StatusOK, total: 0},
		{name: "no match", prefix: "12", code: http.StatusOK, total: 0},
		{name: "invalid prefix", prefix: "8a", code: http.StatusBadRequest, errCode: "INVALID_POSTAL_PREFIX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodGet, "/v1/cantons?prefix="+tt.prefix, nil)
			if code != tt.code {
				t.Fatalf("status = %d, want %d", code, tt.code)
			}
			if tt.errCode != "" {
				if env.Error == nil || env.Error.Code != tt.errCode {
					t.Errorf("error = %+v, want %s", env.Error, tt.errCode)
				}
				return
			}
			if env.Meta.Total != tt.total {
				t.Errorf("total = %d, want %d", env.Meta.Total, tt.total)
			}
			var data []map[string]string
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("data: %v", err)
			}
			if len(data) != tt.total {
				t.Errorf("data has %d entries, want %d", len(data), tt.total)
			}
		})
	}
}

func TestGetCantonsTrimsPrefix(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		query  string
		total  int
		prompt bool
	}{
		{name: "padded single digit", query: "%208", prompt: true},
		{name: "padded with tabs", query: "%098%09", prompt: true},
		{name: "single multibyte character", query: "%C3%A9", prompt: true},
		{name: "padded valid prefix", query: "%2080%20", total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodGet, "/v1/cantons?prefix="+tt.query, nil)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", code, env.Message)
			}
			if prompted := env.Message == "Please enter at least two digits of the postal code"; prompted != tt.prompt {
				t.Errorf("message = %q, prompt expected = %v", env.Message, tt.prompt)
			}
			if env.Meta.Total != tt.total {
				t.Errorf("total = %d, want %d", env.Meta.Total, tt.total)
			}
		})
	}
}

func TestGetDeductibles(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodGet, "/v1/deductibles", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var data []struct {
		Code   string `json:"code"`
		Amount int    `json:"amount"`
		Label  string `json:"label"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data) != 3 || data[0].Code != "FRA-300" || data[2].Code != "FRA-2500" {
		t.Fatalf("deductibles = %+v, want FRA-300, FRA-1000, FRA-2500", data)
	}
	if data[1].Label != "Franchise CHF 1000" || data[0].Label != "CHF 300" {
		t.Errorf("labels = %q, %q", data[0].Label, data[1].Label)
	}
	if data[0].Amount != 300 || data[1].Amount != 1000 {
		t.Errorf("amounts = %d, %d, want 300, 1000", data[0].Amount, data[1].Amount)
	}
}

func TestGetAgeBracket(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodGet, "/v1/age-bracket?birthDate=2000-06-15&asOf=2024-01-10", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var data struct {
		Age        int    `json:"age"`
		AgeBracket string `json:"ageBracket"`
		Label      string `json:"label"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Age != 23 || data.AgeBracket != "AKL-JUG" || data.Label != "Junge Erwachsene" {
		t.Errorf("age bracket = %+v", data)
	}

	for _, path := range []string{
		"/v1/age-bracket",
		"/v1/age-bracket?birthDate=15.06.2000",
		"/v1/age-bracket?birthDate=2030-01-01&asOf=2024-01-10",
	} {
		if code, _ := do(t, r, http.MethodGet, path, nil); code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, code)
		}
	}
}

func TestGetValueRanges(t *testing.T) {
	r := newTestRouter(t)

	_, env := do(t, r, http.MethodGet, "/v1/value-ranges?domain=altersklasse&limit=1", nil)
	var data []map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 || env.Meta.Pagination == nil || env.Meta.Pagination.TotalItems != 2 {
		t.Errorf("data = %v, pagination = %+v", data, env.Meta.Pagination)
	}

	_, env = do(t, r, http.MethodGet, "/v1/value-ranges?page=9", nil)
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("page past the end returned %d rows", len(data))
	}
}

func TestSearchTariffs(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodPost, "/v1/tariffs/search", gin.H{
		"birthDate":  "1980-05-01",
		"postalCode": "8001",
		"cantonName": "Zürich",
		"deductible": "FRA-1000",
		"sex":        "female",
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, message = %s", code, env.Message)
	}
	var data struct {
		AgeBracket string `json:"ageBracket"`
		Canton     string `json:"canton"`
		Tariffs    []struct {
			TariffName string `json:"tariffName"`
			Premium    string `json:"premium"`
		} `json:"tariffs"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Canton != "ZH" || data.AgeBracket != "AKL-ERW" {
		t.Errorf("result = %+v", data)
	}
	if len(data.Tariffs) != 1 || data.Tariffs[0].TariffName != "Basis" || data.Tariffs[0].Premium != "350.00" {
		t.Errorf("tariffs = %+v, want Basis 350.00", data.Tariffs)
	}
}

func TestSearchTariffsNoMatch(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodPost, "/v1/tariffs/search", gin.H{
		"birthDate":  "2010-01-01",
		"canton":     "BE",
		"deductible": "2500",
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(env.Message) < 8 || env.Message[:8] != "NO_MATCH" {
		t.Errorf("message = %q, want NO_MATCH", env.Message)
	}
}

func TestSearchTariffsErrors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name    string
		body    gin.H
		code    int
		errCode string
	}{
		{"missing birth date", gin.H{"postalCode": "8001", "deductible": "FRA-1000"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad birth date format", gin.H{"birthDate": "01.05.1980", "postalCode": "8001", "deductible": "FRA-1000"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad sex", gin.H{"birthDate": "1980-05-01", "postalCode": "8001", "deductible": "FRA-1000", "sex": "x"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown deductible", gin.H{"birthDate": "1980-05-01", "postalCode": "8001", "deductible": "FRA-500"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"ambiguous postal code", gin.H{"birthDate": "1980-05-01", "postalCode": "8866", "deductible": "FRA-1000"}, http.StatusConflict, "AMBIGUOUS_CANTON"},
		{"unresolved canton", gin.H{"birthDate": "1980-05-01", "postalCode": "9999", "deductible": "FRA-1000"}, http.StatusUnprocessableEntity, "UNRESOLVED_CANTON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodPost, "/v1/tariffs/search", tt.body)
			if code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", code, tt.code, env.Message)
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.errCode {
				t.Errorf("error = %+v, want %s", env.Error, tt.errCode)
			}
		})
	}
}

func TestSearchAmbiguousListsCandidates(t *testing.T) {
	r := newTestRouter(t)

	_, env := do(t, r, http.MethodPost, "/v1/tariffs/search", gin.H{
		"birthDate": "1980-05-01", "postalCode": "8866", "deductible": "FRA-1000",
	})
	var data []map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data[0]["cantonCode"] != "SG" || data[1]["cantonCode"] != "GL" {
		t.Errorf("candidates = %v", data)
	}
}

func TestHealth(t *testing.T) {
	code, env := do(t, newTestRouter(t), http.MethodGet, "/v1/health", nil)
	if code != http.StatusOK || !env.Success {
		t.Errorf("status = %d, success = %v", code, env.Success)
	}

	r := gin.New()
	r.GET("/v1/health", NewHealthHandler(nil, errors.New("postal_codes: no rows"), "file").GetHealth)
	code, env = do(t, r, http.MethodGet, "/v1/health", nil)
	if code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != "DATA_LOAD_ERROR" {
		t.Errorf("blocked health = %d %+v", code, env.Error)
	}
}
