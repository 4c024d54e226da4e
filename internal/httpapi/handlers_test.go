package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kumbara/internal/catalog"
	"kumbara/internal/engine"
	"kumbara/internal/store"
	"kumbara/internal/store/memory"
)

func newTestServer(t *testing.T, st store.DurableStore) *Server {
	t.Helper()
	if st == nil {
		st = memory.New()
	}
	cat := catalog.New(catalog.Defaults())
	eng, err := engine.New(context.Background(), engine.Config{Store: st, Catalog: cat})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(Options{Engine: eng, Catalog: cat})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/transactions",
		`{"type":"expense","amount":"150.00","categoryId":"market","date":"2024-05-10","description":"haftalık alışveriş"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[transactionResponse](t, rec)
	if created.AmountCents != 15000 || created.Amount != 150.0 {
		t.Errorf("amount = (%d, %f), want (15000, 150.00)", created.AmountCents, created.Amount)
	}
	if created.ID == "" || created.Date != "2024-05-10" {
		t.Errorf("created = %+v", created)
	}

	t.Run("get by id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/transactions/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[transactionResponse](t, rec)
		if got.Description != "haftalık alışveriş" {
			t.Errorf("description = %q", got.Description)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/transactions", "")
		list := decode[[]transactionResponse](t, rec)
		if len(list) != 1 {
			t.Fatalf("list len = %d", len(list))
		}
	})

	t.Run("update with comma decimal", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/transactions/"+created.ID, `{"amount":"99,50"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		got := decode[transactionResponse](t, rec)
		if got.AmountCents != 9950 {
			t.Errorf("amountCents = %d, want 9950", got.AmountCents)
		}
	})

	t.Run("totals", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/totals", "")
		totals := decode[map[string]int64](t, rec)
		if totals["totalExpenseCents"] != 9950 || totals["totalIncomeCents"] != 0 {
			t.Errorf("totals = %v", totals)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/transactions/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = doJSON(t, h, http.MethodDelete, "/transactions/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rec.Code)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/transactions/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{`},
		{"missing fields", `{"type":"expense"}`},
		{"bad type", `{"type":"transfer","amount":"10","categoryId":"market","date":"2024-05-01"}`},
		{"zero amount", `{"type":"expense","amount":"0","categoryId":"market","date":"2024-05-01"}`},
		{"negative amount", `{"type":"expense","amount":"-5","categoryId":"market","date":"2024-05-01"}`},
		{"bad date", `{"type":"expense","amount":"10","categoryId":"market","date":"01/05/2024"}`},
		{"blank category", `{"type":"expense","amount":"10","categoryId":"  ","date":"2024-05-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
		})
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/budgets",
		`{"categoryId":"food","month":"2024-05","amount":"1000.00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[budgetResponse](t, rec)
	if created.AmountCents != 100000 || created.SpentCents != 0 {
		t.Errorf("created = %+v", created)
	}

	t.Run("duplicate conflicts", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/budgets",
			`{"categoryId":"food","month":"2024-05","amount":"500.00"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("expense moves spent and percentage", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/transactions",
			`{"type":"expense","amount":"250.00","categoryId":"food","date":"2024-05-12"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expense status = %d", rec.Code)
		}

		rec = doJSON(t, h, http.MethodGet, "/budgets?month=2024-05", "")
		list := decode[[]budgetWithCategoryResp](t, rec)
		if len(list) != 1 {
			t.Fatalf("list len = %d", len(list))
		}
		if list[0].SpentCents != 25000 || list[0].Percentage != 25 {
			t.Errorf("budget = %+v", list[0])
		}
		if list[0].CategoryLabel != "Yemek" {
			t.Errorf("label = %q, want Yemek", list[0].CategoryLabel)
		}
	})

	t.Run("spent override to zero", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/budgets/"+created.ID, `{"spent":"0"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		got := decode[budgetResponse](t, rec)
		if got.SpentCents != 0 {
			t.Errorf("spentCents = %d, want 0", got.SpentCents)
		}
	})

	t.Run("month query required", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/budgets", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/budgets/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = doJSON(t, h, http.MethodDelete, "/budgets/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete = %d, want 404", rec.Code)
		}
	})
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/budgets", `{"categoryId":"food","month":"2024-05","amount":"1000.00"}`)
	doJSON(t, h, http.MethodPost, "/budgets", `{"categoryId":"transport","month":"2024-05","amount":"500.00"}`)
	doJSON(t, h, http.MethodPost, "/transactions",
		`{"type":"expense","amount":"300.00","categoryId":"food","date":"2024-05-15"}`)

	rec := doJSON(t, h, http.MethodGet, "/summary?month=2024-05", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	sum := decode[summaryResponse](t, rec)
	if sum.TotalBudgetCents != 150000 || sum.TotalSpentCents != 30000 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.Budgets) != 2 {
		t.Errorf("budgets = %d, want 2", len(sum.Budgets))
	}

	t.Run("cache invalidated by mutation", func(t *testing.T) {
		// Prime the cache, mutate, read again: the new expense must show.
		doJSON(t, h, http.MethodGet, "/summary?month=2024-05", "")
		doJSON(t, h, http.MethodPost, "/transactions",
			`{"type":"expense","amount":"100.00","categoryId":"food","date":"2024-05-16"}`)

		rec := doJSON(t, h, http.MethodGet, "/summary?month=2024-05", "")
		sum := decode[summaryResponse](t, rec)
		if sum.TotalSpentCents != 40000 {
			t.Errorf("totalSpentCents = %d, want 40000 after invalidation", sum.TotalSpentCents)
		}
	})

	t.Run("bad month", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/summary?month=May", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"salary"`) {
		t.Error("default categories missing from response")
	}
}

type failingStore struct{ err error }

func (f *failingStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (f *failingStore) Set(context.Context, string, string) error         { return f.err }
func (f *failingStore) Remove(context.Context, string) error              { return nil }

func TestPersistenceWarningResponse(t *testing.T) {
	srv := newTestServer(t, &failingStore{err: errors.New("disk full")})
	h := srv.Handler()

	// The mutation sticks in memory, so the response carries the entity plus
	// a warning instead of an error status.
	rec := doJSON(t, h, http.MethodPost, "/transactions",
		`{"type":"expense","amount":"10.00","categoryId":"market","date":"2024-05-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 with warning (body %s)", rec.Code, rec.Body)
	}
	var resp struct {
		Result  transactionResponse `json:"result"`
		Warning string              `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Warning == "" {
		t.Error("warning missing")
	}
	if resp.Result.AmountCents != 1000 {
		t.Errorf("result = %+v", resp.Result)
	}

	// The in-memory ledger still serves reads.
	rec = doJSON(t, h, http.MethodGet, "/transactions", "")
	list := decode[[]transactionResponse](t, rec)
	if len(list) != 1 {
		t.Errorf("list len = %d, want 1", len(list))
	}
}
