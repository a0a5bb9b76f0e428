package sheets_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"sheetsync/dataloader/coerce"
	"sheetsync/dataloader/sheets"
)

type mockFetcher struct {
	fetchRowsFunc func(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error)
	ranges        []string
}

func (m *mockFetcher) FetchRows(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error) {
	m.ranges = append(m.ranges, rangeExpr)
	if m.fetchRowsFunc != nil {
		return m.fetchRowsFunc(ctx, sheetTitle, rangeExpr)
	}
	return nil, nil
}

func fullRows(n int) [][]coerce.Value {
	rows := make([][]coerce.Value, n)
	for i := range rows {
		rows[i] = []coerce.Value{coerce.Int(int64(i))}
	}
	return rows
}

func TestPaginator_ThreePages(t *testing.T) {
	pages := map[string]int{
		"A2:C201":   200,
		"A202:C401": 200,
		"A402:C450": 30,
	}
	fetcher := &mockFetcher{
		fetchRowsFunc: func(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error) {
			n, ok := pages[rangeExpr]
			if !ok {
				t.Fatalf("Unexpected range %s", rangeExpr)
			}
			return fullRows(n), nil
		},
	}

	ws := testWorksheet()
	ws.MaxRow = 450

	var handled int
	p := sheets.NewPaginator(fetcher)
	res, err := p.Run(context.Background(), ws, func(ctx context.Context, records []sheets.TypedRecord) error {
		handled += len(records)
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"A2:C201", "A202:C401", "A402:C450"}
	if !reflect.DeepEqual(fetcher.ranges, want) {
		t.Errorf("Expected ranges %v, got %v", want, fetcher.ranges)
	}
	if res.Pages != 3 {
		t.Errorf("Expected 3 pages, got %d", res.Pages)
	}
	if handled != 430 || res.Records != 430 {
		t.Errorf("Expected 430 records, got handled=%d result=%d", handled, res.Records)
	}
	if res.LastRow != 431 {
		t.Errorf("Expected last row 431, got %d", res.LastRow)
	}
}

func TestPaginator_EmptyPageStops(t *testing.T) {
	calls := 0
	fetcher := &mockFetcher{
		fetchRowsFunc: func(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error) {
			calls++
			if calls == 1 {
				return fullRows(200), nil
			}
			return nil, nil
		},
	}

	ws := testWorksheet()
	ws.MaxRow = 1000

	res, err := sheets.NewPaginator(fetcher).Run(context.Background(), ws, func(context.Context, []sheets.TypedRecord) error { return nil })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 fetches, got %d", calls)
	}
	if res.LastRow != 201 {
		t.Errorf("Expected last row 201, got %d", res.LastRow)
	}
}

func TestPaginator_EmptyRowStops(t *testing.T) {
	fetcher := &mockFetcher{
		fetchRowsFunc: func(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error) {
			rows := fullRows(200)
			rows[3] = []coerce.Value{}
			return rows, nil
		},
	}

	ws := testWorksheet()
	ws.MaxRow = 1000

	res, err := sheets.NewPaginator(fetcher).Run(context.Background(), ws, func(context.Context, []sheets.TypedRecord) error { return nil })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(fetcher.ranges) != 1 {
		t.Errorf("Expected 1 fetch, got %d", len(fetcher.ranges))
	}
	if res.Records != 3 || res.LastRow != 4 {
		t.Errorf("Expected 3 records ending at row 4, got %d ending at %d", res.Records, res.LastRow)
	}
}

func TestPaginator_NoDataRows(t *testing.T) {
	fetcher := &mockFetcher{}
	ws := testWorksheet()
	ws.MaxRow = 1

	res, err := sheets.NewPaginator(fetcher).Run(context.Background(), ws, func(context.Context, []sheets.TypedRecord) error { return nil })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(fetcher.ranges) != 0 {
		t.Errorf("Expected no fetches, got %v", fetcher.ranges)
	}
	if res.LastRow != 1 {
		t.Errorf("Expected last row 1, got %d", res.LastRow)
	}
}

func TestPaginator_FetchError(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &mockFetcher{
		fetchRowsFunc: func(context.Context, string, string) ([][]coerce.Value, error) { return nil, boom },
	}

	_, err := sheets.NewPaginator(fetcher).Run(context.Background(), testWorksheet(), func(context.Context, []sheets.TypedRecord) error { return nil })
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped fetch error, got %v", err)
	}
}

func TestPaginator_HandlerError(t *testing.T) {
	fetcher := &mockFetcher{
		fetchRowsFunc: func(context.Context, string, string) ([][]coerce.Value, error) { return fullRows(5), nil },
	}
	sinkErr := errors.New("sink down")

	_, err := sheets.NewPaginator(fetcher).Run(context.Background(), testWorksheet(), func(context.Context, []sheets.TypedRecord) error { return sinkErr })
	if !errors.Is(err, sinkErr) {
		t.Errorf("Expected handler error, got %v", err)
	}
}
