package session

import (
	"testing"
	"time"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestNewStore_Seeded(t *testing.T) {
	s := NewStore("lofi", 3, 4)

	st := s.Snapshot()
	if st.Query != "lofi" {
		t.Errorf("Query = %q, want %q", st.Query, "lofi")
	}
	if st.Cols != 3 || st.Rows != 4 {
		t.Errorf("grid = %dx%d, want 3x4", st.Cols, st.Rows)
	}
	if st.PageIndex != 0 {
		t.Errorf("PageIndex = %d, want 0", st.PageIndex)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		params    Params
		wantQuery string
		wantPage  int
		wantCols  int
		wantRows  int
	}{
		{
			name:      "no params keeps state",
			params:    Params{},
			wantQuery: "lofi",
			wantPage:  0,
			wantCols:  3,
			wantRows:  4,
		},
		{
			name:      "query only",
			params:    Params{Query: strPtr("jazz")},
			wantQuery: "jazz",
			wantPage:  0,
			wantCols:  3,
			wantRows:  4,
		},
		{
			name:      "all fields",
			params:    Params{Query: strPtr("jazz"), PageIndex: intPtr(2), Cols: intPtr(2), Rows: intPtr(5)},
			wantQuery: "jazz",
			wantPage:  2,
			wantCols:  2,
			wantRows:  5,
		},
		{
			name:      "empty query ignored",
			params:    Params{Query: strPtr("")},
			wantQuery: "lofi",
			wantPage:  0,
			wantCols:  3,
			wantRows:  4,
		},
		{
			name:      "non-positive grid ignored",
			params:    Params{Cols: intPtr(0), Rows: intPtr(-1)},
			wantQuery: "lofi",
			wantPage:  0,
			wantCols:  3,
			wantRows:  4,
		},
		{
			name:      "negative page ignored",
			params:    Params{PageIndex: intPtr(-3)},
			wantQuery: "lofi",
			wantPage:  0,
			wantCols:  3,
			wantRows:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore("lofi", 3, 4)
			got := s.Merge(tt.params)

			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.PageIndex != tt.wantPage {
				t.Errorf("PageIndex = %d, want %d", got.PageIndex, tt.wantPage)
			}
			if got.Cols != tt.wantCols || got.Rows != tt.wantRows {
				t.Errorf("grid = %dx%d, want %dx%d", got.Cols, got.Rows, tt.wantCols, tt.wantRows)
			}
		})
	}
}

func TestMerge_LastWriteWins(t *testing.T) {
	s := NewStore("lofi", 3, 4)

	s.Merge(Params{Query: strPtr("first")})
	s.Merge(Params{Query: strPtr("second")})

	if got := s.Snapshot().Query; got != "second" {
		t.Errorf("Query = %q, want %q", got, "second")
	}
}

func TestSetSheet(t *testing.T) {
	s := NewStore("lofi", 3, 4)
	buf := []byte{0x89, 0x50, 0x4e, 0x47}
	now := time.Now()

	s.SetSheet(buf, now)

	st := s.Snapshot()
	if string(st.Sheet) != string(buf) {
		t.Error("sheet buffer not stored")
	}
	if !st.SheetBuiltAt.Equal(now) {
		t.Errorf("SheetBuiltAt = %v, want %v", st.SheetBuiltAt, now)
	}
}

func TestSetSheet_PreservedAcrossMerge(t *testing.T) {
	s := NewStore("lofi", 3, 4)
	s.SetSheet([]byte("png"), time.Now())

	s.Merge(Params{Query: strPtr("jazz")})

	if st := s.Snapshot(); len(st.Sheet) == 0 {
		t.Error("merge must not clear the cached sheet")
	}
}
