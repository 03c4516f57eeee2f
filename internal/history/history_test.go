package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"challan-backend/internal/components/chrono"

	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t testing.TB) *SQLStore {
	t.Helper()
	store, err := OpenSQL(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close(context.Background())
	})
	return store
}

// storeConformance runs the same checks against every Store implementation.
func storeConformance(t *testing.T, store Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Date(2024, time.May, 20, 15, 0, 0, 0, chrono.Dhaka())
	seed := []Record{
		{ChallanNo: "CH-100", LineNo: "31", Date: "20-May-2024", BookingNo: "1500/315 B", CreatedAt: now},
		{ChallanNo: "CH-101", LineNo: "7", Date: "19-May-2024", BookingNo: "1500/316", CreatedAt: now.AddDate(0, 0, -1)},
		{ChallanNo: "ch-200", LineNo: "31", Date: "10-May-2024", BookingNo: "A_1%", CreatedAt: now.AddDate(0, 0, -10)},
		{ChallanNo: "CH-300", LineNo: "2", Date: "01-Apr-2024", BookingNo: "X", CreatedAt: now.AddDate(0, 0, -49)},
	}
	for _, r := range seed {
		require.NoError(t, store.Insert(ctx, r))
	}

	t.Run("newest first", func(t *testing.T) {
		records, total, err := store.Find(ctx, Filter{}, 1, 20)
		require.NoError(t, err)
		require.EqualValues(t, 4, total)
		require.Len(t, records, 4)
		require.Equal(t, "CH-100", records[0].ChallanNo)
		require.Equal(t, "CH-300", records[3].ChallanNo)
		require.NotEmpty(t, records[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		records, total, err := store.Find(ctx, Filter{}, 2, 3)
		require.NoError(t, err)
		require.EqualValues(t, 4, total)
		require.Len(t, records, 1)
		require.Equal(t, "CH-300", records[0].ChallanNo)
	})

	t.Run("filters", func(t *testing.T) {
		testCases := []struct {
			filter   Filter
			expected []string
		}{
			{Filter{ChallanNo: "ch-1"}, []string{"CH-100", "CH-101"}},
			{Filter{ChallanNo: " CH-2 "}, []string{"ch-200"}},
			{Filter{LineNo: "31"}, []string{"CH-100", "ch-200"}},
			{Filter{Date: "may-2024"}, []string{"CH-100", "CH-101", "ch-200"}},
			{Filter{BookingNo: "1500/31"}, []string{"CH-100", "CH-101"}},
			{Filter{BookingNo: "_1%"}, []string{"ch-200"}},
			{Filter{BookingNo: ".*"}, nil},
			{Filter{ChallanNo: "CH", LineNo: "7"}, []string{"CH-101"}},
		}
		for _, tc := range testCases {
			t.Run(fmt.Sprintf("%+v", tc.filter), func(t *testing.T) {
				records, total, err := store.Find(ctx, tc.filter, 1, 20)
				require.NoError(t, err)
				var got []string
				for _, r := range records {
					got = append(got, r.ChallanNo)
				}
				require.Equal(t, tc.expected, got)
				require.EqualValues(t, len(tc.expected), total)
			})
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := ComputeStats(ctx, store, now)
		require.NoError(t, err)
		require.Equal(t, Stats{Today: 1, Week: 2, Month: 3, Total: 4}, stats)
	})

	t.Run("delete by challan number", func(t *testing.T) {
		require.NoError(t, store.DeleteByChallanNo(ctx, "CH-101"))
		require.NoError(t, store.DeleteByChallanNo(ctx, "does-not-exist"))

		_, total, err := store.Find(ctx, Filter{}, 1, 20)
		require.NoError(t, err)
		require.EqualValues(t, 3, total)
	})
}

func TestSQLStore(t *testing.T) {
	storeConformance(t, newTestSQLStore(t))
}

func TestSQLSchemaIsIdempotent(t *testing.T) {
	store := newTestSQLStore(t)
	_, err := NewSQLStore(context.Background(), store.db)
	require.NoError(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "postgres"})
	require.Error(t, err)
}
