package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/seatwise/booking-engine/internal/repository"
	"github.com/stretchr/testify/require"
)

// Fields whose values change between runs are ignored when comparing
// response bodies.
var keysToIgnore = map[string]struct{}{
	"id":           {},
	"timestamp":    {},
	"request_id":   {},
	"created_at":   {},
	"cancelled_at": {},
}

func prepareRequest(method, path string, body io.Reader) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

// resetState empties every table and reseeds the test show. The Redis hash
// mirrors the seat rows so both backings start each test from the same
// state.
func (s *BaseSuite) resetState() {
	t := s.T()
	ctx := context.Background()

	_, err := s.db.Exec(ctx, `TRUNCATE bookings, booking_seats CASCADE`)
	require.NoError(t, err)

	_, err = s.db.Exec(ctx, `TRUNCATE shows, show_seats CASCADE`)
	require.NoError(t, err)

	_, err = s.db.Exec(ctx,
		`INSERT INTO shows (id, name, base_price) VALUES ($1, $2, $3)`,
		TestShowId, TestShowName, TestShowBasePrice,
	)
	require.NoError(t, err)

	for _, seatID := range TestShowLayout {
		_, err = s.db.Exec(ctx,
			`INSERT INTO show_seats (show_id, seat_id, status) VALUES ($1, $2, 'FREE')`,
			TestShowId, seatID,
		)
		require.NoError(t, err)
	}

	err = s.cache.Del(ctx, "show:"+TestShowId+":seats").Err()
	require.NoError(t, err)

	seatStore := repository.NewRedisSeatStore(s.cache)
	err = seatStore.InitShow(ctx, TestShowId, TestShowLayout)
	require.NoError(t, err)
}
