package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/internal/transport"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/mirror"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithTransport(transport.WithRetries(0)),
	}, opts...)
	c, err := New("key", "appBase", opts...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("", "app")
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.IsAPIKeyError(err))

	_, err = New("key", "")
	assert.ErrorAs(t, err, &cfgErr)
	assert.False(t, errors.IsAPIKeyError(err))
}

func TestListRecordsFollowsOffset(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appBase/Mailing List Signups", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		queries = append(queries, r.URL.Query().Get("offset"))
		switch r.URL.Query().Get("offset") {
		case "":
			assert.Equal(t, "Grid view", r.URL.Query().Get("view"))
			assert.Equal(t, []string{"id", "email"}, r.URL.Query()["fields[]"])
			_, _ = fmt.Fprint(w, `{"records":[{"id":"rec1","createdTime":"2021-04-02T15:04:05.000Z","fields":{"id":1}}],"offset":"itr1"}`)
		default:
			_, _ = fmt.Fprint(w, `{"records":[{"id":"rec2","fields":{"id":2,"email":"a@b.c"}}]}`)
		}
	})

	recs, err := c.ListRecords(context.Background(), "Mailing List Signups", mirror.ListOptions{
		View: "Grid view", Fields: []string{"id", "email"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "itr1"}, queries)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, time.Date(2021, 4, 2, 15, 4, 5, 0, time.UTC), recs[0].CreatedTime)
	assert.Equal(t, float64(2), recs[1].Fields["id"])
}

func TestListRecordsFailureIsRemoteFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.ListRecords(context.Background(), "RFDs", mirror.ListOptions{})
	assert.True(t, errors.IsRemoteFetch(err))
	assert.True(t, errors.IsTransient(err))
}

func TestCreateRecordsChunks(t *testing.T) {
	var (
		mu    sync.Mutex
		sizes []int
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req writeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Typecast)

		mu.Lock()
		sizes = append(sizes, len(req.Records))
		mu.Unlock()

		resp := writeResponse{}
		for _, rec := range req.Records {
			assert.Empty(t, rec.ID)
			resp.Records = append(resp.Records, mirror.Record{ID: fmt.Sprintf("rec%v", rec.Fields["id"]), Fields: rec.Fields})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}, WithTypecast(true))

	in := make([]mirror.Record, 23)
	for i := range in {
		in[i] = mirror.Record{ID: "ignored", Fields: mirror.Fields{"id": i + 1}}
	}
	out, err := c.CreateRecords(context.Background(), "Papers", in)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
	require.Len(t, out, 23)
	assert.Equal(t, "rec23", out[22].ID)
}

func TestUpdateRecordsPatches(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var req writeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Typecast)
		require.NoError(t, json.NewEncoder(w).Encode(writeResponse{Records: req.Records}))
	})

	out, err := c.UpdateRecords(context.Background(), "Meetings", []mirror.Record{{ID: "rec1", Fields: mirror.Fields{"title": "x"}}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "rec1", out[0].ID)

	_, err = c.UpdateRecords(context.Background(), "Meetings", []mirror.Record{{Fields: mirror.Fields{}}})
	assert.True(t, errors.IsValidationError(err))
}

func TestWriteValidationFailureIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN"}}`)
	})
	_, err := c.CreateRecords(context.Background(), "Papers", []mirror.Record{{Fields: mirror.Fields{"id": 1}}})
	require.Error(t, err)
	assert.True(t, errors.IsPermanent(err))
}
