package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/pkg/circuitbreaker"
	"github.com/johnassefatheeth/pm-f-d/pkg/trace"
)

type recorded struct {
	method string
	path   string
	auth   string
	trace  string
	body   string
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.auth = r.Header.Get("Authorization")
		rec.trace = r.Header.Get(trace.HeaderName())
		rec.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClient_CreateMilestone(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated,
		`{"data":{"milestone":{"_id":"m3","project":"p1","name":"Launch","dueDate":"2026-06-01T00:00:00.000Z","order":3}}}`)
	c := NewClient(srv.URL, WithToken("tok"))

	ctx := trace.WithContext(context.Background(), "trace-1")
	got, err := c.CreateMilestone(ctx, "p1", model.MilestoneInput{
		Name:    "Launch",
		DueDate: model.NewDate(2026, time.June, 1),
	})
	require.NoError(t, err)

	want := model.Milestone{ID: "m3", ProjectID: "p1", Name: "Launch", DueDate: model.NewDate(2026, time.June, 1), Order: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("milestone mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/p1/milestones", rec.path)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, "trace-1", rec.trace)
	assert.JSONEq(t, `{"name":"Launch","description":"","dueDate":"2026-06-01"}`, rec.body)
}

func TestClient_UpdateMilestone_SendsOnlySetFields(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":{"milestone":{"_id":"m1","name":"Renamed","dueDate":"2026-06-01","order":1}}}`)
	c := NewClient(srv.URL)

	name := "Renamed"
	got, err := c.UpdateMilestone(context.Background(), "p1", "m1", model.MilestonePatch{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/p1/milestones/m1", rec.path)
	assert.JSONEq(t, `{"name":"Renamed"}`, rec.body)
	assert.Empty(t, rec.auth)
}

func TestClient_ReorderMilestones(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"whatever":true}`)
	c := NewClient(srv.URL)

	err := c.ReorderMilestones(context.Background(), "p1", []model.OrderEntry{{ID: "a", Order: 2}, {ID: "b", Order: 1}})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/p1/milestones", rec.path)
	assert.JSONEq(t, `{"milestones":[{"id":"a","order":2},{"id":"b","order":1}]}`, rec.body)
}

func TestClient_EscapesIDs(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":{"project":{"_id":"a/b","name":"x"}}}`)
	c := NewClient(srv.URL)

	_, err := c.GetProject(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/projects/a%2Fb", rec.path)
}

func TestClient_CreateProject_Envelopes(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "data envelope", response: `{"data":{"project":{"_id":"p9","name":"Apollo"}}}`},
		{name: "bare body", response: `{"_id":"p9","name":"Apollo"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusCreated, tt.response)
			c := NewClient(srv.URL)

			got, err := c.CreateProject(context.Background(), model.ProjectInput{Name: "Apollo"})
			require.NoError(t, err)
			assert.Equal(t, "p9", got.ID)
			assert.Equal(t, "Apollo", got.Name)
			assert.Equal(t, "/projects", rec.path)
		})
	}
}

func TestClient_ListProjects(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"data":{"projects":[{"_id":"p1","name":"A"},{"_id":"p2","name":"B"}]}}`)
	c := NewClient(srv.URL)

	got, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[1].ID)
}

func TestClient_GetProject_WithoutMilestones(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"data":{"project":{"_id":"p1","name":"A"}}}`)
	c := NewClient(srv.URL)

	got, err := c.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, got.Milestones)
}

func TestClient_GetProject_BareBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"_id":"p1","name":"Apollo","milestones":[{"_id":"m1","name":"Launch","dueDate":"2026-07-01","order":1}]}`)
	c := NewClient(srv.URL)

	got, err := c.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Apollo", got.Name)
	require.Len(t, got.Milestones, 1)
	assert.Equal(t, "m1", got.Milestones[0].ID)
}

func TestClient_GetProject_NoProject(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"data":{}}`)
	c := NewClient(srv.URL)

	_, err := c.GetProject(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestClient_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   string
		wantStatus int
		wantMsg    string
	}{
		{name: "server message", status: http.StatusBadRequest, response: `{"message":"Name is required"}`, wantStatus: 400, wantMsg: "Name is required"},
		{name: "no message", status: http.StatusNotFound, response: `{}`, wantStatus: 404, wantMsg: FallbackMessage},
		{name: "not json", status: http.StatusBadGateway, response: `<html>bad gateway</html>`, wantStatus: 502, wantMsg: FallbackMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.response)
			c := NewClient(srv.URL)

			_, err := c.CreateMilestone(context.Background(), "p1", model.MilestoneInput{Name: "x"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestClient_TransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestClient_BreakerOpensOn5xxOnly(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, WithBreaker(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour}))

	for i := 0; i < 3; i++ {
		_, _ = c.ListProjects(context.Background())
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.BreakerState())
	assert.Equal(t, int32(3), hits.Load())

	status.Store(http.StatusInternalServerError)
	for i := 0; i < 2; i++ {
		_, _ = c.ListProjects(context.Background())
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.BreakerState())

	_, err := c.ListProjects(context.Background())
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
	assert.Equal(t, FallbackMessage, Message(err))
	assert.Equal(t, int32(5), hits.Load())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, FallbackMessage, Message(errors.New("boom")))
	assert.Equal(t, "quota", Message(&Error{StatusCode: 429, Message: "quota"}))
}
