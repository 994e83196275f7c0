package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/memengine"
	"github.com/AntonStoeckl/lending-workflow-go/lending/api"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/listitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemsofowner"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/ownerinbox"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestsforitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/promcollector"
)

const (
	secret     = "test-secret-0123456789"
	cookieName = "lending_session"
)

var fakeNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type requestData struct {
	ID              string `json:"id"`
	RequesterID     string `json:"requesterId"`
	RequestedItemID string `json:"requestedItemId"`
	OfferedItemID   string `json:"offeredItemId"`
	Status          string `json:"status"`
	ResolvedBy      string `json:"resolvedBy"`
	Cascaded        bool   `json:"cascaded"`
}

type itemData struct {
	ID              string `json:"id"`
	ItemID          string `json:"itemId"`
	OwnerID         string `json:"ownerId"`
	Status          string `json:"status"`
	PendingRequests int    `json:"pendingRequests"`
}

func givenServerWithStore(t *testing.T, es shell.EventStore, opts ...api.Option) *api.Server {
	t.Helper()

	obs := shell.Observability{}
	deps := api.Dependencies{
		Engine:          transition.NewEngine(es, transition.WithRetryOptions(shell.WithBaseDelay(time.Millisecond))),
		ListItem:        listitem.NewCommandHandler(es),
		ItemDetails:     itemdetails.NewQueryHandler(es, obs),
		ItemsOfOwner:    itemsofowner.NewQueryHandler(es, obs),
		RequestDetails:  requestdetails.NewQueryHandler(es, obs),
		RequestsForItem: requestsforitem.NewQueryHandler(es, obs),
		OwnerInbox:      ownerinbox.NewQueryHandler(es, obs),
	}

	settings := api.Settings{
		JWTSecret:  secret,
		CookieName: cookieName,
		BodyLimit:  "64K",
	}

	return api.NewServer(deps, settings, append([]api.Option{api.WithClock(func() time.Time { return fakeNow })}, opts...)...)
}

func givenServer(t *testing.T) *api.Server {
	t.Helper()

	return givenServerWithStore(t, memengine.NewEventStore())
}

func givenCookie(t *testing.T, memberID string) *http.Cookie {
	t.Helper()

	token, err := api.IssueToken(secret, memberID, time.Hour, time.Now())
	require.NoError(t, err, "error in arranging test data")

	return &http.Cookie{Name: cookieName, Value: token}
}

func call(t *testing.T, server *api.Server, method, path, memberID, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if memberID != "" {
		req.AddCookie(givenCookie(t, memberID))
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func givenListedItem(t *testing.T, server *api.Server, ownerID, itemID, mode string) {
	t.Helper()

	rec, _ := call(t, server, http.MethodPost, "/items", ownerID,
		`{"itemId":"`+itemID+`","title":"Title of `+itemID+`","mode":"`+mode+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, "error in arranging test data: %s", rec.Body.String())
}

func givenCreatedTransaction(t *testing.T, server *api.Server, requesterID, body string) requestData {
	t.Helper()

	rec, env := call(t, server, http.MethodPost, "/transactions", requesterID, body)
	require.Equal(t, http.StatusCreated, rec.Code, "error in arranging test data: %s", rec.Body.String())

	return decode[requestData](t, env)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))

	return out
}

func Test_CreateTransaction_FreeRequest(t *testing.T) {
	// arrange
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")

	// act
	rec, env := call(t, server, http.MethodPost, "/transactions", "alice",
		`{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

	// assert
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	request := decode[requestData](t, env)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, "alice", request.RequesterID)
	assert.Equal(t, "pending", request.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	_, itemEnv := call(t, server, http.MethodGet, "/items/I1", "alice", "")
	item := decode[itemData](t, itemEnv)
	assert.Equal(t, "pending", item.Status)
	assert.Equal(t, 1, item.PendingRequests)
}

func Test_CreateTransaction_WithoutCookie_IsUnauthorized(t *testing.T) {
	server := givenServer(t)

	rec, env := call(t, server, http.MethodPost, "/transactions", "",
		`{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func Test_CreateTransaction_WithForgedCookie_IsUnauthorized(t *testing.T) {
	server := givenServer(t)
	token, err := api.IssueToken("some-other-secret-value", "alice", time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/transactions/inbox", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_CreateTransaction_InvalidBody_ReportsFields(t *testing.T) {
	server := givenServer(t)

	rec, env := call(t, server, http.MethodPost, "/transactions", "alice", `{"mode":"Gift"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	fields := map[string]string{}
	for _, e := range env.Errors {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "is required", fields["requestedItemId"])
	assert.Equal(t, "is required", fields["ownerId"])
	assert.Contains(t, fields["mode"], "Free, Exchange")
}

func Test_CreateTransaction_MalformedJSON(t *testing.T) {
	server := givenServer(t)

	rec, env := call(t, server, http.MethodPost, "/transactions", "alice", `{"requestedItemId":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "malformed request body")
}

func Test_CreateTransaction_MapsBusinessErrorsToStatusCodes(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{
			name:   "unknown item",
			body:   `{"requestedItemId":"nope","ownerId":"owner","mode":"Free"}`,
			status: http.StatusNotFound,
		},
		{
			name:   "offered item of somebody else",
			body:   `{"requestedItemId":"I2","ownerId":"owner","mode":"Exchange","offeredItemId":"B1"}`,
			status: http.StatusForbidden,
		},
		{
			name:   "offered item equals requested item",
			body:   `{"requestedItemId":"I2","ownerId":"owner","mode":"Exchange","offeredItemId":"I2"}`,
			status: http.StatusBadRequest,
			field:  "offeredItemId",
		},
		{
			name:   "exchange without offered item",
			body:   `{"requestedItemId":"I2","ownerId":"owner","mode":"Exchange"}`,
			status: http.StatusBadRequest,
			field:  "offeredItemId",
		},
		{
			name:   "mode mismatch",
			body:   `{"requestedItemId":"I1","ownerId":"owner","mode":"Exchange","offeredItemId":"A1"}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := givenServer(t)
			givenListedItem(t, server, "owner", "I1", "Free")
			givenListedItem(t, server, "owner", "I2", "Exchange")
			givenListedItem(t, server, "alice", "A1", "Free")
			givenListedItem(t, server, "bob", "B1", "Free")

			rec, env := call(t, server, http.MethodPost, "/transactions", "alice", tc.body)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			if tc.field != "" {
				require.NotEmpty(t, env.Errors)
				assert.Equal(t, tc.field, env.Errors[0].Field)
			}
		})
	}
}

func Test_CreateTransaction_SameRequestIDTwice_IsIdempotent(t *testing.T) {
	// arrange
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")
	body := `{"requestId":"T1","requestedItemId":"I1","ownerId":"owner","mode":"Free"}`
	givenCreatedTransaction(t, server, "alice", body)

	// act
	rec, env := call(t, server, http.MethodPost, "/transactions", "alice", body)

	// assert
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "T1", decode[requestData](t, env).ID)
}

func Test_ResolveTransaction_ApproveExchange(t *testing.T) {
	// arrange
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I2", "Exchange")
	givenListedItem(t, server, "alice", "A1", "Free")
	created := givenCreatedTransaction(t, server, "alice",
		`{"requestedItemId":"I2","ownerId":"owner","mode":"Exchange","offeredItemId":"A1"}`)

	// act
	rec, env := call(t, server, http.MethodPatch, "/transactions/"+created.ID, "owner", `{"status":"approved"}`)

	// assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resolved := decode[requestData](t, env)
	assert.Equal(t, "approved", resolved.Status)
	assert.Equal(t, "owner", resolved.ResolvedBy)

	for _, itemID := range []string{"I2", "A1"} {
		_, itemEnv := call(t, server, http.MethodGet, "/items/"+itemID, "owner", "")
		assert.Equal(t, "approved", decode[itemData](t, itemEnv).Status, itemID)
	}
}

func Test_ResolveTransaction_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		actor   string
		path    func(id string) string
		body    string
		status  int
		field   string
		resolve bool
	}{
		{
			name:   "unknown request",
			actor:  "owner",
			path:   func(string) string { return "/transactions/nope" },
			body:   `{"status":"approved"}`,
			status: http.StatusNotFound,
		},
		{
			name:   "not the owner",
			actor:  "bob",
			path:   func(id string) string { return "/transactions/" + id },
			body:   `{"status":"approved"}`,
			status: http.StatusForbidden,
		},
		{
			name:   "invalid decision",
			actor:  "owner",
			path:   func(id string) string { return "/transactions/" + id },
			body:   `{"status":"maybe"}`,
			status: http.StatusBadRequest,
			field:  "status",
		},
		{
			name:    "already resolved",
			actor:   "owner",
			path:    func(id string) string { return "/transactions/" + id },
			body:    `{"status":"rejected"}`,
			status:  http.StatusBadRequest,
			resolve: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := givenServer(t)
			givenListedItem(t, server, "owner", "I1", "Free")
			created := givenCreatedTransaction(t, server, "alice",
				`{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

			if tc.resolve {
				rec, _ := call(t, server, http.MethodPatch, "/transactions/"+created.ID, "owner", `{"status":"approved"}`)
				require.Equal(t, http.StatusOK, rec.Code, "error in arranging test data")
			}

			rec, env := call(t, server, http.MethodPatch, tc.path(created.ID), tc.actor, tc.body)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			if tc.field != "" {
				require.NotEmpty(t, env.Errors)
				assert.Equal(t, tc.field, env.Errors[0].Field)
			}
		})
	}
}

func Test_TransactionDetails_VisibleToParticipantsOnly(t *testing.T) {
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")
	created := givenCreatedTransaction(t, server, "alice", `{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

	for actor, status := range map[string]int{"alice": http.StatusOK, "owner": http.StatusOK, "carol": http.StatusForbidden} {
		rec, _ := call(t, server, http.MethodGet, "/transactions/"+created.ID, actor, "")
		assert.Equal(t, status, rec.Code, actor)
	}
}

func Test_OwnerInbox_ListsPendingRequestsOfTheActor(t *testing.T) {
	// arrange
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")
	givenListedItem(t, server, "owner", "I3", "Free")
	givenCreatedTransaction(t, server, "alice", `{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)
	givenCreatedTransaction(t, server, "bob", `{"requestedItemId":"I3","ownerId":"owner","mode":"Free"}`)

	// act
	rec, env := call(t, server, http.MethodGet, "/transactions/inbox", "owner", "")

	// assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inbox := decode[struct {
		Requests []requestData `json:"requests"`
		Count    int           `json:"count"`
	}](t, env)
	assert.Equal(t, 2, inbox.Count)

	_, aliceEnv := call(t, server, http.MethodGet, "/transactions/inbox", "alice", "")
	assert.JSONEq(t, `{"requests":[],"count":0}`, string(aliceEnv.Data))
}

func Test_ItemTransactions_OwnerOnly(t *testing.T) {
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")
	givenCreatedTransaction(t, server, "alice", `{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

	rec, env := call(t, server, http.MethodGet, "/items/I1/transactions", "owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"count":1`)

	rec, _ = call(t, server, http.MethodGet, "/items/I1/transactions", "alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_ListItem_IdempotentAndConflicting(t *testing.T) {
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")

	rec, _ := call(t, server, http.MethodPost, "/items", "owner", `{"itemId":"I1","title":"Title of I1","mode":"Free"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, server, http.MethodPost, "/items", "owner", `{"itemId":"I1","title":"Another title","mode":"Free"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_ItemsOfOwner(t *testing.T) {
	server := givenServer(t)
	givenListedItem(t, server, "owner", "I1", "Free")
	givenListedItem(t, server, "owner", "I2", "Exchange")
	givenListedItem(t, server, "alice", "A1", "Free")

	rec, env := call(t, server, http.MethodGet, "/items?owner=owner", "alice", "")

	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[struct {
		Items []itemData `json:"items"`
		Count int        `json:"count"`
	}](t, env)
	assert.Equal(t, 2, items.Count)
	assert.Equal(t, "I1", items.Items[0].ID)
}

type unreachableEventStore struct{}

func (unreachableEventStore) Query(context.Context, eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error) {
	return nil, 0, errors.New("connection refused")
}

func (unreachableEventStore) Append(context.Context, eventstore.Filter, eventstore.MaxSequenceNumberUint, ...eventstore.StorableEvent) error {
	return errors.New("connection refused")
}

func Test_InfrastructureFailure_Is500WithRetryAfter(t *testing.T) {
	server := givenServerWithStore(t, unreachableEventStore{})

	rec, env := call(t, server, http.MethodPost, "/transactions", "alice",
		`{"requestedItemId":"I1","ownerId":"owner","mode":"Free"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.NotContains(t, env.Message, "connection refused")
}

func Test_Healthz_AndMetrics(t *testing.T) {
	// arrange
	es := memengine.NewEventStore()
	collector := promcollector.New()
	server := api.NewServer(api.Dependencies{
		HealthCheck:    es,
		MetricsHandler: collector.Handler(),
	}, api.Settings{JWTSecret: secret, CookieName: cookieName}, api.WithMetrics(collector))

	// act
	rec, env := call(t, server, http.MethodGet, "/healthz", "", "")

	// assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics := httptest.NewRecorder()
	server.Handler().ServeHTTP(metrics, req)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `lending_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func Test_RateLimiter_DeniesBurstOverflow(t *testing.T) {
	server := api.NewServer(api.Dependencies{}, api.Settings{
		JWTSecret:         secret,
		CookieName:        cookieName,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})

	first, _ := call(t, server, http.MethodGet, "/transactions/inbox", "", "")
	second, _ := call(t, server, http.MethodGet, "/transactions/inbox", "", "")

	assert.Equal(t, http.StatusUnauthorized, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func Test_IssueToken_RequiresSubject(t *testing.T) {
	_, err := api.IssueToken(secret, "", time.Hour, time.Now())

	assert.ErrorIs(t, err, api.ErrMissingSubject)
}
