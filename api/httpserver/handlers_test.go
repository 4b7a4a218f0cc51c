package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/scheduler"
	"github.com/andreiv46/auctiond/testutil"
)

func newAPIFixture(t *testing.T) (*auction.House, http.Handler) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	sched := scheduler.New(scheduler.Config{Now: clock.Now})
	house := auction.NewHouse(auction.Config{Sched: sched, Now: clock.Now})

	router := chi.NewRouter()
	NewAuctionHandler(house).RegisterRoutes(router)
	return house, router
}

func connectClient(t *testing.T, house *auction.House, name string) *auction.Client {
	t.Helper()
	c := auction.NewClient(testutil.NewCaptureSink(), "127.0.0.1:50000")
	house.AddClient(c)
	require.NoError(t, house.Connect(c, name))
	return c
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestItemsEndpoint(t *testing.T) {
	house, handler := newAPIFixture(t)

	rec := get(t, handler, "/api/items")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, "[]", rec.Body.String())

	alice := connectClient(t, house, "alice")
	require.NoError(t, house.AddItem("watch", 50, alice))

	rec = get(t, handler, "/api/items")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []auction.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "watch", items[0].Name)
	assert.Equal(t, 50, items[0].MinPrice)
	assert.Equal(t, "alice", items[0].Seller)
	assert.True(t, items[0].Active)
}

func TestItemEndpoint(t *testing.T) {
	house, handler := newAPIFixture(t)
	alice := connectClient(t, house, "alice")
	bob := connectClient(t, house, "bob")
	require.NoError(t, house.AddItem("watch", 50, alice))
	require.NoError(t, house.Bid("watch", 60, bob))

	rec := get(t, handler, "/api/items/watch")
	require.Equal(t, http.StatusOK, rec.Code)

	var item auction.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, 60, item.HighestBid)
	assert.Equal(t, "bob", item.HighestBidder)
	assert.Equal(t, 1, item.BidCount)

	rec = get(t, handler, "/api/items/telescope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Closed items read as not found, same as the info command.
	house.MarkExpired("watch")
	rec = get(t, handler, "/api/items/watch")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientsEndpoint(t *testing.T) {
	house, handler := newAPIFixture(t)
	connectClient(t, house, "alice")
	connectClient(t, house, "bob")

	rec := get(t, handler, "/api/clients")
	require.Equal(t, http.StatusOK, rec.Code)

	var clients []auction.ClientView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	require.Len(t, clients, 2)
	assert.Equal(t, "alice", clients[0].Name)
	assert.Equal(t, "bob", clients[1].Name)
	assert.NotEmpty(t, clients[0].ID)
}
