package admission

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tablehost/internal/registry"
	"tablehost/internal/session"
	"tablehost/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	reg := registry.New(store.NewMemoryService(), time.Minute)
	t.Cleanup(reg.Stop)
	sessions := session.NewManager(reg)
	h := NewHandler(reg, sessions, NewMemoryService())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return h, srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateJoinListAndLeaveRoom(t *testing.T) {
	_, srv := newTestHandler(t)

	createResp := doJSON(t, http.MethodPost, srv.URL+"/rooms", createRoomRequest{
		PlayerName: "Owner", PlayerEmoji: "🦊", SBAmount: 10, InitialChips: 1000,
		DeviceID: "device-owner",
	})
	defer createResp.Body.Close()
	require.Equal(t, http.StatusOK, createResp.StatusCode)
	var created roomIdentityResponse
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	require.NotEmpty(t, created.RoomID)
	require.NotEmpty(t, created.PlayerID)

	joinResp := doJSON(t, http.MethodPost, srv.URL+"/rooms/join", joinRoomRequest{
		RoomID: created.RoomID, PlayerName: "Guest", PlayerEmoji: "🐻", DeviceID: "device-guest",
	})
	defer joinResp.Body.Close()
	require.Equal(t, http.StatusOK, joinResp.StatusCode)
	var joined roomIdentityResponse
	require.NoError(t, json.NewDecoder(joinResp.Body).Decode(&joined))
	require.Equal(t, created.RoomID, joined.RoomID)
	require.NotEqual(t, created.PlayerID, joined.PlayerID)

	// Re-joining with the same device id is idempotent: same player id back.
	rejoinResp := doJSON(t, http.MethodPost, srv.URL+"/rooms/join", joinRoomRequest{
		RoomID: created.RoomID, PlayerName: "Guest", PlayerEmoji: "🐻", DeviceID: "device-guest",
	})
	defer rejoinResp.Body.Close()
	var rejoined roomIdentityResponse
	require.NoError(t, json.NewDecoder(rejoinResp.Body).Decode(&rejoined))
	require.Equal(t, joined.PlayerID, rejoined.PlayerID)

	listResp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var rooms []roomSummary
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	require.Equal(t, created.RoomID, rooms[0].ID)
	require.Equal(t, "Owner", rooms[0].OwnerName)
	require.Equal(t, 2, rooms[0].PlayerCount)

	playerRoomResp, err := http.Get(srv.URL + "/player-room/" + joined.PlayerID)
	require.NoError(t, err)
	defer playerRoomResp.Body.Close()
	var lookup playerRoomResponse
	require.NoError(t, json.NewDecoder(playerRoomResp.Body).Decode(&lookup))
	require.NotNil(t, lookup.RoomID)
	require.Equal(t, created.RoomID, *lookup.RoomID)

	leaveResp := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+created.RoomID+"/leave/"+joined.PlayerID, nil)
	defer leaveResp.Body.Close()
	require.Equal(t, http.StatusOK, leaveResp.StatusCode)

	afterLeaveResp, err := http.Get(srv.URL + "/player-room/" + joined.PlayerID)
	require.NoError(t, err)
	defer afterLeaveResp.Body.Close()
	var afterLeave playerRoomResponse
	require.NoError(t, json.NewDecoder(afterLeaveResp.Body).Decode(&afterLeave))
	require.Nil(t, afterLeave.RoomID)
}

func TestCreateRoomRejectsMissingDeviceID(t *testing.T) {
	_, srv := newTestHandler(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/rooms", createRoomRequest{
		PlayerName: "Owner", SBAmount: 10, InitialChips: 1000,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinRoomReturnsNotFoundForUnknownRoom(t *testing.T) {
	_, srv := newTestHandler(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/rooms/join", joinRoomRequest{
		RoomID: "missing", PlayerName: "Guest", DeviceID: "device-guest",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRandomProfileReturnsANameAndEmoji(t *testing.T) {
	_, srv := newTestHandler(t)

	resp, err := http.Get(srv.URL + "/random-profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile profileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	require.NotEmpty(t, profile.Name)
	require.NotEmpty(t, profile.Emoji)
}
