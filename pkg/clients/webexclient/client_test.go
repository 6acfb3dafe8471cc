package webexclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// staticAuth hands out fixed tokens and counts refreshes.
type staticAuth struct {
	token     string
	refreshed string
	refreshes int
}

func (a *staticAuth) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: a.token, TokenType: "Bearer"}, nil
}

func (a *staticAuth) Refresh(ctx context.Context) (*oauth2.Token, error) {
	a.refreshes++
	return &oauth2.Token{AccessToken: a.refreshed, TokenType: "Bearer"}, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *staticAuth) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	auth := &staticAuth{token: "stale", refreshed: "fresh"}
	return NewClientWithBaseURL(server.URL, auth, zap.NewNop()), auth
}

func TestClient_RetriesOnceAfterTokenRefresh(t *testing.T) {
	var calls int
	client, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"ok"}`)
	}))

	var out idJSON
	err := client.get(context.Background(), "autoAttendants", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.ID)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, auth.refreshes)
}

func TestClient_SecondUnauthorizedIsFatal(t *testing.T) {
	client, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.get(context.Background(), "autoAttendants", &idJSON{})
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, auth.refreshes)
}

func TestClient_NonSuccessStatusCarriesContext(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such schedule", http.StatusNotFound)
	}))

	err := client.get(context.Background(), "locations/loc1/schedules", &idJSON{})
	require.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "locations/loc1/schedules")
}

func TestFetchScheduleDuties_DeletesExpiredEvents(t *testing.T) {
	expiredID := uuid.New().String()
	currentID := uuid.New().String()
	var deleted []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]string{
				{"id": expiredID, "name": "2023-12-01D", "startDate": "2023-12-01", "startTime": "10:00", "endDate": "2023-12-01", "endTime": "20:00"},
				{"id": currentID, "name": "2024-01-05N", "startDate": "2024-01-05", "startTime": "20:00", "endDate": "2024-01-06", "endTime": "10:00"},
			},
		})
	}))

	cutoff := time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC)
	eventByDuty, err := client.FetchScheduleDuties(context.Background(), "loc1", "sched1", cutoff)
	require.NoError(t, err)

	require.Len(t, deleted, 1)
	assert.Contains(t, deleted[0], expiredID)

	require.Len(t, eventByDuty, 1)
	assert.Equal(t, currentID, eventByDuty[model.NewDuty(2024, time.January, 5, model.ShiftNight)].ID)
}

func TestFetchScheduleDuties_OffGridStartTime(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]string{
				{"id": "ev1", "name": "broken", "startDate": "2024-01-05", "startTime": "11:00", "endDate": "2024-01-05", "endTime": "20:00"},
			},
		})
	}))

	_, err := client.FetchScheduleDuties(context.Background(), "loc1", "sched1", time.Time{})
	require.ErrorIs(t, err, model.ErrInvalidScheduleData)
	assert.Contains(t, err.Error(), "2024-01-05")
}

// fakeWebex serves a minimal one-attendant deployment.
func fakeWebex(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/autoAttendants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"autoAttendants": []map[string]string{{"id": "att1", "name": "Reception", "locationId": "loc1"}},
		})
	})
	mux.HandleFunc("/locations/loc1/schedules", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"schedules": []map[string]string{
				{"id": "sched1", "name": "Anna", "type": "holidays"},
				{"id": "sched2", "name": "Opening hours", "type": "businessHours"},
			},
		})
	})
	mux.HandleFunc("/locations/loc1/autoAttendants/att1/callForwarding", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"callForwarding": map[string]any{
				"rules": []map[string]any{
					{"id": "rule1", "name": "Anna", "enabled": true, "forwardTo": "015112345"},
					{"id": "rule2", "name": "Disabled", "enabled": false, "forwardTo": "000"},
				},
			},
		})
	})
	mux.HandleFunc("/locations/loc1/autoAttendants/att1/callForwarding/selectiveRules/rule1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"holidaySchedule": "Anna"})
	})
	mux.HandleFunc("/locations/loc1/schedules/holidays/sched1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]string{
				{"id": "ev1", "name": "2024-01-05D", "startDate": "2024-01-05", "startTime": "10:00", "endDate": "2024-01-05", "endTime": "20:00"},
			},
		})
	})
	return mux
}

func TestGetAutoAttendant(t *testing.T) {
	client, _ := newTestClient(t, fakeWebex(t))

	attendant, err := client.GetAutoAttendant(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "att1", attendant.ID)
	assert.Equal(t, "loc1", attendant.LocationID)

	// Only the enabled rule is loaded.
	require.Len(t, attendant.RuleByMidwife, 1)
	anna := model.Midwife{Name: "Anna", Phone: "015112345"}
	rule, ok := attendant.RuleByMidwife[anna]
	require.True(t, ok)
	assert.Equal(t, "rule1", rule.ID)
	assert.Equal(t, "sched1", rule.ScheduleID)
	assert.Equal(t, "Anna", rule.ScheduleName)
	require.Len(t, rule.EventByDuty, 1)
	assert.Equal(t, "ev1", rule.EventByDuty[model.NewDuty(2024, time.January, 5, model.ShiftDay)].ID)
}

func TestGetAutoAttendant_AmbiguousCount(t *testing.T) {
	for _, count := range []int{0, 2} {
		attendants := make([]map[string]string, count)
		for i := range attendants {
			attendants[i] = map[string]string{"id": uuid.New().String(), "locationId": "loc1"}
		}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"autoAttendants": attendants})
		}))

		_, err := client.GetAutoAttendant(context.Background(), time.Time{})
		require.ErrorIs(t, err, model.ErrAmbiguousAttendant, "count %d", count)
	}
}

func TestGetAutoAttendant_RuleErrorNamesRule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/autoAttendants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"autoAttendants": []map[string]string{{"id": "att1", "locationId": "loc1"}},
		})
	})
	mux.HandleFunc("/locations/loc1/schedules", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"schedules": []map[string]string{}})
	})
	mux.HandleFunc("/locations/loc1/autoAttendants/att1/callForwarding", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"callForwarding": map[string]any{
				"rules": []map[string]any{{"id": "rule1", "name": "Anna", "enabled": true, "forwardTo": "0151"}},
			},
		})
	})
	mux.HandleFunc("/locations/loc1/autoAttendants/att1/callForwarding/selectiveRules/rule1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"holidaySchedule": "Missing"})
	})
	client, _ := newTestClient(t, mux)

	_, err := client.GetAutoAttendant(context.Background(), time.Time{})
	require.ErrorIs(t, err, model.ErrInvalidScheduleData)
	assert.Contains(t, err.Error(), "rule Anna")
	assert.Contains(t, err.Error(), "Missing")
}
