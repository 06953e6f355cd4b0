package marketclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/device"
)

// newFakeBackend spins up an httptest server with a mux router and returns
// a client pointed at it
func newFakeBackend(t *testing.T, configure func(r *mux.Router)) *Client {
	t.Helper()

	router := mux.NewRouter()
	configure(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return NewClient(context.Background(), server.URL, "test-token", zap.NewNop())
}

func TestGetEnquiryRaw_ReturnsBackendBodyUntouched(t *testing.T) {
	body := `{"enquiry": {"id": 42, "title": "Tank inspection", "status": "5"}}`
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/get-single-enquiry", func(w http.ResponseWriter, req *http.Request) {
			var got map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			assert.Equal(t, float64(42), got["id"])
			assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))

			w.Write([]byte(body))
		}).Methods(http.MethodPost)
	})

	raw, err := client.GetEnquiryRaw(context.Background(), 42)
	require.NoError(t, err)

	// The body is cached as sent; normalization happens above the cache
	assert.JSONEq(t, body, string(raw))
}

func TestGetEnquiryRaw_EnvelopeFailureIsAnError(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/get-single-enquiry", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"success": false, "message": "Enquiry not found"}`))
		}).Methods(http.MethodPost)
	})

	_, err := client.GetEnquiryRaw(context.Background(), 42)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Enquiry not found", apiErr.Message)
}

func TestSubmitBid_RoundTrip(t *testing.T) {
	var got map[string]any
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/bid-for-enquiry", func(w http.ResponseWriter, req *http.Request) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			w.Write([]byte(`{"success": true, "message": "Bid placed"}`))
		}).Methods(http.MethodPost)
	})

	err := client.SubmitBid(context.Background(), BidRequest{
		EnquiryID:  42,
		Amount:     250,
		Dates:      []string{"2025-03-01", "2025-03-03"},
		Currencies: "USD",
		AmountType: "daily",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(42), got["id"])
	assert.Equal(t, float64(250), got["amount"])
	assert.Equal(t, "USD", got["currencies"])
	assert.Equal(t, "daily", got["amount_type"])
	assert.Equal(t, []any{"2025-03-01", "2025-03-03"}, got["dates"])
}

func TestSubmitBid_ServerMessageSurfacedVerbatim(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/bid-for-enquiry", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"success": false, "message": "You have already bid on this enquiry"}`))
		}).Methods(http.MethodPost)
	})

	err := client.SubmitBid(context.Background(), BidRequest{EnquiryID: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "You have already bid on this enquiry", apiErr.Message)
}

func TestSubmitBid_HTTPErrorWithoutMessage(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/bid-for-enquiry", func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "", http.StatusInternalServerError)
		}).Methods(http.MethodPost)
	})

	err := client.SubmitBid(context.Background(), BidRequest{EnquiryID: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "500")
}

func TestVideoInfo_AbsentLinkIsNotAnError(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/agora-video/enquiry/{id}", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "42", mux.Vars(req)["id"])
			w.Write([]byte(`{"data": {"participants": {}}}`))
		}).Methods(http.MethodGet)
	})

	info, err := client.VideoInfo(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, info.Scheduled())
}

func TestVideoInfo_JoineeLink(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/agora-video/enquiry/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"data": {"participants": {"joinee_link": "https://call.example/j/42"}}}`))
		}).Methods(http.MethodGet)
	})

	info, err := client.VideoInfo(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, info.Scheduled())
	assert.Equal(t, "https://call.example/j/42", info.JoineeLink)
}

func TestSubmitCheckIn_MultipartFields(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/enquiry-check-in", func(w http.ResponseWriter, req *http.Request) {
			require.NoError(t, req.ParseMultipartForm(10<<20))

			assert.Equal(t, "test-token", req.FormValue("token"))
			assert.Equal(t, "42", req.FormValue("enquiry_log_id"))
			assert.Equal(t, "9001", req.FormValue("master_log_id"))
			assert.Equal(t, "Jebel Ali Free Zone", req.FormValue("address"))
			assert.Equal(t, "25.01", req.FormValue("latitude"))
			assert.Equal(t, "55.06", req.FormValue("longitude"))
			assert.Equal(t, "on site", req.FormValue("note"))

			// The photo travels under both field names
			for _, field := range []string{"image", "imageAndroid"} {
				file, header, err := req.FormFile(field)
				require.NoError(t, err, field)
				assert.Equal(t, "site.jpg", header.Filename)
				file.Close()
			}

			w.Write([]byte(`{"success": true}`))
		}).Methods(http.MethodPost)
	})

	err := client.SubmitCheckIn(context.Background(), CheckInRequest{
		EnquiryLogID: 42,
		MasterLogID:  "9001",
		Address:      "Jebel Ali Free Zone",
		Latitude:     25.01,
		Longitude:    55.06,
		Photo:        device.Photo{Name: "site.jpg", Data: []byte("jpegdata"), Source: device.SourceCamera},
		Note:         "on site",
	})
	require.NoError(t, err)
}

func TestCheckInHistory(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/check-in-history/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"data": {"check_ins": [
				{"id": 1, "address": "Site A", "latitude": 1.5, "longitude": 2.5}
			]}}`))
		}).Methods(http.MethodGet)
	})

	history, err := client.CheckInHistory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Site A", history[0].Address)
}

func TestRefreshInspectorData_FailureIsSwallowed(t *testing.T) {
	client := newFakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/update-inspector-data", func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}).Methods(http.MethodPost)
	})

	// Must not panic and has nothing to return
	client.RefreshInspectorData(context.Background())
}
