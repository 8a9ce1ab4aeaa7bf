package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"routewatch/internal/models"
)

var dehradunToChandigarh = models.RouteDescriptor{
	Name:     "dehradun_to_chandigarh",
	StartLat: 30.3165,
	StartLon: 78.0322,
	EndLat:   30.7333,
	EndLon:   76.7794,
}

func TestClient_RouteURL(t *testing.T) {
	c := NewClient("https://api.tomtom.com/", "k&y", time.Second)

	got := c.RouteURL(dehradunToChandigarh)

	want := "https://api.tomtom.com/routing/1/calculateRoute/30.3165,78.0322:30.7333,76.7794/json?key=k%26y&traffic=true"
	if got != want {
		t.Fatalf("RouteURL = %q; want %q", got, want)
	}
}

func TestClient_CalculateRoute_TableDriven(t *testing.T) {
	mux := http.NewServeMux()
	var gotPath, gotKey, gotTraffic string
	mux.HandleFunc("/routing/1/calculateRoute/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotTraffic = r.URL.Query().Get("traffic")

		w.Header().Set("Content-Type", "application/json")
		switch gotKey {
		case "good":
			_, _ = w.Write([]byte(`{"formatVersion":"0.0.12","routes":[{"summary":{"lengthInMeters":167000},"legs":[{"points":[{"latitude":30.3165,"longitude":78.0322}]}]}]}`))
		case "forbidden":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detailedError":{"code":"Forbidden","message":"You are not allowed to access this endpoint"}}`))
		case "garbage":
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		default:
			t.Fatalf("unexpected key: %s", gotKey)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name       string
		key        string
		wantErr    bool
		wantStatus int
	}{
		{name: "returns body on success", key: "good"},
		{name: "non-2xx is fetch failure", key: "forbidden", wantErr: true, wantStatus: http.StatusForbidden},
		{name: "non-JSON body is fetch failure", key: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(server.URL, tt.key, 5*time.Second)

			body, err := c.CalculateRoute(context.Background(), dehradunToChandigarh)

			if gotPath != "/routing/1/calculateRoute/30.3165,78.0322:30.7333,76.7794/json" {
				t.Errorf("unexpected path: %s", gotPath)
			}
			if gotTraffic != "true" {
				t.Errorf("traffic = %q; want true", gotTraffic)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("error presence mismatch: err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrFetchFailed) {
					t.Errorf("expected ErrFetchFailed, got %v", err)
				}
				var se *StatusError
				if tt.wantStatus != 0 && (!errors.As(err, &se) || se.Code != tt.wantStatus) {
					t.Errorf("expected StatusError %d, got %v", tt.wantStatus, err)
				}
				return
			}
			var resp Response
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatalf("body is not a route response: %v", err)
			}
			if len(resp.Routes) != 1 || resp.Routes[0].Summary.LengthInMeters == nil || *resp.Routes[0].Summary.LengthInMeters != 167000 {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestClient_CalculateRoute_ProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detailedError":{"code":"MAP_MATCHING_FAILURE","message":"Engine error while executing route request"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", time.Second).CalculateRoute(context.Background(), dehradunToChandigarh)

	if err == nil || !strings.Contains(err.Error(), "Engine error while executing route request") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}

func TestClient_CalculateRoute_TransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, "super-secret", time.Second).CalculateRoute(context.Background(), dehradunToChandigarh)

	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Fatalf("API key leaked into error: %v", err)
	}
}

func TestClient_CalculateRoute_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(server.URL, "k", 50*time.Millisecond).CalculateRoute(context.Background(), dehradunToChandigarh)

	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed on timeout, got %v", err)
	}
}
