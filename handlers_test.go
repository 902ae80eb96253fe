package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrideal/models"
	"agrideal/negotiation"
	"agrideal/pricing"
	"agrideal/registry"
)

func newTestApp() *App {
	return &App{
		registry:  registry.New(nil),
		directory: negotiation.NewDirectory(pricing.Local{}, nil, 0),
	}
}

func squareJSON(x, y, size float64) string {
	return fmt.Sprintf(
		`{"type":"Polygon","coordinates":[[[%[1]v,%[2]v],[%[3]v,%[2]v],[%[3]v,%[4]v],[%[1]v,%[4]v],[%[1]v,%[2]v]]]}`,
		x, y, x+size, y+size)
}

func postArea(t *testing.T, srv *httptest.Server, geoJSON, crop string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(createAreaReq{GeoJSON: geoJSON, CropType: crop})
	resp, err := http.Post(srv.URL+"/areas", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post /areas: %v", err)
	}
	return resp
}

func TestAreasEndpoints(t *testing.T) {
	srv := httptest.NewServer(newTestApp().routes())
	defer srv.Close()

	// Two disjoint parcels are accepted.
	resp := postArea(t, srv, squareJSON(0, 0, 1), "coffee")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insert first parcel: status %d", resp.StatusCode)
	}
	var first models.Parcel
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode parcel: %v", err)
	}
	resp.Body.Close()

	resp = postArea(t, srv, squareJSON(2, 2, 1), "rice")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insert second parcel: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A conflicting polygon is rejected with the overlap code.
	resp = postArea(t, srv, squareJSON(0.5, 0.5, 1), "corn")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overlapping insert: status %d, want 409", resp.StatusCode)
	}
	var e errorResp
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	resp.Body.Close()
	if e.Error != codeOverlap {
		t.Fatalf("overlap error code = %q, want %q", e.Error, codeOverlap)
	}

	// Malformed geometry gets its own distinct code.
	resp, err := http.Post(srv.URL+"/areas", "application/json",
		bytes.NewBufferString(`{"geoJson":"{not json"}`))
	if err != nil {
		t.Fatalf("post /areas: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed insert: status %d, want 400", resp.StatusCode)
	}
	e = errorResp{}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	resp.Body.Close()
	if e.Error != codeMalformed {
		t.Fatalf("malformed error code = %q, want %q", e.Error, codeMalformed)
	}

	// List returns accepted parcels in insertion order.
	resp, err = http.Get(srv.URL + "/areas")
	if err != nil {
		t.Fatalf("get /areas: %v", err)
	}
	var list []models.Parcel
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list) != 2 || list[0].CropType != "coffee" || list[1].CropType != "rice" {
		t.Fatalf("list = %+v", list)
	}

	// Lookup by id, and a miss for an unknown id.
	resp, err = http.Get(srv.URL + "/areas/" + first.ID.Hex())
	if err != nil {
		t.Fatalf("get /areas/{id}: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by id: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/areas/ffffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("get unknown id: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id: status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	app := newTestApp()
	srv := httptest.NewServer(app.routes())
	defer srv.Close()

	resp := postArea(t, srv, squareJSON(0, 0, 1), "coffee")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insert parcel: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	var body struct {
		Status   string `json:"status"`
		Parcels  int    `json:"parcels"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if body.Status != "ok" || body.Parcels != 1 || body.Sessions != 0 {
		t.Fatalf("healthz = %+v", body)
	}
}
