package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/montaza/internal/auth"
	"github.com/erazemk/montaza/internal/blob"
	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/metrics"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

const (
	testJWTSecret  = "test-secret"
	testPassphrase = "correct horse battery"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)

	blobs, err := blob.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating blob store: %v", err)
	}
	hub := live.NewHub(slog.Default())
	t.Cleanup(hub.Close)

	hash, err := auth.HashPassphrase(testPassphrase)
	if err != nil {
		t.Fatalf("hashing passphrase: %v", err)
	}
	if err := store.SetSetting(context.Background(), database, store.SettingAdminPassphrase, hash); err != nil {
		t.Fatalf("storing passphrase: %v", err)
	}

	router := NewRouter(&Deps{
		DB:        database,
		Ledger:    ledger.New(database),
		Blobs:     blobs,
		Hub:       hub,
		Metrics:   metrics.New(nil),
		JWTSecret: testJWTSecret,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func login(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, server.URL+"/api/auth/login", "", map[string]string{"passphrase": testPassphrase})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var body loginResponse
	decode(t, resp, &body)
	if body.Token == "" || body.Role != model.RoleAdmin {
		t.Fatalf("unexpected login response: %+v", body)
	}
	return body.Token
}

// do sends a JSON request. An empty token sends no Authorization header.
func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s",
			resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func createItem(t *testing.T, server *httptest.Server, name string, qty int) model.Item {
	t.Helper()
	resp := do(t, http.MethodPost, server.URL+"/api/items", "",
		map[string]any{"name": name, "category": model.CategoryFurniture, "quantity": qty})
	expectStatus(t, resp, http.StatusCreated)
	var item model.Item
	decode(t, resp, &item)
	return item
}

func createEvent(t *testing.T, server *httptest.Server, name string) model.Event {
	t.Helper()
	resp := do(t, http.MethodPost, server.URL+"/api/events", "",
		map[string]any{"name": name, "location": "Lisboa", "date": "2026-06-01"})
	expectStatus(t, resp, http.StatusCreated)
	var e model.Event
	decode(t, resp, &e)
	return e
}

func checkout(t *testing.T, server *httptest.Server, itemID, eventID int64, qty int) *http.Response {
	t.Helper()
	return do(t, http.MethodPost, server.URL+"/api/checkouts", "",
		map[string]any{"item_id": itemID, "event_id": eventID, "quantity": qty})
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: 80, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func uploadPhoto(t *testing.T, server *httptest.Server, eventID int64) model.AlbumEntry {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "photo.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write(pngBytes(t))
	mw.Close()

	url := fmt.Sprintf("%s/api/events/%d/photos", server.URL, eventID)
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("uploading photo: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	expectStatus(t, resp, http.StatusCreated)

	var entry model.AlbumEntry
	decode(t, resp, &entry)
	return entry
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/api/auth/login", "", map[string]string{"passphrase": "wrong one"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad passphrase, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, server.URL+"/api/auth/login", "", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing passphrase, got %d", resp.StatusCode)
	}

	login(t, server)
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/api/health", "", nil)
	expectStatus(t, resp, http.StatusOK)

	var body struct {
		Status        string `json:"status"`
		SchemaVersion int64  `json:"schema_version"`
	}
	decode(t, resp, &body)
	if body.Status != "ok" || body.SchemaVersion < 1 {
		t.Errorf("unexpected health response: %+v", body)
	}
}

func TestInvalidToken(t *testing.T) {
	server := setupTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/api/items", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", resp.StatusCode)
	}

	// No token is crew access.
	resp = do(t, http.MethodGet, server.URL+"/api/items", "", nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server)

	resp := do(t, http.MethodPost, server.URL+"/api/auth/logout", token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, server.URL+"/api/items", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for revoked token, got %d", resp.StatusCode)
	}
}

func TestLogoutRequiresAdmin(t *testing.T) {
	server := setupTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/api/auth/logout", "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for crew logout, got %d", resp.StatusCode)
	}
}

func TestChangePassphrase(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server)

	resp := do(t, http.MethodPut, server.URL+"/api/auth/passphrase", token,
		map[string]string{"current": "wrong one", "new": "another passphrase"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current passphrase, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, server.URL+"/api/auth/passphrase", token,
		map[string]string{"current": testPassphrase, "new": "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for weak passphrase, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, server.URL+"/api/auth/passphrase", token,
		map[string]string{"current": testPassphrase, "new": "another passphrase"})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodPost, server.URL+"/api/auth/login", "", map[string]string{"passphrase": "another passphrase"})
	expectStatus(t, resp, http.StatusOK)
}

func TestItemsAPIFlow(t *testing.T) {
	server := setupTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/api/items", "", map[string]any{"name": "Cadeira"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without quantity, got %d", resp.StatusCode)
	}

	item := createItem(t, server, "Cadeira", 20)
	if item.Quantity != 20 || item.Category != model.CategoryFurniture {
		t.Errorf("unexpected item: %+v", item)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/items?category=furniture", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var items []model.Item
	decode(t, resp, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/items/%d", server.URL, 999), "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
}

func TestCheckoutFlow(t *testing.T) {
	server := setupTestServer(t)
	item := createItem(t, server, "Cadeira", 20)
	first := createEvent(t, server, "Casamento")
	second := createEvent(t, server, "Batizado")

	resp := checkout(t, server, item.ID, first.ID, 15)
	expectStatus(t, resp, http.StatusCreated)
	var c model.Checkout
	decode(t, resp, &c)
	if c.Quantity != 15 || c.Destination != model.DefaultDestination {
		t.Errorf("unexpected checkout: %+v", c)
	}

	// Only 5 left at base.
	resp = checkout(t, server, item.ID, second.ID, 10)
	expectStatus(t, resp, http.StatusConflict)
	var rejected struct {
		Code    string                        `json:"code"`
		Details ledger.InsufficientStockError `json:"details"`
	}
	decode(t, resp, &rejected)
	if rejected.Code != metrics.ReasonInsufficientStock {
		t.Errorf("expected code %q, got %q", metrics.ReasonInsufficientStock, rejected.Code)
	}
	if rejected.Details != (ledger.InsufficientStockError{Requested: 10, Available: 5, Total: 20}) {
		t.Errorf("unexpected details: %+v", rejected.Details)
	}

	resp = checkout(t, server, item.ID, second.ID, 0)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/items/%d/stock", server.URL, item.ID), "", nil)
	expectStatus(t, resp, http.StatusOK)
	var st model.Stock
	decode(t, resp, &st)
	if st.Total != 20 || st.Out != 15 || st.Available != 5 || len(st.Checkouts) != 1 {
		t.Errorf("unexpected stock: %+v", st)
	}

	// Partial then over then full return.
	returnURL := fmt.Sprintf("%s/api/checkouts/%d/return", server.URL, c.ID)
	resp = do(t, http.MethodPost, returnURL, "", map[string]int{"quantity": 5})
	expectStatus(t, resp, http.StatusOK)
	var ret returnResponse
	decode(t, resp, &ret)
	if ret.Full || ret.Remaining != 10 || ret.Available != 10 {
		t.Errorf("unexpected partial return: %+v", ret)
	}

	resp = do(t, http.MethodPost, returnURL, "", map[string]int{"quantity": 11})
	expectStatus(t, resp, http.StatusConflict)
	var over struct {
		Details ledger.OverReturnError `json:"details"`
	}
	decode(t, resp, &over)
	if over.Details != (ledger.OverReturnError{Requested: 11, Outstanding: 10}) {
		t.Errorf("unexpected over-return details: %+v", over.Details)
	}

	resp = do(t, http.MethodPost, returnURL, "", map[string]int{"quantity": 10})
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &ret)
	if !ret.Full || ret.Remaining != 0 || ret.Available != 20 {
		t.Errorf("unexpected full return: %+v", ret)
	}

	resp = do(t, http.MethodPost, returnURL, "", map[string]int{"quantity": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after full return, got %d", resp.StatusCode)
	}
}

func TestFinalizeGate(t *testing.T) {
	server := setupTestServer(t)
	chairs := createItem(t, server, "Cadeira", 20)
	tables := createItem(t, server, "Mesa", 4)
	e := createEvent(t, server, "Casamento")

	var checkouts []model.Checkout
	for _, id := range []int64{chairs.ID, tables.ID} {
		resp := checkout(t, server, id, e.ID, 2)
		expectStatus(t, resp, http.StatusCreated)
		var c model.Checkout
		decode(t, resp, &c)
		checkouts = append(checkouts, c)
	}

	checkURL := fmt.Sprintf("%s/api/events/%d/finalize-check", server.URL, e.ID)
	resp := do(t, http.MethodGet, checkURL, "", nil)
	expectStatus(t, resp, http.StatusOK)
	var check finalizeCheckResponse
	decode(t, resp, &check)
	if check != (finalizeCheckResponse{PendingItems: 2, MissingPhotos: true}) {
		t.Errorf("unexpected finalize check: %+v", check)
	}

	statusURL := fmt.Sprintf("%s/api/events/%d/status", server.URL, e.ID)
	resp = do(t, http.MethodPut, statusURL, "", map[string]string{"status": "finalized"})
	expectStatus(t, resp, http.StatusConflict)
	var blocked struct {
		Details ledger.FinalizeBlockedError `json:"details"`
	}
	decode(t, resp, &blocked)
	if blocked.Details != (ledger.FinalizeBlockedError{PendingItems: 2, MissingPhotos: true}) {
		t.Errorf("unexpected blocked details: %+v", blocked.Details)
	}

	for _, c := range checkouts {
		resp := do(t, http.MethodPost, fmt.Sprintf("%s/api/checkouts/%d/return", server.URL, c.ID), "",
			map[string]int{"quantity": c.Quantity})
		expectStatus(t, resp, http.StatusOK)
	}
	entry := uploadPhoto(t, server, e.ID)

	resp = do(t, http.MethodGet, server.URL+"/api/photos/"+entry.BlobRef, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}

	resp = do(t, http.MethodGet, checkURL, "", nil)
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &check)
	if !check.Ready {
		t.Errorf("expected event to be ready, got %+v", check)
	}

	resp = do(t, http.MethodPut, statusURL, "", map[string]string{"status": "finalized"})
	expectStatus(t, resp, http.StatusOK)
	var finalized model.Event
	decode(t, resp, &finalized)
	if finalized.Status != model.EventFinalized {
		t.Errorf("expected finalized, got %q", finalized.Status)
	}

	// Finalized events are frozen.
	resp = checkout(t, server, chairs.ID, e.ID, 1)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for checkout on finalized event, got %d", resp.StatusCode)
	}
}

func TestInvalidStatus(t *testing.T) {
	server := setupTestServer(t)
	e := createEvent(t, server, "Casamento")

	resp := do(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d/status", server.URL, e.ID), "",
		map[string]string{"status": "cancelled"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", resp.StatusCode)
	}
}

func TestDeleteFinalizedEventRequiresAdmin(t *testing.T) {
	server := setupTestServer(t)
	e := createEvent(t, server, "Casamento")
	uploadPhoto(t, server, e.ID)

	resp := do(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d/status", server.URL, e.ID), "",
		map[string]string{"status": "finalized"})
	expectStatus(t, resp, http.StatusOK)

	eventURL := fmt.Sprintf("%s/api/events/%d", server.URL, e.ID)
	resp = do(t, http.MethodDelete, eventURL, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 without admin token, got %d", resp.StatusCode)
	}

	token := login(t, server)
	resp = do(t, http.MethodDelete, eventURL, token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, eventURL, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDeleteItemWithCheckouts(t *testing.T) {
	server := setupTestServer(t)
	item := createItem(t, server, "Cadeira", 20)
	e := createEvent(t, server, "Casamento")
	expectStatus(t, checkout(t, server, item.ID, e.ID, 3), http.StatusCreated)

	itemURL := fmt.Sprintf("%s/api/items/%d", server.URL, item.ID)
	resp := do(t, http.MethodDelete, itemURL, "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 with outstanding checkouts, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, itemURL+"?cascade=true", "", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/checkouts?event_id=%d", server.URL, e.ID), "", nil)
	expectStatus(t, resp, http.StatusOK)
	var checkouts []model.Checkout
	decode(t, resp, &checkouts)
	if len(checkouts) != 0 {
		t.Errorf("expected checkouts to be removed, got %d", len(checkouts))
	}
}

func TestUpdateItemBelowOutstanding(t *testing.T) {
	server := setupTestServer(t)
	item := createItem(t, server, "Cadeira", 20)
	e := createEvent(t, server, "Casamento")
	expectStatus(t, checkout(t, server, item.ID, e.ID, 12), http.StatusCreated)

	resp := do(t, http.MethodPut, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), "",
		map[string]any{"name": "Cadeira", "category": model.CategoryFurniture, "quantity": 10})
	expectStatus(t, resp, http.StatusConflict)
	var body struct {
		Details ledger.QuantityConflictError `json:"details"`
	}
	decode(t, resp, &body)
	if body.Details != (ledger.QuantityConflictError{Requested: 10, Outstanding: 12}) {
		t.Errorf("unexpected details: %+v", body.Details)
	}
}

func TestMembersAndRoster(t *testing.T) {
	server := setupTestServer(t)

	var ids []int64
	for _, name := range []string{"Ana", "Bruno"} {
		resp := do(t, http.MethodPost, server.URL+"/api/members", "", map[string]string{"name": name})
		expectStatus(t, resp, http.StatusCreated)
		var m model.Member
		decode(t, resp, &m)
		if m.Role != model.MemberAssembler {
			t.Errorf("expected default role, got %q", m.Role)
		}
		ids = append(ids, m.ID)
	}

	resp := do(t, http.MethodPost, server.URL+"/api/members", "", map[string]string{"name": "Ana"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate name, got %d", resp.StatusCode)
	}

	e := createEvent(t, server, "Casamento")
	rosterURL := fmt.Sprintf("%s/api/events/%d/roster", server.URL, e.ID)
	resp = do(t, http.MethodPut, rosterURL, "", map[string][]int64{"member_ids": {ids[1], ids[0]}})
	expectStatus(t, resp, http.StatusOK)
	var roster []model.Member
	decode(t, resp, &roster)
	if len(roster) != 2 || roster[0].Name != "Bruno" || roster[1].Name != "Ana" {
		t.Errorf("unexpected roster: %+v", roster)
	}

	resp = do(t, http.MethodDelete, fmt.Sprintf("%s/api/members/%d", server.URL, ids[1]), "", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/events/%d", server.URL, e.ID), "", nil)
	expectStatus(t, resp, http.StatusOK)
	var got model.Event
	decode(t, resp, &got)
	if len(got.Roster) != 1 || got.Roster[0].Name != "Ana" {
		t.Errorf("expected removed member to leave the roster, got %+v", got.Roster)
	}

	resp = do(t, http.MethodDelete, fmt.Sprintf("%s/api/members/%d", server.URL, ids[1]), "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for removed member, got %d", resp.StatusCode)
	}
}

func TestAgendaAndReminders(t *testing.T) {
	server := setupTestServer(t)
	createEvent(t, server, "Casamento")

	resp := do(t, http.MethodPost, server.URL+"/api/reminders", "",
		map[string]string{"date": "2026-06-01", "message": "Levar extensões"})
	expectStatus(t, resp, http.StatusCreated)

	resp = do(t, http.MethodPost, server.URL+"/api/reminders", "",
		map[string]string{"date": "01/06/2026", "message": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/agenda?date=2026-06-01", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var agenda model.Agenda
	decode(t, resp, &agenda)
	if len(agenda.Events) != 1 || len(agenda.Reminders) != 1 {
		t.Errorf("unexpected agenda: %+v", agenda)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/agenda?date=tomorrow", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad agenda date, got %d", resp.StatusCode)
	}
}

func TestPhotoUploadRejectsNonImage(t *testing.T) {
	server := setupTestServer(t)
	e := createEvent(t, server, "Casamento")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photo", "notes.txt")
	part.Write([]byte("definitely not an image"))
	mw.Close()

	resp, err := http.Post(fmt.Sprintf("%s/api/events/%d/photos", server.URL, e.ID), mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("uploading: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.StatusCode)
	}
}

func putItemImage(t *testing.T, server *httptest.Server, itemID int64) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write(pngBytes(t))
	mw.Close()

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/items/%d/image", server.URL, itemID), &body)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("uploading image: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestItemImage(t *testing.T) {
	server := setupTestServer(t)
	item := createItem(t, server, "Cadeira", 4)

	resp := putItemImage(t, server, item.ID)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/items/%d/image", server.URL, item.ID), "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}

	resp = do(t, http.MethodDelete, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), "", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = putItemImage(t, server, item.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for image of deleted item, got %d", resp.StatusCode)
	}
}
