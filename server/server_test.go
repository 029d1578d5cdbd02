package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/vs74/pagetree/server"
)

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response of %s %s: %v", method, target, err)
	}
	return resp.StatusCode, decoded
}

func TestServerEndToEnd(t *testing.T) {
	app := server.NewHandler(t.TempDir(), nil).App()

	status, body := doJSON(t, app, http.MethodPost, "/create-store", "")
	if status != http.StatusOK {
		t.Fatalf("create-store returned %d: %v", status, body)
	}
	storeID, _ := body["storeID"].(string)
	if storeID == "" {
		t.Fatalf("create-store returned no store id: %v", body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/stores", "")
	if status != http.StatusOK {
		t.Fatalf("stores returned %d: %v", status, body)
	}
	found := false
	if list, ok := body["stores"].([]any); ok {
		for _, id := range list {
			if id == storeID {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("Store %s missing from listing: %v", storeID, body)
	}

	createTree := fmt.Sprintf(`{"storeID":%q,"name":"users","pageSize":512}`, storeID)
	status, body = doJSON(t, app, http.MethodPost, "/create-tree", createTree)
	if status != http.StatusOK {
		t.Fatalf("create-tree returned %d: %v", status, body)
	}

	// Page sizes below 256 are rejected.
	badTree := fmt.Sprintf(`{"storeID":%q,"name":"tiny","pageSize":100}`, storeID)
	if status, _ = doJSON(t, app, http.MethodPost, "/create-tree", badTree); status != http.StatusBadRequest {
		t.Fatalf("Expected 400 for tiny page size, got %d", status)
	}

	insert := fmt.Sprintf(`{"storeID":%q,"tree":"users","key":"alice","value":"1"}`, storeID)
	if status, body = doJSON(t, app, http.MethodPost, "/insert", insert); status != http.StatusOK {
		t.Fatalf("insert returned %d: %v", status, body)
	}

	query := fmt.Sprintf("storeID=%s&tree=users", storeID)
	status, body = doJSON(t, app, http.MethodGet, "/find?"+query+"&key=alice", "")
	if status != http.StatusOK || body["value"] != "1" {
		t.Fatalf("find returned %d: %v", status, body)
	}
	if status, _ = doJSON(t, app, http.MethodGet, "/find?"+query+"&key=bob", ""); status != http.StatusNotFound {
		t.Fatalf("Expected 404 for missing key, got %d", status)
	}

	status, body = doJSON(t, app, http.MethodGet, "/nearest?"+query+"&query=alice&k=1", "")
	if status != http.StatusOK {
		t.Fatalf("nearest returned %d: %v", status, body)
	}
	if results, ok := body["results"].([]any); !ok || len(results) == 0 {
		t.Fatalf("Expected at least one nearest result: %v", body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/header?"+query, "")
	if status != http.StatusOK {
		t.Fatalf("header returned %d: %v", status, body)
	}
	if ps, _ := body["pageSize"].(float64); int(ps) != 512 {
		t.Fatalf("Expected page size 512 in header, got %v", body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/stats?"+query, "")
	if status != http.StatusOK {
		t.Fatalf("stats returned %d: %v", status, body)
	}
	if reads, _ := body["reads"].(float64); reads == 0 {
		t.Fatalf("Expected non-zero reads in stats: %v", body)
	}

	if status, _ = doJSON(t, app, http.MethodDelete, "/delete?"+query+"&key=alice", ""); status != http.StatusOK {
		t.Fatalf("delete returned %d", status)
	}
	if status, _ = doJSON(t, app, http.MethodGet, "/find?"+query+"&key=alice", ""); status != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", status)
	}
}

func TestServerUnknownStore(t *testing.T) {
	app := server.NewHandler(t.TempDir(), nil).App()

	if status, _ := doJSON(t, app, http.MethodGet, "/trees?storeID=store_missing", ""); status != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown store, got %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodGet, "/find?storeID=store_missing&tree=x&key=y", ""); status != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown store, got %d", status)
	}
}
