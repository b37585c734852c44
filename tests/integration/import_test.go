//go:build integration

package integration

import (
	"net/http"
	"testing"
)

const badRow = "bad-row,Broken,nowhere,1,1,https://cdn.example.com/bad.jpg,,,,,\n"

func TestImport_Auth(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		key    string
	}{
		{"ImportNoKey", http.MethodPost, "/api/import", ""},
		{"ImportWrongKey", http.MethodPost, "/api/import", "wrong-key"},
		{"RunsNoKey", http.MethodGet, "/api/imports", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, tt.path, "Handle\n", tt.key)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestImport_DryRun(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/import?dry_run=true", readSeed(t)+badRow, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[importResponse](t, resp)
	if body.Committed {
		t.Error("dry run must not commit")
	}
	if body.Count != seededProducts || body.Rejected != 1 {
		t.Errorf("count/rejected: got %d/%d, want %d/1", body.Count, body.Rejected, seededProducts)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Row 8: Invalid category 'nowhere'" {
		t.Errorf("errors: got %q", body.Errors)
	}
}

func TestImport_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"HeaderOnly", "Handle,Title,Category,Price,Stock,Image URL\n", http.StatusBadRequest},
		{"NothingAccepted", "Handle,Title,Category,Price,Stock,Image URL,Description,Fabric,Color,Occasion,Dispatch Time\n" + badRow, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, "/api/import", tt.body, testAPIKey)
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	// Rejected documents leave the catalog untouched.
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	if list := decodeJSON[listResponse](t, resp); list.Total != seededProducts {
		t.Errorf("catalog size: got %d, want %d", list.Total, seededProducts)
	}
}

func TestImport_CommitAndRuns(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/import", readSeed(t), testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[importResponse](t, resp)
	if !body.Committed || !body.Success {
		t.Fatalf("expected committed import, got %+v", body)
	}
	if body.RunID == "" {
		t.Fatal("run_id is empty")
	}
	if got := resp.Header.Get("X-Catalog-Version"); got != body.Version {
		t.Errorf("X-Catalog-Version: got %q, want %q", got, body.Version)
	}

	runsResp := do(t, http.MethodGet, "/api/imports?limit=1", "", testAPIKey)
	defer runsResp.Body.Close()

	if runsResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", runsResp.StatusCode)
	}

	runs := decodeJSON[[]importRunResponse](t, runsResp)
	if len(runs) != 1 {
		t.Fatalf("runs: got %d, want 1", len(runs))
	}
	if runs[0].ID != body.RunID {
		t.Errorf("latest run: got %q, want %q", runs[0].ID, body.RunID)
	}
	if runs[0].Accepted != seededProducts || runs[0].Currency != "INR" {
		t.Errorf("run: got %+v", runs[0])
	}
}
