package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelflife/internal/app"
	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/records"
	"github.com/roach88/shelflife/internal/scan"
	"github.com/roach88/shelflife/internal/store"
	"github.com/roach88/shelflife/internal/testutil"
	"github.com/roach88/shelflife/internal/view"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func day(offset int) string {
	return expiry.DateOf(now).AddDays(offset).String()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, camera scan.Camera) (*httptest.Server, *app.App) {
	t.Helper()
	recs := records.Load(context.Background(), store.NewMemory(),
		records.WithIDGenerator(inventory.NewSequenceGenerator("rec")),
		records.WithLogger(quietLogger()),
	)
	a := app.New(recs, camera,
		app.WithClock(testutil.NewManualClock(now)),
		app.WithLogger(quietLogger()),
		app.WithScanOptions(scan.WithProbes(scan.NativeProbe(2*time.Millisecond))),
	)
	srv := httptest.NewServer(NewServer(a, quietLogger()).Router())
	t.Cleanup(srv.Close)
	return srv, a
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func names(t *testing.T, body map[string]interface{}) []string {
	t.Helper()
	rows, ok := body["rows"].([]interface{})
	require.True(t, ok, "rows missing: %v", body)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		rec := r.(map[string]interface{})["record"].(map[string]interface{})
		out = append(out, rec["name"].(string))
	}
	return out
}

func TestRecords_CommitListRemove(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, d := range []struct {
		name   string
		offset int
		loc    string
	}{{"C", 40, "stockroom"}, {"B", 5, "counter"}, {"A", 5, "counter"}} {
		body := `{"name":"` + d.name + `","expiry":"` + day(d.offset) + `","location":"` + d.loc + `"}`
		resp, out := do(t, "POST", srv.URL+"/records", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, out)
		assert.Equal(t, d.name, out["name"])
	}

	resp, out := do(t, "GET", srv.URL+"/records", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "B", "C"}, names(t, out))

	resp, out = do(t, "GET", srv.URL+"/records?bucket=7&location=counter", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "B"}, names(t, out))

	resp, out = do(t, "GET", srv.URL+"/records?location=stockroom", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"C"}, names(t, out))

	resp, out = do(t, "GET", srv.URL+"/records/rec-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "C", out["name"])

	resp, out = do(t, "DELETE", srv.URL+"/records/rec-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["removed"])

	resp, _ = do(t, "GET", srv.URL+"/records/rec-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out = do(t, "DELETE", srv.URL+"/records/rec-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "removal is idempotent")
	assert.Equal(t, false, out["removed"])

	_, out = do(t, "GET", srv.URL+"/records", "")
	assert.Equal(t, []string{"A", "B"}, names(t, out))
}

func TestRecords_Validation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, out := do(t, "POST", srv.URL+"/records", `{"name":"","expiry":"`+day(3)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody := out["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, "name", errBody["field"])

	resp, _ = do(t, "POST", srv.URL+"/records", `{"name":"x","expiry":"03/10/2026"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, "POST", srv.URL+"/records", `{"name":"x","expiry":"`+day(3)+`","qty":4}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "GET", srv.URL+"/records?bucket=365", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, out = do(t, "GET", srv.URL+"/summary", "")
	sum := out["summary"].(map[string]interface{})
	assert.Equal(t, float64(0), sum["urgent7"], "rejected drafts are not stored")
}

func TestSummaryAndSnapshot(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	for _, offset := range []int{-1, 2, 15, 60, 200} {
		resp, _ := do(t, "POST", srv.URL+"/records", `{"name":"n","expiry":"`+day(offset)+`"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, out := do(t, "GET", srv.URL+"/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{
		"urgent7": float64(2), "warning30": float64(1), "preexpired90": float64(1), "ok": float64(1), "expired": float64(1),
	}, out["summary"])

	resp, out = do(t, "GET", srv.URL+"/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["rows"], 4, "expired row left out")
	assert.Len(t, out["recent"], app.RecentCount)
}

func TestFilter(t *testing.T) {
	srv, a := newTestServer(t, nil)

	resp, out := do(t, "PUT", srv.URL+"/filter", `{"bucket":"30","location":"refrigerator"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "30", out["bucket"])

	loc, only := a.Filter().Location.Location()
	assert.True(t, only)
	assert.Equal(t, inventory.LocationRefrigerator, loc)

	_, out = do(t, "GET", srv.URL+"/filter", "")
	assert.Equal(t, "refrigerator", out["location"])

	resp, _ = do(t, "PUT", srv.URL+"/filter", `{"bucket":"12"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFilter_UnsetLocationSurvivesGetThenPut(t *testing.T) {
	srv, a := newTestServer(t, nil)
	a.SetFilter(view.Filter{Bucket: view.BucketWithin7, Location: view.OnlyLocation(inventory.LocationUnset)})

	resp, out := do(t, "GET", srv.URL+"/filter", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unset", out["location"])

	body, err := json.Marshal(out)
	require.NoError(t, err)
	resp, _ = do(t, "PUT", srv.URL+"/filter", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loc, only := a.Filter().Location.Location()
	assert.True(t, only)
	assert.Equal(t, inventory.LocationUnset, loc)
	assert.Equal(t, view.BucketWithin7, a.Filter().Bucket)
}

// pollStream decodes natively once polled.
type pollStream struct {
	frames chan scan.Frame
	code   string
}

func (s *pollStream) Frames() <-chan scan.Frame { return s.frames }

func (s *pollStream) Format() scan.PixelFormat { return scan.FormatOpaque }

func (s *pollStream) Stop() error { return nil }

func (s *pollStream) DecodeLatest(context.Context) ([]scan.Barcode, error) {
	if s.code == "" {
		return nil, nil
	}
	return []scan.Barcode{{Value: s.code, Symbology: scan.EAN8}}, nil
}

type staticCamera struct {
	stream scan.Stream
}

func (c staticCamera) Devices(context.Context) ([]scan.Device, error) {
	return nil, scan.ErrEnumerationUnsupported
}

func (c staticCamera) Open(context.Context, scan.AccessRequest) (scan.Stream, error) {
	return c.stream, nil
}

func TestScan_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t, staticCamera{stream: &pollStream{frames: make(chan scan.Frame)}})

	resp, _ := do(t, "GET", srv.URL+"/scan", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out := do(t, "POST", srv.URL+"/scan", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id := out["session_id"]

	resp, out = do(t, "POST", srv.URL+"/scan", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_OPEN", out["error"].(map[string]interface{})["code"])

	resp, out = do(t, "DELETE", srv.URL+"/scan", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, out["session_id"])
	assert.Equal(t, "closed", out["state"])
}

func TestScan_ResultFillsPendingCode(t *testing.T) {
	srv, _ := newTestServer(t, staticCamera{stream: &pollStream{frames: make(chan scan.Frame), code: "96385074"}})

	resp, _ := do(t, "POST", srv.URL+"/scan", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, out := do(t, "GET", srv.URL+"/snapshot", "")
		return out["pending_code"] == "96385074"
	}, 5*time.Second, 5*time.Millisecond)

	_, out := do(t, "GET", srv.URL+"/scan", "")
	assert.Equal(t, "succeeded", out["state"])
	assert.Equal(t, "EAN-8", out["symbology"])

	resp, out = do(t, "POST", srv.URL+"/records", `{"name":"scanned","expiry":"`+day(10)+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "96385074", out["code"])
}

func TestScan_NoCamera(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, out := do(t, "POST", srv.URL+"/scan", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "CAMERA_UNAVAILABLE", out["error"].(map[string]interface{})["code"])

	resp, _ = do(t, "DELETE", srv.URL+"/scan", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, out := do(t, "GET", srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}
