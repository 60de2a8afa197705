package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/server/changefeed"
	"github.com/dmitrijs2005/yearbook/internal/server/entries"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type fakeGateway struct {
	mu      sync.Mutex
	entries []models.Entry
	result  models.Result
	got     []models.Submission
}

func (g *fakeGateway) List(context.Context) []models.Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entries
}

func (g *fakeGateway) Create(_ context.Context, sub models.Submission) models.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.got = append(g.got, sub)
	return g.result
}

func makeEntries(n int) []models.Entry {
	out := make([]models.Entry, n)
	for i := range out {
		out[i] = models.Entry{
			ID:        string(rune('a' + i)),
			Name:      "Student " + string(rune('A'+i)),
			Quote:     "quote",
			Image:     "https://cdn.example.com/" + string(rune('a'+i)) + ".jpg",
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func newTestServer(t *testing.T, gw *fakeGateway, opts Options) (*Server, *changefeed.Hub) {
	t.Helper()
	hub := changefeed.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "http://yearbook.local/"
	}
	srv, err := NewServer(opts, gw, hub, logging.Discard())
	require.NoError(t, err)
	return srv, hub
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile(fieldImage, "me.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "http://kiosk.local")

	rec := do(t, srv.Handler(), req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://kiosk.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestListEntries(t *testing.T) {
	t.Run("empty list is an array", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeGateway{}, Options{})
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/entries", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("entries", func(t *testing.T) {
		gw := &fakeGateway{entries: makeEntries(2)}
		srv, _ := newTestServer(t, gw, Options{})
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/entries", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got []models.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "Student B", got[1].Name)
	})
}

func TestCreateEntry_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		result models.Result
		want   int
	}{
		{"created", models.Result{Success: true, Message: entries.MsgCreated}, http.StatusCreated},
		{"missing", models.Result{Message: entries.MsgMissingFields}, http.StatusBadRequest},
		{"upload failed", models.Result{Message: entries.MsgUploadFailed}, http.StatusBadGateway},
		{"unexpected", models.Result{Message: entries.MsgUnexpected}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{result: tt.result}
			srv, _ := newTestServer(t, gw, Options{})

			body, ctype := multipartBody(t, map[string]string{"name": "Ana", "quote": "Hi"}, pngHeader)
			req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(t, srv.Handler(), req)
			assert.Equal(t, tt.want, rec.Code)

			var res models.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.result, res)

			require.Len(t, gw.got, 1)
			sub := gw.got[0]
			assert.Equal(t, "Ana", sub.Name)
			assert.Equal(t, "Hi", sub.Quote)
			require.NotNil(t, sub.Image)
			assert.Equal(t, "me.png", sub.Image.Filename)
			assert.Equal(t, pngHeader, sub.Image.Data)
		})
	}
}

func TestCreateEntry_NoImagePassesNil(t *testing.T) {
	gw := &fakeGateway{result: models.Result{Message: entries.MsgMissingFields}}
	srv, _ := newTestServer(t, gw, Options{})

	body, ctype := multipartBody(t, map[string]string{"name": "Ana", "quote": "Hi"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)

	rec := do(t, srv.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, gw.got, 1)
	assert.Nil(t, gw.got[0].Image)
}

func TestCreateEntry_NotMultipart(t *testing.T) {
	gw := &fakeGateway{}
	srv, _ := newTestServer(t, gw, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(`{"name":"Ana"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := do(t, srv.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gw.got)

	var res models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, entries.MsgMissingFields, res.Message)
}

func TestCreateEntry_TooLarge(t *testing.T) {
	gw := &fakeGateway{}
	srv, _ := newTestServer(t, gw, Options{MaxUploadBytes: 1024})

	body, ctype := multipartBody(t, map[string]string{"name": "Ana", "quote": "Hi"}, bytes.Repeat([]byte{1}, 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", ctype)

	rec := do(t, srv.Handler(), req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, gw.got)
	assert.Contains(t, rec.Body.String(), entries.MsgUploadFailed)
}

func TestDisplayPage_Empty(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "No entries yet!")
	assert.Contains(t, body, "Scan the QR code to add your photo and quote.")
	assert.Contains(t, body, "http://yearbook.local/upload")
	assert.NotContains(t, body, "page 1 of")
}

func TestDisplayPage_Paging(t *testing.T) {
	gw := &fakeGateway{entries: makeEntries(6)}
	srv, _ := newTestServer(t, gw, Options{})
	h := srv.Handler()

	t.Run("first page", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
		assert.Contains(t, body, "page 1 of 2")
		assert.Contains(t, body, "Student A")
		assert.Contains(t, body, "Student D")
		assert.NotContains(t, body, "Student E")
		assert.NotContains(t, body, "id=\"outgoing\"")
	})

	t.Run("second page is padded", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?page=1", nil)).Body.String()
		assert.Contains(t, body, "page 2 of 2")
		assert.Contains(t, body, "Student F")
		assert.NotContains(t, body, "Student A")
		assert.Equal(t, 2, strings.Count(body, "card placeholder"))
	})

	t.Run("page out of range is clamped", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?page=9", nil)).Body.String()
		assert.Contains(t, body, "page 2 of 2")
	})

	t.Run("turning forward animates the old page", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?page=1&from=0&dir=next", nil)).Body.String()
		assert.Contains(t, body, "id=\"outgoing\"")
		assert.Contains(t, body, "hinge-left forward")
		assert.Contains(t, body, "Student A")
	})

	t.Run("turning back hinges on the right", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?page=0&from=1&dir=prev", nil)).Body.String()
		assert.Contains(t, body, "hinge-right backward")
	})

	t.Run("carousel does not flip", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?page=1&from=0&dir=next&variant=carousel", nil)).Body.String()
		assert.NotContains(t, body, "id=\"outgoing\"")
		assert.Contains(t, body, "class=\"carousel\"")
	})

	t.Run("notice banner", func(t *testing.T) {
		body := do(t, h, httptest.NewRequest(http.MethodGet, "/?notice=insert", nil)).Body.String()
		assert.Contains(t, body, feed.InsertNotice)

		body = do(t, h, httptest.NewRequest(http.MethodGet, "/?notice=bogus", nil)).Body.String()
		assert.NotContains(t, body, "id=\"banner\"")
	})
}

func TestBuildDisplay_Links(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	list := makeEntries(9)

	t.Run("last page wraps to the first", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{"page": {"2"}})
		assert.Equal(t, 2, v.Page)
		assert.Equal(t, 3, v.TotalPages)
		assert.Equal(t, "/?dir=next&from=2&page=0", v.NextHref)
		assert.Equal(t, "/?dir=prev&from=2&page=1", v.PrevHref)
	})

	t.Run("first page wraps back to the last", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{})
		assert.Equal(t, "/?dir=prev&from=0&page=2", v.PrevHref)
	})

	t.Run("dots", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{"page": {"1"}})
		require.Len(t, v.Dots, 3)
		assert.Equal(t, "/?dir=prev&from=1&page=0", v.Dots[0].Href)
		assert.True(t, v.Dots[1].Current)
		assert.Empty(t, v.Dots[1].Href)
		assert.Equal(t, "/?dir=next&from=1&page=2", v.Dots[2].Href)
	})

	t.Run("variant is carried", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{"variant": {"carousel"}})
		assert.Equal(t, "/?dir=next&from=0&page=1&variant=carousel", v.NextHref)
	})

	t.Run("last page keeps the grid", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{"page": {"2"}})
		require.Len(t, v.Cards, 4)
		assert.False(t, v.Cards[0].Placeholder)
		assert.NotEmpty(t, v.Cards[0].Added)
		for _, c := range v.Cards[1:] {
			assert.True(t, c.Placeholder)
		}
	})

	t.Run("stale from is ignored", func(t *testing.T) {
		v := srv.buildDisplay(list, url.Values{"page": {"1"}, "from": {"7"}, "dir": {"next"}})
		assert.False(t, v.Animate)
	})
}

func TestBuildDisplay_FeedReloadKeepsDeadline(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	list := makeEntries(9)

	v := srv.buildDisplay(list, url.Values{"page": {"1"}, "notice": {"insert"}, "due": {"1760000000000"}})
	assert.Equal(t, int64(1760000000000), v.Due)
	assert.Equal(t, "/?page=1", v.ReloadHref)
	assert.False(t, v.Animate, "a reload does not flip")

	v = srv.buildDisplay(list, url.Values{"page": {"2"}, "variant": {"carousel"}})
	assert.Zero(t, v.Due, "fresh pages start a new interval")
	assert.Equal(t, "/?page=2&variant=carousel", v.ReloadHref)

	for _, bad := range []string{"soon", "-5", "0"} {
		v = srv.buildDisplay(list, url.Values{"due": {bad}})
		assert.Zero(t, v.Due, bad)
	}
}

func TestDisplayPage_NavigationRefusedDuringFlip(t *testing.T) {
	gw := &fakeGateway{entries: makeEntries(9)}
	srv, _ := newTestServer(t, gw, Options{})

	body := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/?page=1&from=0&dir=next", nil)).Body.String()

	// prev, next and the two non-current dots
	assert.Equal(t, 4, strings.Count(body, "data-nav aria-label"))
	assert.Contains(t, body, `if (flipping) { e.preventDefault(); }`)
	assert.Contains(t, body, `if (total < 2 || flipping) { return; }`)
	assert.Contains(t, body, `Math.max(0, due - Date.now())`)
}

func TestUploadForm(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/upload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `capture="user"`)
	assert.Contains(t, body, "getUserMedia")
	assert.Contains(t, body, "captured-image.jpg")
}

func TestUploadSubmit(t *testing.T) {
	t.Run("success redirects to the display", func(t *testing.T) {
		gw := &fakeGateway{result: models.Result{Success: true, Message: entries.MsgCreated}}
		srv, _ := newTestServer(t, gw, Options{RedirectDelay: 2 * time.Second})

		body, ctype := multipartBody(t, map[string]string{"name": "Ana", "quote": "Hi"}, pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ctype)

		rec := do(t, srv.Handler(), req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), entries.MsgCreated)
		assert.Contains(t, rec.Body.String(), `content="2;url=/"`)
	})

	t.Run("failure keeps the typed values", func(t *testing.T) {
		gw := &fakeGateway{result: models.Result{Message: entries.MsgMissingFields}}
		srv, _ := newTestServer(t, gw, Options{})

		body, ctype := multipartBody(t, map[string]string{"name": "Ana", "quote": "Carpe diem"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ctype)

		rec := do(t, srv.Handler(), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		out := rec.Body.String()
		assert.Contains(t, out, entries.MsgMissingFields)
		assert.Contains(t, out, `value="Ana"`)
		assert.Contains(t, out, "Carpe diem")
		assert.Contains(t, out, `class="message error"`)
	})
}

func TestQRCode(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGateway{}, Options{})

	for _, target := range []string{"/qr.png", "/qr.png?size=128", "/qr.png?size=99999"} {
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), target)
	}
}

func TestMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngHeader, 0o600))

	t.Run("served when local", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeGateway{}, Options{MediaDir: dir})
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/media/a.png", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, pngHeader, rec.Body.Bytes())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "inline", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("active content is never rendered", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.html"), []byte("<script>alert(1)</script>"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.svg"), []byte(`<svg onload="alert(1)"/>`), 0o600))
		srv, _ := newTestServer(t, &fakeGateway{}, Options{MediaDir: dir})

		for _, target := range []string{"/media/x.html", "/media/x.svg"} {
			rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusOK, rec.Code, target)
			assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"), target)
			assert.Equal(t, "attachment", rec.Header().Get("Content-Disposition"), target)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), target)
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "sandbox", target)
		}
	})

	t.Run("absent otherwise", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeGateway{}, Options{})
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/media/a.png", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStream_DeliversChanges(t *testing.T) {
	srv, hub := newTestServer(t, &fakeGateway{}, Options{Heartbeat: time.Hour})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/entries/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	readLine := func() string {
		l, err := lines.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(l, "\n")
	}

	assert.Equal(t, "retry: 3000", readLine())
	assert.Equal(t, ": connected", readLine())
	assert.Equal(t, "", readLine())

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(feed.Event{Type: feed.Insert, New: &models.Entry{ID: "e1", Name: "Ana"}})

	assert.Equal(t, "event: change", readLine())
	data := readLine()
	require.True(t, strings.HasPrefix(data, "data: "), data)

	ev, err := feed.Decode([]byte(strings.TrimPrefix(data, "data: ")))
	require.NoError(t, err)
	assert.Equal(t, feed.Insert, ev.Type)
	assert.Equal(t, "e1", ev.New.ID)

	cancel()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStream_EndsWhenHubCloses(t *testing.T) {
	srv, hub := newTestServer(t, &fakeGateway{}, Options{Heartbeat: time.Hour})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/entries/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Close())

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after hub close")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv, hub := newTestServer(t, &fakeGateway{}, Options{})
	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, listen) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listen.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	require.Eventually(t, func() bool {
		select {
		case <-hub.Done():
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "hub should be closed on shutdown")
}
