package calculator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *Store) {
	t.Helper()

	newCalc := func() *keypad.Calculator { return keypad.New() }
	store := NewStore(newCalc, time.Minute)

	r := chi.NewRouter()
	NewHandler(store, newCalc).RegisterRoutes(r)
	return r, store
}

func createSession(t *testing.T, router http.Handler) View {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/calculator/sessions/", nil)
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var view View
	testutil.DecodeJSONBody(t, w.Body, &view)
	return view
}

func TestCreateSessionStartsEmpty(t *testing.T) {
	router, store := newTestRouter(t)

	view := createSession(t, router)

	_, err := uuid.Parse(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "0", view.Display)
	assert.False(t, view.Compact)
	assert.Equal(t, keypad.State{}, view.State)
	assert.Equal(t, 1, store.Len())
}

func TestPressKeysUpdatesSession(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).SessionID

	w := testutil.PostJSON(router, "/calculator/sessions/"+id+"/keys", `{"keys":["8","+"]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var view View
	testutil.DecodeJSONBody(t, w.Body, &view)
	assert.Equal(t, "0", view.Display)
	assert.Equal(t, "8", view.State.Previous)
	assert.Equal(t, keypad.Add, view.State.Pending)

	w = testutil.PostJSON(router, "/calculator/sessions/"+id+"/keys", `{"keys":["2","="]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &view)
	assert.Equal(t, "10", view.Display)

	req := httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil)
	w = testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &view)
	assert.Equal(t, "10", view.Display)
	assert.Equal(t, id, view.SessionID)
}

func TestPressKeysDigitLimit(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).SessionID

	w := testutil.PostJSON(router, "/calculator/sessions/"+id+"/keys", `{"keys":["1","2","3","4","5","6","7","8"]}`)
	testutil.CheckResponseCode(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]string
	testutil.DecodeJSONBody(t, w.Body, &body)
	assert.Equal(t, "maximum of 7 digits reached", body["error"])

	req := httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil)
	w = testutil.ExecuteRequest(req, router)

	var view View
	testutil.DecodeJSONBody(t, w.Body, &view)
	assert.Equal(t, "1234567", view.Display)
}

func TestPressKeysUnknownKey(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).SessionID

	w := testutil.PostJSON(router, "/calculator/sessions/"+id+"/keys", `{"keys":["sqrt"]}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
}

func TestPressKeysRejectsBadBodies(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).SessionID

	for _, body := range []string{`not json`, `{"keys":[]}`, `{}`} {
		w := testutil.PostJSON(router, "/calculator/sessions/"+id+"/keys", body)
		testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/calculator/sessions/" + uuid.NewString()},
		{http.MethodGet, "/calculator/sessions/not-a-uuid"},
		{http.MethodDelete, "/calculator/sessions/" + uuid.NewString()},
		{http.MethodPost, "/calculator/sessions/" + uuid.NewString() + "/keys"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req := httptest.NewRequest(p.method, p.path, bytes.NewBufferString(`{"keys":["1"]}`))
			w := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	router, store := newTestRouter(t)
	id := createSession(t, router).SessionID

	req := httptest.NewRequest(http.MethodDelete, "/calculator/sessions/"+id, nil)
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)
	assert.Zero(t, store.Len())
}

func TestEvaluate(t *testing.T) {
	router, store := newTestRouter(t)

	tests := []struct {
		name    string
		body    string
		display string
		compact bool
	}{
		{name: "decimal entry", body: `{"keys":["7",",","5"]}`, display: "7,5"},
		{name: "divide by zero", body: `{"keys":["5","÷","0","="]}`, display: "Error"},
		{name: "chained", body: `{"keys":["1","+","2","×","3","="]}`, display: "9"},
		{name: "compact", body: `{"keys":["9","9","9","9","9","9","9","×","9","9","9","9","9","9","9","="]}`, display: "99999980000001", compact: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.PostJSON(router, "/calculator/evaluate", tc.body)
			testutil.CheckResponseCode(t, http.StatusOK, w.Code)

			var view View
			testutil.DecodeJSONBody(t, w.Body, &view)
			assert.Equal(t, tc.display, view.Display)
			assert.Equal(t, tc.compact, view.Compact)
			assert.Empty(t, view.SessionID)
		})
	}

	assert.Zero(t, store.Len())
}

func TestKeyKind(t *testing.T) {
	tests := map[string]string{
		"7":   "numeral",
		",":   "separator",
		"x2":  "other",
		"÷":   "operator",
		"=":   "equals",
		"+/-": "function",
		"AC":  "function",
	}

	for key, want := range tests {
		assert.Equal(t, want, keyKind(key), "key %q", key)
	}
}

// stallingWriter blocks in WriteHeader until release is closed.
type stallingWriter struct {
	header  http.Header
	started chan struct{}
	release chan struct{}
	once    sync.Once
	code    int
	body    bytes.Buffer
}

func newStallingWriter() *stallingWriter {
	return &stallingWriter{
		header:  make(http.Header),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (w *stallingWriter) Header() http.Header { return w.header }

func (w *stallingWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

func (w *stallingWriter) WriteHeader(code int) {
	w.code = code
	w.once.Do(func() { close(w.started) })
	<-w.release
}

func TestPressKeysReleasesSessionBeforeWriting(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).SessionID

	slow := newStallingWriter()
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/calculator/sessions/"+id+"/keys", bytes.NewBufferString(`{"keys":["4","2"]}`))
		router.ServeHTTP(slow, req)
	}()

	select {
	case <-slow.started:
	case <-time.After(time.Second):
		t.Fatal("key request never started writing")
	}

	read := make(chan *httptest.ResponseRecorder)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil)
		read <- testutil.ExecuteRequest(req, router)
	}()

	select {
	case w := <-read:
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)
		var view View
		testutil.DecodeJSONBody(t, w.Body, &view)
		assert.Equal(t, "42", view.Display)
	case <-time.After(time.Second):
		t.Fatal("session stayed locked while the response was being written")
	}

	close(slow.release)
	<-done
	assert.Equal(t, http.StatusOK, slow.code)
}
