package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/davrell/chemviz/internal/api"
)

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("writing response: %v", err)
	}
}

// summaryJSON builds a minimal summary envelope for one upload id.
func summaryJSON(id int64, filename string) string {
	return fmt.Sprintf(`{
		"id": %d,
		"filename": %q,
		"summary": {
			"total_count": 2,
			"type_distribution": {"Pump": 2},
			"averages": {"flowrate": 1.0, "pressure": 2.0, "temperature": 3.0}
		}
	}`, id, filename)
}

func dataJSON(filename string) string {
	return fmt.Sprintf(`{"data": [{"equipment name": "Pump A", "type": "Pump"}], "filename": %q}`, filename)
}

// newBackend serves a fixed history list plus summary and data for every id
// mentioned in it.
func newBackend(t *testing.T, history string, files map[int64]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, history)
	})
	for id, name := range files {
		id, name := id, name
		mux.HandleFunc(fmt.Sprintf("/api/summary/%d/", id), func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, summaryJSON(id, name))
		})
		mux.HandleFunc(fmt.Sprintf("/api/data/%d/", id), func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, dataJSON(name))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAutoSelectsNewest(t *testing.T) {
	srv := newBackend(t,
		`[{"id": 2, "filename": "b.csv"}, {"id": 1, "filename": "a.csv"}]`,
		map[int64]string{1: "a.csv", 2: "b.csv"})

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	snap := s.Snapshot()
	if !snap.Authenticated || snap.Username != "alice" {
		t.Fatalf("snapshot auth = %v/%q, want authenticated alice", snap.Authenticated, snap.Username)
	}
	if len(snap.History) != 2 {
		t.Fatalf("history len = %d, want 2", len(snap.History))
	}
	if snap.Selected == nil || snap.Selected.ID != 2 {
		t.Fatalf("selected = %+v, want newest record id=2", snap.Selected)
	}
	if snap.Detail.State != DetailReady {
		t.Fatalf("detail state = %v, want ready", snap.Detail.State)
	}
	if snap.Detail.Filename != "b.csv" {
		t.Fatalf("detail filename = %q, want b.csv", snap.Detail.Filename)
	}
	if len(snap.Detail.Rows) != 1 {
		t.Fatalf("detail rows = %d, want 1", len(snap.Detail.Rows))
	}
	if snap.Loading {
		t.Fatal("loading still set after login settled")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	err := s.Login(context.Background(), api.Credentials{Username: "alice", Password: "wrong"})
	if err == nil {
		t.Fatal("Login() with bad creds succeeded")
	}

	snap := s.Snapshot()
	if snap.Authenticated {
		t.Fatal("rejected login installed credentials")
	}
	if snap.LastError != "invalid username or password" {
		t.Fatalf("LastError = %q, want invalid username or password", snap.LastError)
	}
}

func TestLoginEmptyHistory(t *testing.T) {
	srv := newBackend(t, `[]`, nil)

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.Selected != nil {
		t.Fatalf("selected = %+v, want none for empty history", snap.Selected)
	}
	if snap.Detail.State != DetailEmpty {
		t.Fatalf("detail state = %v, want empty", snap.Detail.State)
	}
}

func TestHistoryTruncatedToFive(t *testing.T) {
	var entries []string
	files := map[int64]string{}
	for i := 7; i >= 1; i-- {
		entries = append(entries, fmt.Sprintf(`{"id": %d, "filename": "f%d.csv"}`, i, i))
		files[int64(i)] = fmt.Sprintf("f%d.csv", i)
	}
	srv := newBackend(t, "["+strings.Join(entries, ",")+"]", files)

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	snap := s.Snapshot()
	if len(snap.History) != 5 {
		t.Fatalf("history len = %d, want 5", len(snap.History))
	}
	if snap.History[0].ID != 7 || snap.History[4].ID != 3 {
		t.Fatalf("history ids %d..%d, want 7..3", snap.History[0].ID, snap.History[4].ID)
	}
}

func TestSelectItemDiscardsStaleResult(t *testing.T) {
	release := make(chan struct{})
	var startedOnce sync.Once
	started := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	slow := func(w http.ResponseWriter, body string) {
		startedOnce.Do(func() { close(started) })
		<-release
		writeJSON(t, w, body)
	}
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		slow(w, summaryJSON(1, "first.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		slow(w, dataJSON("first.csv"))
	})
	mux.HandleFunc("/api/summary/2/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(2, "second.csv"))
	})
	mux.HandleFunc("/api/data/2/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("second.csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.SelectItem(context.Background(), api.Upload{ID: 1, Filename: "first.csv"})
	}()
	<-started

	// Supersede the slow selection while it is still in flight.
	if err := s.SelectItem(context.Background(), api.Upload{ID: 2, Filename: "second.csv"}); err != nil {
		t.Fatalf("second SelectItem() error = %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("superseded SelectItem() error = %v, want nil", err)
	}

	snap := s.Snapshot()
	if snap.Selected == nil || snap.Selected.ID != 2 {
		t.Fatalf("selected = %+v, want id=2", snap.Selected)
	}
	if snap.Detail.State != DetailReady || snap.Detail.Filename != "second.csv" {
		t.Fatalf("detail = %v %q, want ready second.csv", snap.Detail.State, snap.Detail.Filename)
	}
	if snap.Loading {
		t.Fatal("stale completion clobbered the loading flag")
	}
}

func TestSelectItemPartialFailureYieldsFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "a.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(t, w, `{"error": "rows exploded"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	err := s.SelectItem(context.Background(), api.Upload{ID: 1, Filename: "a.csv"})
	if err == nil {
		t.Fatal("SelectItem() succeeded with failing data endpoint")
	}

	snap := s.Snapshot()
	if snap.Detail.State != DetailFailed {
		t.Fatalf("detail state = %v, want failed", snap.Detail.State)
	}
	if len(snap.Detail.Rows) != 0 || snap.Detail.Summary.TotalCount != 0 {
		t.Fatalf("failed detail kept partial data: %+v", snap.Detail)
	}
	if snap.LastError != "rows exploded" {
		t.Fatalf("LastError = %q, want rows exploded", snap.LastError)
	}
}

func TestRefreshNewestRequestWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1: // login probe
			writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}]`)
		case 2: // first refresh, held until the second lands
			close(started)
			<-release
			writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}, {"id": 3, "filename": "stale.csv"}]`)
		default:
			writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}, {"id": 4, "filename": "fresh.csv"}]`)
		}
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "a.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("a.csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.RefreshHistory(context.Background())
	}()
	<-started

	if err := s.RefreshHistory(context.Background()); err != nil {
		t.Fatalf("second RefreshHistory() error = %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("superseded RefreshHistory() error = %v, want nil", err)
	}

	snap := s.Snapshot()
	if len(snap.History) != 2 || snap.History[1].ID != 4 {
		t.Fatalf("history = %+v, want newest refresh result with id=4", snap.History)
	}
}

func TestRefreshFailureLeavesListUntouched(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}]`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "a.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("a.csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := s.RefreshHistory(context.Background()); err == nil {
		t.Fatal("RefreshHistory() succeeded against failing backend")
	}

	snap := s.Snapshot()
	if len(snap.History) != 1 || snap.History[0].ID != 1 {
		t.Fatalf("history = %+v, want original list preserved", snap.History)
	}
	if snap.LastError == "" {
		t.Fatal("refresh failure left no error message")
	}
	if snap.Selected == nil || snap.Selected.ID != 1 {
		t.Fatalf("selected = %+v, want untouched id=1", snap.Selected)
	}
}

func TestUploadFrontsHistoryAndSeedsDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[{"id": 1, "filename": "old.csv"}]`)
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "old.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("old.csv"))
	})
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(9, "new.csv"))
	})
	mux.HandleFunc("/api/data/9/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("new.csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rec, err := s.UploadFile(context.Background(), "new.csv", strings.NewReader("Equipment Name,Type\n"))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if rec.ID != 9 {
		t.Fatalf("uploaded id = %d, want 9", rec.ID)
	}

	snap := s.Snapshot()
	if len(snap.History) != 2 || snap.History[0].ID != 9 || snap.History[1].ID != 1 {
		t.Fatalf("history = %+v, want [9 1]", snap.History)
	}
	if snap.Selected == nil || snap.Selected.ID != 9 {
		t.Fatalf("selected = %+v, want uploaded record", snap.Selected)
	}
	if snap.Detail.State != DetailReady || snap.Detail.Filename != "new.csv" {
		t.Fatalf("detail = %v %q, want ready new.csv", snap.Detail.State, snap.Detail.Filename)
	}
	if snap.Detail.Summary.TotalCount != 2 {
		t.Fatalf("detail summary count = %d, want seeded from upload response", snap.Detail.Summary.TotalCount)
	}
	if len(snap.Detail.Rows) != 1 {
		t.Fatalf("detail rows = %d, want fetched rows", len(snap.Detail.Rows))
	}
}

func TestUploadRowFetchFailureKeepsSeededSummary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(9, "new.csv"))
	})
	mux.HandleFunc("/api/data/9/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rec, err := s.UploadFile(context.Background(), "new.csv", strings.NewReader("Equipment Name,Type\n"))
	if err == nil {
		t.Fatal("UploadFile() with failing row fetch reported no error")
	}
	if rec.ID != 9 {
		t.Fatalf("uploaded id = %d, want 9 despite row failure", rec.ID)
	}

	snap := s.Snapshot()
	if snap.Detail.State != DetailReady {
		t.Fatalf("detail state = %v, want ready with seeded summary", snap.Detail.State)
	}
	if len(snap.Detail.Rows) != 0 {
		t.Fatalf("detail rows = %d, want none", len(snap.Detail.Rows))
	}
	if snap.LastError == "" {
		t.Fatal("row fetch failure left no error message")
	}
}

func TestUploadFailureChangesNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}]`)
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "a.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("a.csv"))
	})
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, `{"error": "missing required columns"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, err := s.UploadFile(context.Background(), "bad.csv", strings.NewReader("nope\n"))
	if err == nil {
		t.Fatal("UploadFile() succeeded against rejecting backend")
	}

	snap := s.Snapshot()
	if len(snap.History) != 1 || snap.History[0].ID != 1 {
		t.Fatalf("history = %+v, want untouched", snap.History)
	}
	if snap.Selected == nil || snap.Selected.ID != 1 {
		t.Fatalf("selected = %+v, want untouched", snap.Selected)
	}
	if snap.LastError != "missing required columns" {
		t.Fatalf("LastError = %q, want backend message", snap.LastError)
	}
	if snap.Uploading {
		t.Fatal("uploading flag still set after failure")
	}
}

func TestSignOutDuringUploadDiscardsResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(t, w, summaryJSON(9, "new.csv"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.UploadFile(context.Background(), "new.csv", strings.NewReader("Equipment Name,Type\n"))
		done <- err
	}()
	<-started

	s.SignOut()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("discarded UploadFile() error = %v, want nil", err)
	}

	snap := s.Snapshot()
	if snap.Authenticated {
		t.Fatal("upload completion re-authenticated a signed-out session")
	}
	if len(snap.History) != 0 {
		t.Fatalf("history after sign-out = %+v, want empty", snap.History)
	}
	if snap.Selected != nil {
		t.Fatalf("selected after sign-out = %+v, want none", snap.Selected)
	}
	if snap.Detail.State != DetailEmpty {
		t.Fatalf("detail state after sign-out = %v, want empty", snap.Detail.State)
	}
	if snap.LastError != "" || snap.Uploading || snap.Loading {
		t.Fatal("late upload completion left flags or error behind")
	}
}

func TestSignOutDuringDownloadLeavesNoError(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[{"id": 1, "filename": "a.csv"}]`)
	})
	mux.HandleFunc("/api/summary/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, summaryJSON(1, "a.csv"))
	})
	mux.HandleFunc("/api/data/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, dataJSON("a.csv"))
	})
	mux.HandleFunc("/api/report/1/pdf/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	dir := t.TempDir()
	done := make(chan error, 1)
	go func() {
		_, err := s.DownloadReport(context.Background(), dir)
		done <- err
	}()
	<-started

	s.SignOut()

	close(release)
	if err := <-done; err == nil {
		t.Fatal("DownloadReport() against 404 succeeded")
	}

	snap := s.Snapshot()
	if snap.LastError != "" {
		t.Fatalf("LastError after sign-out = %q, want empty", snap.LastError)
	}
	if snap.Downloading {
		t.Fatal("downloading flag still set after sign-out")
	}
}

func TestSignOutClearsEverything(t *testing.T) {
	srv := newBackend(t, `[{"id": 1, "filename": "a.csv"}]`, map[int64]string{1: "a.csv"})

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	s.SignOut()

	snap := s.Snapshot()
	if snap.Authenticated || snap.Username != "" {
		t.Fatal("sign-out left credentials behind")
	}
	if len(snap.History) != 0 || snap.Selected != nil {
		t.Fatalf("sign-out left history/selection: %+v %+v", snap.History, snap.Selected)
	}
	if snap.Detail.State != DetailEmpty {
		t.Fatalf("detail state = %v, want empty", snap.Detail.State)
	}
	if snap.LastError != "" || snap.Loading || snap.Uploading || snap.Downloading {
		t.Fatal("sign-out left flags or error behind")
	}
}

func TestIntentsRequireSignIn(t *testing.T) {
	s := New(api.NewClient("http://127.0.0.1:0"))
	ctx := context.Background()

	if err := s.SelectItem(ctx, api.Upload{ID: 1}); err != ErrNotSignedIn {
		t.Fatalf("SelectItem error = %v, want ErrNotSignedIn", err)
	}
	if err := s.RefreshHistory(ctx); err != ErrNotSignedIn {
		t.Fatalf("RefreshHistory error = %v, want ErrNotSignedIn", err)
	}
	if _, err := s.UploadFile(ctx, "a.csv", strings.NewReader("x")); err != ErrNotSignedIn {
		t.Fatalf("UploadFile error = %v, want ErrNotSignedIn", err)
	}
	if _, err := s.DownloadReport(ctx, t.TempDir()); err != ErrNotSignedIn {
		t.Fatalf("DownloadReport error = %v, want ErrNotSignedIn", err)
	}
}

func TestDownloadRequiresSelection(t *testing.T) {
	srv := newBackend(t, `[]`, nil)

	s := New(api.NewClient(srv.URL))
	if err := s.Login(context.Background(), api.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := s.DownloadReport(context.Background(), t.TempDir()); err != ErrNoSelection {
		t.Fatalf("DownloadReport error = %v, want ErrNoSelection", err)
	}
}

func TestRecordUpload(t *testing.T) {
	s := &Session{history: []api.Upload{
		{ID: 5}, {ID: 4}, {ID: 3}, {ID: 2}, {ID: 1},
	}}

	// New id goes to the front and the oldest falls off.
	s.recordUploadLocked(api.Upload{ID: 6})
	if len(s.history) != 5 || s.history[0].ID != 6 || s.history[4].ID != 2 {
		t.Fatalf("history after insert = %+v, want [6 5 4 3 2]", s.history)
	}

	// Re-recording an existing id moves it to the front without growing.
	s.recordUploadLocked(api.Upload{ID: 4})
	if len(s.history) != 5 || s.history[0].ID != 4 || s.history[1].ID != 6 {
		t.Fatalf("history after dedupe = %+v, want [4 6 5 3 2]", s.history)
	}
}

func TestReconcileSelection(t *testing.T) {
	t.Run("selection still present stays", func(t *testing.T) {
		sel := api.Upload{ID: 2}
		s := &Session{history: []api.Upload{{ID: 3}, {ID: 2}}, selected: &sel}
		if fetch := s.reconcileLocked(); fetch != nil {
			t.Fatalf("reconcile = %+v, want nil for surviving selection", fetch)
		}
		if s.selected.ID != 2 {
			t.Fatalf("selected = %d, want 2", s.selected.ID)
		}
	})

	t.Run("missing selection falls back to newest", func(t *testing.T) {
		sel := api.Upload{ID: 9}
		s := &Session{history: []api.Upload{{ID: 3}, {ID: 2}}, selected: &sel}
		fetch := s.reconcileLocked()
		if fetch == nil || fetch.ID != 3 {
			t.Fatalf("reconcile = %+v, want fetch of id=3", fetch)
		}
		if s.selected.ID != 3 {
			t.Fatalf("selected = %d, want 3", s.selected.ID)
		}
	})

	t.Run("empty list clears selection and detail", func(t *testing.T) {
		sel := api.Upload{ID: 9}
		s := &Session{selected: &sel, detail: Detail{State: DetailReady}}
		if fetch := s.reconcileLocked(); fetch != nil {
			t.Fatalf("reconcile = %+v, want nil for empty list", fetch)
		}
		if s.selected != nil {
			t.Fatalf("selected = %+v, want cleared", s.selected)
		}
		if s.detail.State != DetailEmpty {
			t.Fatalf("detail state = %v, want empty", s.detail.State)
		}
	})
}
