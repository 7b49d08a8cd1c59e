// Package session holds the client-side session state for the equipment
// visualizer: credentials, upload history, the current selection, and the
// fetch cycle that keeps the detail view in sync with it.
//
// A Session is safe for concurrent use. Each intent mutates state under one
// mutex and performs its network calls outside it; completions that arrive
// after a newer intent superseded them are detected by generation counters
// and discarded. No request is ever cancelled in flight.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/report"
	"github.com/davrell/chemviz/internal/store"
)

var (
	// ErrNotSignedIn is returned by intents that require credentials.
	ErrNotSignedIn = errors.New("session: not signed in")
	// ErrNoSelection is returned by DownloadReport when nothing is selected.
	ErrNoSelection = errors.New("session: no upload selected")
)

// Session orchestrates one authenticated session against the backend.
type Session struct {
	mu     sync.Mutex
	client *api.Client
	cache  *store.Cache // optional write-through cache, may be nil

	creds    *api.Credentials
	history  []api.Upload
	selected *api.Upload
	detail   Detail

	// Generation counters: only the most recently issued fetch of each kind
	// may apply its result.
	detailGen  uint64
	historyGen uint64

	uploading   bool
	loading     bool
	downloading bool
	lastError   string
}

// New creates a session bound to the given backend client.
func New(client *api.Client) *Session {
	return &Session{client: client}
}

// AttachCache enables best-effort write-through of fetched history and
// details. Cache failures are ignored; the cache never stores credentials.
func (s *Session) AttachCache(c *store.Cache) {
	s.mu.Lock()
	s.cache = c
	s.mu.Unlock()
}

// Snapshot is the plain display data handed to the presentation layer.
type Snapshot struct {
	Authenticated bool
	Username      string
	History       []api.Upload
	Selected      *api.Upload
	Detail        Detail

	Uploading   bool
	Loading     bool
	Downloading bool
	LastError   string
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Authenticated: s.creds != nil,
		History:       append([]api.Upload(nil), s.history...),
		Detail:        s.detail,
		Uploading:     s.uploading,
		Loading:       s.loading,
		Downloading:   s.downloading,
		LastError:     s.lastError,
	}
	if s.creds != nil {
		snap.Username = s.creds.Username
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}

// Login verifies creds with a history probe. On success the credentials are
// installed, the history adopted, and the newest record auto-selected with
// its detail fetched. On failure nothing is installed; a 401 is reported as
// invalid credentials.
func (s *Session) Login(ctx context.Context, creds api.Credentials) error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	h, err := s.client.History(ctx, &creds)
	if err != nil {
		msg := err.Error()
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			msg = "invalid username or password"
		}
		s.mu.Lock()
		s.loading = false
		s.lastError = msg
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.creds = &creds
	s.loading = false
	fetch := s.setHistoryLocked(h)
	username := creds.Username
	cache := s.cache
	list := append([]api.Upload(nil), s.history...)
	s.mu.Unlock()

	if cache != nil {
		_ = cache.SaveHistory(username, list)
	}
	if fetch != nil {
		return s.SelectItem(ctx, *fetch)
	}
	return nil
}

// SelectItem makes rec the active selection and fetches its summary and row
// data concurrently. Both must succeed for the detail to become Ready; either
// failure yields Failed with no partial snapshot. If a newer selection is
// made before this one's fetches resolve, the late result is discarded.
func (s *Session) SelectItem(ctx context.Context, rec api.Upload) error {
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	sel := rec
	s.selected = &sel
	s.detailGen++
	gen := s.detailGen
	s.detail = Detail{State: DetailLoading}
	s.loading = true
	s.lastError = ""
	creds := *s.creds
	s.mu.Unlock()

	var (
		wg      sync.WaitGroup
		summary api.Upload
		rows    []api.Row
		sumErr  error
		rowErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, sumErr = s.client.Summary(ctx, &creds, rec.ID)
	}()
	go func() {
		defer wg.Done()
		rows, rowErr = s.client.Data(ctx, &creds, rec.ID)
	}()
	wg.Wait()

	s.mu.Lock()
	if gen != s.detailGen {
		// A newer selection superseded this fetch.
		s.mu.Unlock()
		return nil
	}
	s.loading = false

	err := sumErr
	if err == nil {
		err = rowErr
	}
	if err != nil {
		s.detail = Detail{State: DetailFailed, Err: asAPIError(err)}
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}

	filename := summary.Filename
	if filename == "" {
		filename = rec.Filename
	}
	s.detail = Detail{
		State:    DetailReady,
		Filename: filename,
		Summary:  summary.Summary,
		Rows:     rows,
	}
	username := creds.Username
	cache := s.cache
	detail := s.detail
	s.mu.Unlock()

	if cache != nil {
		_ = cache.SaveDetail(username, rec.ID, detail.Filename, detail.Summary, detail.Rows)
	}
	return nil
}

// RefreshHistory re-reads the upload history. Only the most recently issued
// refresh may apply its result; a failed refresh leaves the list untouched.
func (s *Session) RefreshHistory(ctx context.Context) error {
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	s.historyGen++
	gen := s.historyGen
	s.loading = true
	s.lastError = ""
	creds := *s.creds
	s.mu.Unlock()

	h, err := s.client.History(ctx, &creds)

	s.mu.Lock()
	if gen != s.historyGen {
		// A newer refresh was issued; discard this result either way.
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}
	fetch := s.setHistoryLocked(h)
	username := creds.Username
	cache := s.cache
	list := append([]api.Upload(nil), s.history...)
	s.mu.Unlock()

	if cache != nil {
		_ = cache.SaveHistory(username, list)
	}
	if fetch != nil {
		return s.SelectItem(ctx, *fetch)
	}
	return nil
}

// UploadFile posts a CSV to the backend. On success the returned record goes
// to the front of the history and becomes the selection; the detail is seeded
// from the upload response's summary and the rows fetched separately. On
// failure neither history nor selection change.
func (s *Session) UploadFile(ctx context.Context, filename string, r io.Reader) (api.Upload, error) {
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return api.Upload{}, ErrNotSignedIn
	}
	s.uploading = true
	s.lastError = ""
	creds := *s.creds
	s.mu.Unlock()

	rec, err := s.client.UploadCSV(ctx, &creds, filename, r)

	s.mu.Lock()
	if !s.liveLocked(creds) {
		// Signed out (or rebound to another identity) while the POST was in
		// flight; the result must not repopulate the cleared session.
		s.mu.Unlock()
		return api.Upload{}, err
	}
	s.uploading = false
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		return api.Upload{}, err
	}

	s.recordUploadLocked(rec)
	sel := rec
	s.selected = &sel
	s.detailGen++
	gen := s.detailGen
	// The upload response already includes the summary; only rows are missing.
	s.detail = Detail{State: DetailReady, Filename: rec.Filename, Summary: rec.Summary}
	s.loading = true
	username := creds.Username
	cache := s.cache
	list := append([]api.Upload(nil), s.history...)
	s.mu.Unlock()

	if cache != nil {
		_ = cache.SaveHistory(username, list)
	}

	rows, err := s.client.Data(ctx, &creds, rec.ID)

	s.mu.Lock()
	if gen != s.detailGen {
		s.mu.Unlock()
		return rec, nil
	}
	s.loading = false
	if err != nil {
		// Keep the seeded summary; only the table stays empty.
		s.lastError = err.Error()
		s.mu.Unlock()
		return rec, err
	}
	if s.detail.State == DetailReady {
		s.detail.Rows = rows
	}
	detail := s.detail
	s.mu.Unlock()

	if cache != nil {
		_ = cache.SaveDetail(username, rec.ID, detail.Filename, detail.Summary, detail.Rows)
	}
	return rec, nil
}

// DownloadReport fetches the PDF report for the current selection and saves
// it under destDir, returning the written path.
func (s *Session) DownloadReport(ctx context.Context, destDir string) (string, error) {
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return "", ErrNotSignedIn
	}
	if s.selected == nil {
		s.mu.Unlock()
		return "", ErrNoSelection
	}
	sel := *s.selected
	creds := *s.creds
	s.downloading = true
	s.lastError = ""
	s.mu.Unlock()

	path, err := report.Save(ctx, s.client, &creds, sel.ID, sel.Filename, destDir)

	s.mu.Lock()
	if s.liveLocked(creds) {
		s.downloading = false
		if err != nil {
			s.lastError = err.Error()
		}
	}
	s.mu.Unlock()
	return path, err
}

// liveLocked reports whether the session is still bound to the credentials an
// in-flight request was issued with. Callers hold s.mu. A false result means
// the session was signed out (or re-authenticated) mid-flight and the pending
// result must be dropped.
func (s *Session) liveLocked(creds api.Credentials) bool {
	return s.creds != nil && *s.creds == creds
}

// SignOut clears credentials, history, selection, detail, and the stored
// error unconditionally. Generation counters are bumped so any in-flight
// completion from before the sign-out is discarded when it lands.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	s.history = nil
	s.selected = nil
	s.detail = Detail{}
	s.detailGen++
	s.historyGen++
	s.uploading = false
	s.loading = false
	s.downloading = false
	s.lastError = ""
}

func asAPIError(err error) *api.Error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &api.Error{Message: err.Error()}
}
