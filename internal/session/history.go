package session

import "github.com/davrell/chemviz/internal/api"

// maxHistory mirrors the backend's retention window: it keeps the five most
// recent uploads and silently drops the rest.
const maxHistory = 5

// setHistoryLocked replaces the history list and reconciles the selection.
// It returns the record whose detail now needs fetching, or nil when the
// selection was left untouched. Callers hold s.mu.
func (s *Session) setHistoryLocked(h []api.Upload) *api.Upload {
	if len(h) > maxHistory {
		h = h[:maxHistory]
	}
	s.history = h
	return s.reconcileLocked()
}

// reconcileLocked applies the selection rules after any history change:
// no selection -> newest record; selection missing from the list -> newest
// record or none; selection still present -> untouched.
func (s *Session) reconcileLocked() *api.Upload {
	if s.selected != nil {
		for _, u := range s.history {
			if u.ID == s.selected.ID {
				return nil
			}
		}
	} else if len(s.history) == 0 {
		return nil
	}

	if len(s.history) == 0 {
		s.selected = nil
		s.detailGen++
		s.detail = Detail{}
		return nil
	}

	rec := s.history[0]
	s.selected = &rec
	return &rec
}

// recordUploadLocked inserts rec at the front, deduplicating by id and
// truncating to the retention window. Idempotent for repeated ids.
func (s *Session) recordUploadLocked(rec api.Upload) {
	out := make([]api.Upload, 0, len(s.history)+1)
	out = append(out, rec)
	for _, u := range s.history {
		if u.ID != rec.ID {
			out = append(out, u)
		}
	}
	if len(out) > maxHistory {
		out = out[:maxHistory]
	}
	s.history = out
}
