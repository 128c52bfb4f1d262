package annotation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps annotations in memory, keyed by group. It is never persisted.
type Store struct {
	mu     sync.RWMutex
	groups map[string][]Annotation
	uids   map[string]string // uid -> group key
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		groups: make(map[string][]Annotation),
		uids:   make(map[string]string),
		now:    time.Now,
	}
}

// AddAnnotation stores a record under groupKey and returns the stored copy.
// A UID is generated when the record has none.
func (s *Store) AddAnnotation(a Annotation, groupKey string) (Annotation, error) {
	if groupKey == "" {
		return Annotation{}, ErrEmptyGroupKey
	}
	if a.Metadata.ReferencedImageID == "" {
		return Annotation{}, ErrNoImage
	}
	if a.UID == "" {
		a.UID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.GroupKey = groupKey
	a.Data.Points = append(a.Data.Points[:0:0], a.Data.Points...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.uids[a.UID]; dup {
		return Annotation{}, fmt.Errorf("%w: %s", ErrDuplicateUID, a.UID)
	}
	s.groups[groupKey] = append(s.groups[groupKey], a)
	s.uids[a.UID] = groupKey
	return a, nil
}

// GetAllAnnotations returns every annotation, ordered by creation time.
func (s *Store) GetAllAnnotations() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Annotation
	for _, list := range s.groups {
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetAnnotations returns the annotations stored under one group key.
func (s *Store) GetAnnotations(groupKey string) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.groups[groupKey]
	out := make([]Annotation, len(list))
	copy(out, list)
	return out
}

// ForImage returns the annotations that reference imageID.
func (s *Store) ForImage(imageID string) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Annotation
	for _, list := range s.groups {
		for _, a := range list {
			if a.Metadata.ReferencedImageID == imageID {
				out = append(out, a)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove deletes an annotation by UID.
func (s *Store) Remove(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.uids[uid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	list := s.groups[key]
	for i, a := range list {
		if a.UID == uid {
			s.groups[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(s.uids, uid)
	return nil
}

// Count returns the total number of annotations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uids)
}
