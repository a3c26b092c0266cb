package mock

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Story is a story spoiler as the API stores it.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Owner       string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

type storyStore struct {
	mu      sync.RWMutex
	stories map[string]*Story
}

func newStoryStore() *storyStore {
	return &storyStore{stories: make(map[string]*Story)}
}

func (s *storyStore) create(owner, title, description, url string) *Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	story := &Story{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		URL:         url,
		Owner:       owner,
		CreatedAt:   time.Now().UTC(),
	}
	s.stories[story.ID] = story
	return story
}

func (s *storyStore) update(id, title, description, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	story, ok := s.stories[id]
	if !ok {
		return false
	}
	story.Title = title
	story.Description = description
	story.URL = url
	return true
}

func (s *storyStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[id]; !ok {
		return false
	}
	delete(s.stories, id)
	return true
}

func (s *storyStore) get(id string) (Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	story, ok := s.stories[id]
	if !ok {
		return Story{}, false
	}
	return *story, true
}

// list returns every story ordered by creation time.
func (s *storyStore) list() []Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Story, 0, len(s.stories))
	for _, story := range s.stories {
		out = append(out, *story)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *storyStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stories)
}
