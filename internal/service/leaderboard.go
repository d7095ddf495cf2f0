package service

import (
	"sort"
	"sync"
	"time"
)

type LeaderboardEntry struct {
	UserID     int64
	Username   string
	FirstName  string
	Score      int
	Total      int
	Percentage int
	Date       string
}

type LeaderboardService interface {
	AddEntry(userID int64, username, firstName string, score, total int) bool
	GetTop(limit int) []LeaderboardEntry
	GetUserPosition(userID int64) (int, *LeaderboardEntry)
}

// MemoryLeaderboardService keeps each player's best result for the lifetime
// of the process.
type MemoryLeaderboardService struct {
	mu      sync.RWMutex
	entries []LeaderboardEntry
	now     func() time.Time
}

func NewMemoryLeaderboardService() *MemoryLeaderboardService {
	return &MemoryLeaderboardService{
		entries: make([]LeaderboardEntry, 0),
		now:     time.Now,
	}
}

// AddEntry records a finished quiz and reports whether it became the
// player's best result.
func (ms *MemoryLeaderboardService) AddEntry(userID int64, username, firstName string, score, total int) bool {
	if total <= 0 {
		return false
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	percentage := (score * 100) / total
	newEntry := LeaderboardEntry{
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Date:       ms.now().Format("02.01.2006 15:04"),
	}

	for i, entry := range ms.entries {
		if entry.UserID == userID {
			if better(newEntry, entry) {
				ms.entries[i] = newEntry
				return true
			}
			return false
		}
	}

	ms.entries = append(ms.entries, newEntry)
	return true
}

func (ms *MemoryLeaderboardService) GetTop(limit int) []LeaderboardEntry {
	ms.mu.RLock()
	sorted := make([]LeaderboardEntry, len(ms.entries))
	copy(sorted, ms.entries)
	ms.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return better(sorted[i], sorted[j])
	})

	if limit < 0 || limit > len(sorted) {
		limit = len(sorted)
	}

	return sorted[:limit]
}

func (ms *MemoryLeaderboardService) GetUserPosition(userID int64) (int, *LeaderboardEntry) {
	top := ms.GetTop(-1)
	for i, entry := range top {
		if entry.UserID == userID {
			return i + 1, &entry
		}
	}
	return -1, nil
}

// better orders by percentage, then by raw score.
func better(a, b LeaderboardEntry) bool {
	if a.Percentage == b.Percentage {
		return a.Score > b.Score
	}
	return a.Percentage > b.Percentage
}
