package app

import (
	"sync"

	"quizzie-service/internal/domain"
)

// analysisHub fans out analysis snapshots to the owners watching a quiz.
type analysisHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.QuizAnalysis]struct{}
	registry    watchRegistry
}

type watchRegistry interface {
	Watching(quizID string)
	Idle(quizID string)
}

func newAnalysisHub() *analysisHub {
	return &analysisHub{
		subscribers: make(map[string]map[chan domain.QuizAnalysis]struct{}),
		registry:    noopRegistry{},
	}
}

func (h *analysisHub) subscribe(quizID string, initial domain.QuizAnalysis) (<-chan domain.QuizAnalysis, func()) {
	ch := make(chan domain.QuizAnalysis, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.QuizAnalysis]struct{})
		h.subscribers[quizID] = subs
		h.registry.Watching(quizID)
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, quizID)
			h.registry.Idle(quizID)
		}
	}
	return ch, cancel
}

func (h *analysisHub) hasSubscribers(quizID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[quizID]) > 0
}

func (h *analysisHub) broadcast(quizID string, analysis domain.QuizAnalysis) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[quizID] {
		select {
		case ch <- analysis:
		default:
			// slow subscriber: replace its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- analysis
		}
	}
}

type noopRegistry struct{}

func (noopRegistry) Watching(string) {}
func (noopRegistry) Idle(string)     {}
