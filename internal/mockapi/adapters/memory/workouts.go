package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/mockapi/domain/entities"
)

// WorkoutRepository хранит тренировки в памяти в порядке создания.
type WorkoutRepository struct {
	mu       sync.RWMutex
	workouts []entities.Workout
}

// NewWorkoutRepository создает пустой репозиторий тренировок.
func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{}
}

// Create сохраняет тренировку.
func (r *WorkoutRepository) Create(_ context.Context, workout entities.Workout) (entities.Workout, error) {
	if err := workout.Validate(); err != nil {
		return entities.Workout{}, err
	}

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	workout.CreatedAt = time.Now().UTC()
	if workout.StartedAt.IsZero() {
		workout.StartedAt = workout.CreatedAt
	}

	r.mu.Lock()
	r.workouts = append(r.workouts, workout)
	r.mu.Unlock()

	return workout, nil
}

// ListByUser возвращает тренировки пользователя.
func (r *WorkoutRepository) ListByUser(_ context.Context, userID string) ([]entities.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Workout, 0)
	for _, w := range r.workouts {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

// Delete удаляет тренировку пользователя.
func (r *WorkoutRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.workouts, func(w entities.Workout) bool {
		return w.ID == id && w.UserID == userID
	})
	if idx < 0 {
		return entities.ErrWorkoutNotFound
	}
	r.workouts = slices.Delete(r.workouts, idx, idx+1)
	return nil
}
