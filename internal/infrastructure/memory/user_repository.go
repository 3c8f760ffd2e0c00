package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria; el email se compara sin mayúsculas.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

// NewUserRepository crea un repositorio vacío.
func NewUserRepository() *UserRepo {
	return &UserRepo{users: make(map[string]entity.User)}
}

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("usuario %s: %w", user.Email, domain.ErrDuplicate)
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return &domain.NotFoundError{Entity: "usuario", Key: user.ID}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.mu.RLock()
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		all = append(all, &u)
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
