package usecase

import (
	"context"
	"sync"

	"github.com/user/price-service/internal/entity"
)

type mockFetcher struct {
	body   []byte
	status int
	err    error
	calls  []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, int, error) {
	m.calls = append(m.calls, url)
	return m.body, m.status, m.err
}

type mockFailedRepo struct {
	mu      sync.Mutex
	records map[string]*entity.FailedExtraction
	deleted []string
	saveErr error
}

func newMockFailedRepo() *mockFailedRepo {
	return &mockFailedRepo{records: make(map[string]*entity.FailedExtraction)}
}

func (m *mockFailedRepo) SaveOrUpdate(_ context.Context, fe *entity.FailedExtraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := *fe
	stored.RetryCount = 1
	if prev, ok := m.records[fe.URL]; ok {
		stored.RetryCount = prev.RetryCount + 1
	}
	m.records[fe.URL] = &stored
	return nil
}

func (m *mockFailedRepo) FindByURL(_ context.Context, url string) (*entity.FailedExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[url], nil
}

func (m *mockFailedRepo) FindRetryable(_ context.Context, limit int) ([]*entity.FailedExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.FailedExtraction
	for _, fe := range m.records {
		if len(out) == limit {
			break
		}
		out = append(out, fe)
	}
	return out, nil
}

func (m *mockFailedRepo) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, url)
	m.deleted = append(m.deleted, url)
	return nil
}
