// Package mocks provides testify mocks for the download worker's ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/trimedia/tri-zvuk/internal/domain"
)

// MockStreamResolver is a mock implementation of worker.StreamResolver.
type MockStreamResolver struct {
	mock.Mock
}

func (m *MockStreamResolver) Resolve(ctx context.Context, id, authCookie string) (domain.StreamURLSet, error) {
	args := m.Called(ctx, id, authCookie)

	var urls domain.StreamURLSet
	if args.Get(0) != nil {
		urls = args.Get(0).(domain.StreamURLSet)
	}
	return urls, args.Error(1)
}

// MockMediaFetcher is a mock implementation of worker.MediaFetcher.
type MockMediaFetcher struct {
	mock.Mock
}

func (m *MockMediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)

	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.String(1), args.Error(2)
}

// MockStore is a mock implementation of cache.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, hash string, tier domain.QualityTier, ext string, data []byte) (string, error) {
	args := m.Called(ctx, hash, tier, ext, data)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Healthy(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
