package submission

import (
	"context"

	"github.com/confbase/confbase/internal/db"
)

// mockStore implements the store interface with pluggable functions.
type mockStore struct {
	hSetFunc        func(ctx context.Context, key string, fields map[string]string) error
	hSetMultiFunc   func(ctx context.Context, items []db.HashSetItem) error
	hGetAllFunc     func(ctx context.Context, key string) (map[string]string, error)
	hGetAllMulti    func(ctx context.Context, keys []string) ([]map[string]string, error)
	createIndexFunc func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFunc   func(ctx context.Context, name string) error
	indexExistsFunc func(ctx context.Context, name string) (bool, error)
	searchTextFunc  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchListFunc  func(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	searchCountFunc func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hSetFunc == nil {
		return nil
	}
	return m.hSetFunc(ctx, key, fields)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hSetMultiFunc == nil {
		return nil
	}
	return m.hSetMultiFunc(ctx, items)
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hGetAllFunc == nil {
		return nil, nil
	}
	return m.hGetAllFunc(ctx, key)
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hGetAllMulti == nil {
		return nil, nil
	}
	return m.hGetAllMulti(ctx, keys)
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFunc == nil {
		return nil
	}
	return m.createIndexFunc(ctx, def)
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFunc == nil {
		return nil
	}
	return m.dropIndexFunc(ctx, name)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFunc == nil {
		return false, nil
	}
	return m.indexExistsFunc(ctx, name)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFunc == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchTextFunc(ctx, q)
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFunc == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchListFunc(ctx, index, query, offset, limit, fields)
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFunc == nil {
		return 0, nil
	}
	return m.searchCountFunc(ctx, index, query)
}
