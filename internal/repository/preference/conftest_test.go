package preference

import "context"

// mockStore implements the store interface with pluggable functions.
type mockStore struct {
	sAddFunc     func(ctx context.Context, key string, members ...string) error
	sRemFunc     func(ctx context.Context, key string, members ...string) error
	sMembersFunc func(ctx context.Context, key string) ([]string, error)
	scanFunc     func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.sAddFunc == nil {
		return nil
	}
	return m.sAddFunc(ctx, key, members...)
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...string) error {
	if m.sRemFunc == nil {
		return nil
	}
	return m.sRemFunc(ctx, key, members...)
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.sMembersFunc == nil {
		return nil, nil
	}
	return m.sMembersFunc(ctx, key)
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFunc == nil {
		return nil, nil
	}
	return m.scanFunc(ctx, pattern)
}
