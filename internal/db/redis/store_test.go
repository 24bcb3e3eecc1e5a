package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/confbase/confbase/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Index Already Exists", "index already exists", true},
		{"UNKNOWN INDEX NAME", "unknown index name", true},
		{"hello world", "world", true},
		{"short", "longer than input", false},
		{"exact", "exact", true},
		{"", "", true},
		{"notempty", "", true},
	}
	for _, tc := range tests {
		got := containsIgnoreCase(tc.s, tc.sub)
		if got != tc.want {
			t.Errorf("containsIgnoreCase(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
		}
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "confbase:agenda:2020-3:s1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "confbase:agenda:2020-3:s1", map[string]string{"title": "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "mykey")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"title":    mock.RedisString("Spiking networks"),
			"fullname": mock.RedisString("A. Author"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["title"] != "Spiking networks" || m["fullname"] != "A. Author" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.Result(mock.RedisInt64(1)),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAllMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"title": mock.RedisString("a"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"title": mock.RedisString("b"),
			})),
		})

	s := NewStoreForTest(c)
	results, err := s.HGetAllMulti(context.Background(), []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["title"] != "a" || results[1]["title"] != "b" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestHGetAllMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	results, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

// --- set.go tests ---

func TestSAdd_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SADD", "confbase:pref:u1:2020-3", "s1", "s2")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	if err := s.SAdd(context.Background(), "confbase:pref:u1:2020-3", "s1", "s2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSAdd_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.SAdd(context.Background(), "mykey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSRem_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SREM", "confbase:pref:u1:2020-3", "s1")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.SRem(context.Background(), "confbase:pref:u1:2020-3", "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSMembers_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SMEMBERS", "mykey")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("s1"), mock.RedisString("s2"))))

	s := NewStoreForTest(c)
	members, err := s.SMembers(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
}

func TestSMembers_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SMEMBERS", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if _, err := s.SMembers(context.Background(), "mykey"); !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

// --- kv.go tests ---

func TestScan_SinglePage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// SCAN returns [cursor, [elements...]]
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0), // cursor=0 means done
			mock.RedisArray(mock.RedisString("key1"), mock.RedisString("key2")),
		)))

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "confbase:pref:u1:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "confbase:pref:u1:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

// --- json.go tests ---

func TestJSONSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.SET" && cmd[1] == "confbase:user:u1" && cmd[2] == "$"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	err := s.JSONSet(context.Background(), "confbase:user:u1", "$", []byte(`{"fullname":"A"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.GET" && cmd[1] == "confbase:user:u1"
		})).
		Return(mock.Result(mock.RedisString(`[{"fullname":"A"}]`)))

	s := NewStoreForTest(c)
	data, err := s.JSONGet(context.Background(), "confbase:user:u1", "$")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `[{"fullname":"A"}]` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestJSONGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.GET"
		})).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "confbase:user:u1", "$")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "agenda-2020-3",
		Fields: []db.IndexField{{Name: "title", Type: db.IndexFieldText}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestDropIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "agenda-2020-3")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "agenda-2020-3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "agenda-2020-3")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "agenda-2020-3")
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "agenda-2020-3")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "agenda-2020-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{Name: "test"})
	if err == nil {
		t.Error("expected error for empty fields")
	}
}

// --- search.go tests ---

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// WITHSCORES reply: [total, key1, score1, fields1, ...]
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" || cmd[1] != "agenda-2020-3" {
				return false
			}
			for _, arg := range cmd {
				if arg == "WITHSCORES" {
					return true
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("confbase:agenda:2020-3:s1"),
			mock.RedisString("1.5"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("Spiking networks")),
			mock.RedisString("confbase:agenda:2020-3:s2"),
			mock.RedisString("0.7"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("Neural decoding")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "agenda-2020-3",
		Query:        "networks",
		TopK:         10,
		ReturnFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Entries[0].Key != "confbase:agenda:2020-3:s1" || result.Entries[0].Score != 1.5 {
		t.Errorf("entry 0 = %+v", result.Entries[0])
	}
	if result.Entries[1].Fields["title"] != "Neural decoding" {
		t.Errorf("entry 1 = %+v", result.Entries[1])
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := NewStoreForTest(nil) // client not called

	if _, err := s.SearchText(context.Background(), &db.TextQuery{Query: "q", TopK: 1}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "i", TopK: 1}); err == nil {
		t.Error("expected error for missing query")
	}
	if _, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "i", Query: "q"}); err == nil {
		t.Error("expected error for non-positive topK")
	}
}

func TestSearchList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// Without WITHSCORES the reply is [total, key1, fields1, ...]
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "agenda-2020-3" && cmd[2] == "*" &&
				cmd[3] == "LIMIT" && cmd[4] == "40" && cmd[5] == "20"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("confbase:agenda:2020-3:s1"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("a")),
			mock.RedisString("confbase:agenda:2020-3:s2"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("b")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchList(context.Background(), "agenda-2020-3", "*", 40, 20, []string{"title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Entries[1].Key != "confbase:agenda:2020-3:s2" || result.Entries[1].Fields["title"] != "b" {
		t.Errorf("entry 1 = %+v", result.Entries[1])
	}
}

func TestSearchCount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "agenda-2020-3", "*", "LIMIT", "0", "0")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(95))))

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), "agenda-2020-3", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 95 {
		t.Errorf("count = %d, want 95", n)
	}
}

// --- result parsing ---

func TestParseScoredResult(t *testing.T) {
	tests := []struct {
		name        string
		raw         []rueidis.RedisMessage
		wantTotal   int
		wantEntries int
	}{
		{"empty reply", nil, 0, 0},
		{"zero total", []rueidis.RedisMessage{mock.RedisInt64(0)}, 0, 0},
		{
			"single hit",
			[]rueidis.RedisMessage{
				mock.RedisInt64(1),
				mock.RedisString("k1"),
				mock.RedisString("2.25"),
				mock.RedisArray(mock.RedisString("title"), mock.RedisString("t")),
			},
			1, 1,
		},
		{
			"malformed score skipped",
			[]rueidis.RedisMessage{
				mock.RedisInt64(2),
				mock.RedisString("k1"),
				mock.RedisString("not-a-number"),
				mock.RedisArray(),
				mock.RedisString("k2"),
				mock.RedisString("1.0"),
				mock.RedisArray(),
			},
			2, 1,
		},
		{
			"truncated tail ignored",
			[]rueidis.RedisMessage{
				mock.RedisInt64(2),
				mock.RedisString("k1"),
				mock.RedisString("1.0"),
				mock.RedisArray(),
				mock.RedisString("k2"),
			},
			2, 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseScoredResult(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Total != tc.wantTotal || len(result.Entries) != tc.wantEntries {
				t.Errorf("result = %+v, want total %d with %d entries",
					result, tc.wantTotal, tc.wantEntries)
			}
		})
	}
}

func TestParseListResult(t *testing.T) {
	tests := []struct {
		name        string
		raw         []rueidis.RedisMessage
		wantTotal   int
		wantEntries int
	}{
		{"empty reply", nil, 0, 0},
		{"zero total", []rueidis.RedisMessage{mock.RedisInt64(0)}, 0, 0},
		{
			"two hits",
			[]rueidis.RedisMessage{
				mock.RedisInt64(2),
				mock.RedisString("k1"),
				mock.RedisArray(mock.RedisString("title"), mock.RedisString("a")),
				mock.RedisString("k2"),
				mock.RedisArray(mock.RedisString("title"), mock.RedisString("b")),
			},
			2, 2,
		},
		{
			"dangling key ignored",
			[]rueidis.RedisMessage{
				mock.RedisInt64(2),
				mock.RedisString("k1"),
				mock.RedisArray(),
				mock.RedisString("k2"),
			},
			2, 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseListResult(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Total != tc.wantTotal || len(result.Entries) != tc.wantEntries {
				t.Errorf("result = %+v, want total %d with %d entries",
					result, tc.wantTotal, tc.wantEntries)
			}
		})
	}
}

func TestParseFieldPairs_OddTail(t *testing.T) {
	m := parseFieldPairs([]rueidis.RedisMessage{
		mock.RedisString("title"), mock.RedisString("t"),
		mock.RedisString("dangling"),
	})
	if len(m) != 1 || m["title"] != "t" {
		t.Errorf("fields = %v", m)
	}
}

func TestEscapeQuery(t *testing.T) {
	got := escapeQuery(`spiking-networks (v2)`)
	want := `spiking\-networks \(v2\)`
	if got != want {
		t.Errorf("escapeQuery = %q, want %q", got, want)
	}
}

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
