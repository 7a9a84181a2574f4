package rediscache

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/statsmith/statsmith/internal/cache"
)

func TestNew_Prefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "statsmith:"},
		{"player", "statsmith:player:"},
		{"player:", "statsmith:player:"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			b := New[string](nil, tt.input, nil)
			if b.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", b.prefix, tt.want)
			}
		})
	}
}

func TestBackend_key(t *testing.T) {
	b := New[string](nil, "guild", nil)
	if got := b.key("hypixel"); got != "statsmith:guild:hypixel" {
		t.Errorf("key() = %q, want %q", got, "statsmith:guild:hypixel")
	}
}

func TestEntryEncoding(t *testing.T) {
	type player struct {
		Name string `json:"name"`
	}
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	in := cache.NewEntry(player{Name: "alice"}, created, 5*time.Minute)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out cache.Entry[player]
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Value.Name != "alice" || !out.CreatedAt.Equal(created) || out.TTL != 5*time.Minute {
		t.Errorf("decoded entry = %+v, want %+v", out, in)
	}
}

// fakeRedis speaks just enough RESP for the commands the backend sends.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis(t *testing.T) *redis.Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	f := &fakeRedis{data: make(map[string]string)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	client := redis.NewClient(&redis.Options{Addr: ln.Addr().String()})
	t.Cleanup(func() {
		client.Close()
		ln.Close()
	})
	return client
}

func (f *fakeRedis) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	var queued [][]string
	inMulti := false
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch cmd := strings.ToUpper(args[0]); {
		case cmd == "MULTI":
			inMulti, queued = true, nil
			reply = "+OK\r\n"
		case cmd == "EXEC":
			reply = fmt.Sprintf("*%d\r\n", len(queued))
			for _, q := range queued {
				reply += f.exec(q)
			}
			inMulti = false
		case inMulti:
			queued = append(queued, args)
			reply = "+QUEUED\r\n"
		default:
			reply = f.exec(args)
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func (f *fakeRedis) exec(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "GET":
		v, ok := f.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(v), v)
	case "SET":
		f.data[args[1]] = args[2]
		return "+OK\r\n"
	case "EXISTS", "DEL":
		n := 0
		for _, k := range args[1:] {
			if _, ok := f.data[k]; ok {
				n++
				if strings.EqualFold(args[0], "DEL") {
					delete(f.data, k)
				}
			}
		}
		return fmt.Sprintf(":%d\r\n", n)
	}
	return "-ERR unknown command\r\n"
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("bad array header %q", line)
	}
	args := make([]string, n)
	for i := range args {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "$")))
		if err != nil {
			return nil, fmt.Errorf("bad bulk header %q", line)
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args[i] = string(buf[:size])
	}
	return args, nil
}

func TestBackend_LenCountsDistinctKeys(t *testing.T) {
	b := New[string](newFakeRedis(t), "player", nil)
	ctx := context.Background()
	entry := func(v string) cache.Entry[string] {
		return cache.NewEntry(v, time.Now(), time.Minute)
	}

	steps := []struct {
		name    string
		do      func()
		wantLen int
	}{
		{"first set", func() { b.Set(ctx, "alice", entry("v1")) }, 1},
		{"overwrite", func() { b.Set(ctx, "alice", entry("v2")) }, 1},
		{"second key", func() { b.Set(ctx, "bob", entry("v1")) }, 2},
		{"delete", func() { b.Delete(ctx, "alice") }, 1},
		{"delete missing", func() { b.Delete(ctx, "alice") }, 1},
	}
	for _, st := range steps {
		st.do()
		if got := b.Len(); got != st.wantLen {
			t.Errorf("after %s: Len() = %d, want %d", st.name, got, st.wantLen)
		}
	}

	got, ok := b.Get(ctx, "bob")
	if !ok || got.Value != "v1" {
		t.Errorf("Get(bob) = %+v, %v; want v1, true", got, ok)
	}
}
