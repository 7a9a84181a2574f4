package leaderboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/artifact"
)

// Artifact names written by a Publisher.
const (
	IndexName      = "leaderboards"
	SnapshotPrefix = "snapshots/rows-"
	snapshotLayout = "20060102T150405Z"
)

// DefaultKeep is the number of row snapshots a Publisher retains.
const DefaultKeep = 7

// Publisher writes leaderboard artifacts to an artifact store: the index of
// leaderboard names per category and JSONL dumps of every row.
type Publisher struct {
	store  artifact.Store
	keep   int
	logger *zap.Logger
}

// NewPublisher creates a publisher keeping the newest keep row snapshots.
func NewPublisher(store artifact.Store, keep int, logger *zap.Logger) *Publisher {
	if keep < 1 {
		keep = DefaultKeep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, keep: keep, logger: logger.Named("publisher")}
}

// PublishIndex writes the index of registry, replacing the previous one.
func (p *Publisher) PublishIndex(ctx context.Context, registry *Registry) error {
	data, err := json.MarshalIndent(registry.Index(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := p.store.Write(ctx, IndexName, data); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Publish writes the index and the rows of snap, then prunes old row
// snapshots.
func (p *Publisher) Publish(ctx context.Context, registry *Registry, snap *Snapshot) error {
	if err := p.PublishIndex(ctx, registry); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range snap.Rows() {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encoding row %s: %w", row.UUID, err)
		}
	}

	name := SnapshotPrefix + snap.BuiltAt.UTC().Format(snapshotLayout)
	if err := p.store.Write(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	p.logger.Info("snapshot published", zap.String("name", name), zap.Int("rows", snap.Len()))

	return p.prune(ctx)
}

// Latest reads the rows of the newest published snapshot. It returns
// artifact.ErrNotFound if nothing was published yet.
func (p *Publisher) Latest(ctx context.Context) ([]Row, error) {
	names, err := p.store.List(ctx, SnapshotPrefix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, artifact.ErrNotFound
	}
	data, err := p.store.Read(ctx, names[len(names)-1])
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// Restore seeds an empty store with the newest published snapshot and
// returns the number of rows restored. Stores that already hold rows are
// left alone.
func (p *Publisher) Restore(ctx context.Context, s *Store) (int, error) {
	n, err := s.rows.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	rows, err := p.Latest(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading snapshot: %w", err)
	}

	for _, row := range rows {
		if err := s.InsertOrReplace(ctx, row); err != nil {
			return 0, err
		}
	}
	p.logger.Info("rows restored", zap.Int("rows", len(rows)))
	return len(rows), nil
}

func (p *Publisher) prune(ctx context.Context) error {
	names, err := p.store.List(ctx, SnapshotPrefix)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(names) <= p.keep {
		return nil
	}
	for _, name := range names[:len(names)-p.keep] {
		if err := p.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("pruning %s: %w", name, err)
		}
	}
	return nil
}

func decodeRows(data []byte) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}
	return rows, nil
}
