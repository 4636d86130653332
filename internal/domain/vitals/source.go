package vitals

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vitallab/vitallab/internal/domain/tracks"
	"github.com/vitallab/vitallab/internal/platform/db"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/series"
)

var ErrNotFound = errors.New("case data not found")

// TableSource produces the wide signal table of a case.
type TableSource interface {
	Load(ctx context.Context, caseID int64) (*series.Frame, error)
	CaseIDs(ctx context.Context) ([]int64, error)
}

// FileSource reads one CSV per case from a directory. Each file has a
// "time" column and one column per signal.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource { return &FileSource{dir: dir} }

// clinicalInfoFile shares the data directory but is not a case table.
const clinicalInfoFile = "clinical_info.csv"

func (s *FileSource) Load(_ context.Context, caseID int64) (*series.Frame, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, strconv.FormatInt(caseID, 10)+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read case %d: %w", caseID, err)
	}
	table, err := vitaldb.ParseCSV(string(b))
	if err != nil {
		return nil, fmt.Errorf("case %d: %w", caseID, err)
	}
	return series.FrameFromTable(table)
}

// CaseIDs lists the numerically named CSV files, ascending.
func (s *FileSource) CaseIDs(_ context.Context) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	ids := []int64{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == clinicalInfoFile || !strings.HasSuffix(name, ".csv") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".csv"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// StoreSource assembles a case table from its synchronized tracks: one column
// per track name, rows outer-joined on time.
type StoreSource struct {
	tracks      tracks.Repository
	concurrency int
}

func NewStoreSource(repo tracks.Repository, concurrency int) *StoreSource {
	return &StoreSource{tracks: repo, concurrency: max(concurrency, 1)}
}

func (s *StoreSource) Load(ctx context.Context, caseID int64) (*series.Frame, error) {
	list, err := s.tracks.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}

	// A repeated track name keeps the first track by tid.
	var names []string
	picked := make([]*tracks.Track, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, t := range list {
		if seen[t.TName] {
			continue
		}
		seen[t.TName] = true
		names = append(names, t.TName)
		picked = append(picked, t)
	}

	data := make([][]series.Point, len(picked))
	// A request connection cannot serve parallel queries.
	g, gctx := errgroup.WithContext(db.WithoutConn(ctx))
	g.SetLimit(s.concurrency)
	for i, t := range picked {
		g.Go(func() error {
			pts, err := s.tracks.Data(gctx, t.TID)
			if err != nil {
				return fmt.Errorf("track %s: %w", t.TID, err)
			}
			data[i] = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string][]series.Point, len(picked))
	for i, t := range picked {
		byName[t.TName] = data[i]
	}
	return series.FrameFromSeries(names, byName), nil
}

func (s *StoreSource) CaseIDs(ctx context.Context) ([]int64, error) {
	return s.tracks.CaseIDs(ctx)
}
