package integration

import (
	"context"
	"reflect"
	"testing"

	"github.com/vitallab/vitallab/internal/domain/tracks"
	"github.com/vitallab/vitallab/internal/series"
)

func TestTrackRepoPG_UpsertMetadata(t *testing.T) {
	pool := migratedPool(t, "tracks")
	repo := tracks.NewTrackRepoPG(pool, 2)
	ctx := context.Background()

	if err := repo.Upsert(ctx, []*tracks.Track{
		{CaseID: 1, TName: "Solar8000/HR", TID: "a"},
		{CaseID: 2, TName: "BIS/BIS", TID: "b"},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, []*tracks.Track{{CaseID: 1, TName: "Solar8000/PLETH_HR", TID: "a"}}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	if got.TName != "Solar8000/PLETH_HR" {
		t.Errorf("tname = %q, want the updated name", got.TName)
	}

	ids, err := repo.CaseIDs(ctx)
	if err != nil {
		t.Fatalf("case ids: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Errorf("case ids = %v, want [1 2]", ids)
	}
}

func TestTrackRepoPG_ReplaceDataReplaces(t *testing.T) {
	pool := migratedPool(t, "trackdata")
	repo := tracks.NewTrackRepoPG(pool, 2)
	ctx := context.Background()

	first := []series.Point{{Time: 2, Value: 82}, {Time: 0, Value: 80}, {Time: 1, Value: 81}}
	if err := repo.ReplaceData(ctx, "a", first); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := repo.ReplaceData(ctx, "b", []series.Point{{Time: 0, Value: 1}}); err != nil {
		t.Fatalf("replace other track: %v", err)
	}

	pts, err := repo.Data(ctx, "a")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	want := []series.Point{{Time: 0, Value: 80}, {Time: 1, Value: 81}, {Time: 2, Value: 82}}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("data = %v, want %v ordered by time", pts, want)
	}

	second := []series.Point{{Time: 10, Value: 90}, {Time: 11, Value: 91}}
	if err := repo.ReplaceData(ctx, "a", second); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	pts, err = repo.Data(ctx, "a")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if !reflect.DeepEqual(pts, second) {
		t.Errorf("data = %v, want only the second batch", pts)
	}

	if n := countRows(t, pool, `SELECT COUNT(*) FROM track_data WHERE tid = $1`, "b"); n != 1 {
		t.Errorf("other track has %d samples, want 1", n)
	}
}

func TestTrackRepoPG_DataUnknownTrack(t *testing.T) {
	pool := migratedPool(t, "nodata")
	pts, err := tracks.NewTrackRepoPG(pool, 10).Data(context.Background(), "missing")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if pts == nil || len(pts) != 0 {
		t.Errorf("expected an empty, non-nil list, got %v", pts)
	}
}
