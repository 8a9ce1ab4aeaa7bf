package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"routewatch/internal/catalog"
	"routewatch/internal/service"
	"routewatch/internal/storage"
	"routewatch/pkg/geometry"
	"routewatch/pkg/log"
)

const snapshotKey = "routes/dehradun_to_chandigarh/static_route_2025-01-02_03-04-05.json"

func providerDoc(t *testing.T) map[string]any {
	t.Helper()
	doc, err := storage.DecodeJSON([]byte(`{
		"routes": [{
			"summary": {"lengthInMeters": 167000, "travelTimeInSeconds": 10800, "trafficDelayInSeconds": 120},
			"legs": [{"points": [
				{"latitude": 0.0, "longitude": 0.0},
				{"latitude": 0.0, "longitude": 1.0}
			]}]
		}]
	}`))
	require.NoError(t, err)
	return doc
}

func TestPipeline_ProviderSnapshot(t *testing.T) {
	it := &Item{Bucket: "lake", Key: snapshotKey, Doc: providerDoc(t)}

	err := NewPipeline().WithLogger(log.NewNopLogger()).Apply(context.Background(), it)

	require.NoError(t, err)
	require.Equal(t, geometry.ShapeProvider, it.Geometry.Shape)
	require.Len(t, it.Geometry.Points, 2)
	require.Equal(t, "dehradun_to_chandigarh", it.Route)
	require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), it.CapturedAt)
	require.InDelta(t, 111195, it.PathMeters, 1)
	require.NotNil(t, it.Summary.LengthMeters)
	require.EqualValues(t, 167000, *it.Summary.LengthMeters)
	require.EqualValues(t, 10800, *it.Summary.TravelTimeSeconds)
	require.EqualValues(t, 120, *it.Summary.TrafficDelaySeconds)

	row := it.Snapshot()
	require.Equal(t, catalog.Snapshot{
		Key:                 snapshotKey,
		Route:               "dehradun_to_chandigarh",
		CapturedAt:          it.CapturedAt,
		Shape:               "routes",
		Points:              2,
		PathMeters:          it.PathMeters,
		LengthMeters:        it.Summary.LengthMeters,
		TravelTimeSeconds:   it.Summary.TravelTimeSeconds,
		TrafficDelaySeconds: it.Summary.TrafficDelaySeconds,
	}, row)
}

func TestPipeline_EncodedSnapshotHasNoSummary(t *testing.T) {
	it := &Item{Key: snapshotKey, Doc: map[string]any{"geometry": "_p~iF~ps|U_ulLnnqC_mqNvxq`@"}}

	err := NewPipeline().WithLogger(log.NewNopLogger()).Apply(context.Background(), it)

	require.NoError(t, err)
	require.Equal(t, geometry.ShapeEncoded, it.Geometry.Shape)
	require.Len(t, it.Geometry.Points, 3)
	require.Greater(t, it.PathMeters, 0.0)
	require.Nil(t, it.Summary.LengthMeters)
}

func TestPipeline_Failures(t *testing.T) {
	t.Run("bad key", func(t *testing.T) {
		it := &Item{Key: "routes/readme.json", Doc: map[string]any{}}
		err := NewPipeline().WithLogger(log.NewNopLogger()).Apply(context.Background(), it)
		require.Error(t, err)
		require.Empty(t, it.Route)
	})

	t.Run("bad polyline", func(t *testing.T) {
		it := &Item{Key: snapshotKey, Doc: map[string]any{"geometry": "!!!"}}
		err := NewPipeline().WithLogger(log.NewNopLogger()).Apply(context.Background(), it)
		require.ErrorContains(t, err, "Error decoding polyline")
		require.Equal(t, "dehradun_to_chandigarh", it.Route)
		require.Zero(t, it.PathMeters)
	})

	t.Run("bad summary value", func(t *testing.T) {
		it := &Item{Key: snapshotKey, Doc: map[string]any{"routes": []any{
			map[string]any{"summary": map[string]any{"lengthInMeters": []any{}}},
		}}}
		err := NewPipeline().WithLogger(log.NewNopLogger()).Apply(context.Background(), it)
		require.ErrorContains(t, err, "lengthInMeters")
		require.Nil(t, it.Summary.LengthMeters)
	})
}

type fakeStore struct {
	docs map[string]map[string]any
}

func (f *fakeStore) GetJSON(_ context.Context, _, key string) (map[string]any, error) {
	doc, ok := f.docs[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return doc, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	rows []catalog.Snapshot
	err  error
}

func (f *fakeRecorder) Upsert(_ context.Context, s catalog.Snapshot) (catalog.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return catalog.Snapshot{}, f.err
	}
	f.rows = append(f.rows, s)
	return s, nil
}

func TestLoader(t *testing.T) {
	store := &fakeStore{docs: map[string]map[string]any{snapshotKey: {"route": []any{}}}}
	load := Loader(store)

	it, err := load(context.Background(), "lake", snapshotKey)
	require.NoError(t, err)
	require.Equal(t, "lake", it.Bucket)
	require.Equal(t, snapshotKey, it.Key)
	require.Contains(t, it.Doc, "route")

	_, err = load(context.Background(), "lake", "routes/x/missing.json")
	require.Error(t, err)
}

func TestRun_RecordsSnapshots(t *testing.T) {
	objects := make(chan *service.FetchedObject[*Item], 3)
	objects <- &service.FetchedObject[*Item]{Key: snapshotKey, Data: &Item{Key: snapshotKey, Doc: providerDoc(t)}}
	objects <- &service.FetchedObject[*Item]{Key: "routes/notes.json", Data: &Item{Key: "routes/notes.json", Doc: map[string]any{}}}
	emptyKey := "routes/mumbai_to_goa/static_route_2025-01-02_03-04-05.json"
	objects <- &service.FetchedObject[*Item]{Key: emptyKey, Data: &Item{Key: emptyKey, Doc: map[string]any{}}}
	close(objects)

	rec := &fakeRecorder{}
	Run(context.Background(), objects, NewPipeline().WithLogger(log.NewNopLogger()), rec, log.NewNopLogger())

	require.Len(t, rec.rows, 2)
	require.Equal(t, snapshotKey, rec.rows[0].Key)
	require.Equal(t, "routes", rec.rows[0].Shape)
	require.Equal(t, emptyKey, rec.rows[1].Key)
	require.Equal(t, "none", rec.rows[1].Shape)
	require.Zero(t, rec.rows[1].Points)
}

func TestSink_UpsertFailureIsLogged(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("connection reset")}
	it := &Item{Key: snapshotKey, Route: "dehradun_to_chandigarh"}

	require.NotPanics(t, func() {
		Sink(rec, log.NewNopLogger())(context.Background(), it, nil)
	})
	require.Empty(t, rec.rows)
}
