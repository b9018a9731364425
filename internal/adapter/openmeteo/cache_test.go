package openmeteo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	calls  int
	result GeoResult
	err    error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, name, language string) (GeoResult, error) {
	f.calls++
	return f.result, f.err
}

func TestCachedGeocoder(t *testing.T) {
	t.Run("second lookup hits the cache", func(t *testing.T) {
		inner := &fakeGeocoder{result: GeoResult{Name: "서울, 대한민국", Latitude: 37.566}}
		cached, err := NewCachedGeocoder(inner, 4)
		require.NoError(t, err)

		for range 3 {
			got, err := cached.Geocode(context.Background(), "서울", "ko")
			require.NoError(t, err)
			assert.Equal(t, "서울, 대한민국", got.Name)
		}
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("key includes language", func(t *testing.T) {
		inner := &fakeGeocoder{result: GeoResult{Name: "Seoul"}}
		cached, err := NewCachedGeocoder(inner, 4)
		require.NoError(t, err)

		_, err = cached.Geocode(context.Background(), "Seoul", "en")
		require.NoError(t, err)
		_, err = cached.Geocode(context.Background(), "Seoul", "ko")
		require.NoError(t, err)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("key normalizes case and whitespace", func(t *testing.T) {
		inner := &fakeGeocoder{result: GeoResult{Name: "Seoul"}}
		cached, err := NewCachedGeocoder(inner, 4)
		require.NoError(t, err)

		_, err = cached.Geocode(context.Background(), "Seoul", "en")
		require.NoError(t, err)
		_, err = cached.Geocode(context.Background(), "  seoul ", "en")
		require.NoError(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &fakeGeocoder{err: errors.New("upstream down")}
		cached, err := NewCachedGeocoder(inner, 4)
		require.NoError(t, err)

		_, err = cached.Geocode(context.Background(), "서울", "ko")
		require.Error(t, err)
		_, err = cached.Geocode(context.Background(), "서울", "ko")
		require.Error(t, err)
		assert.Equal(t, 2, inner.calls)

		inner.err = nil
		inner.result = GeoResult{Name: "서울"}
		got, err := cached.Geocode(context.Background(), "서울", "ko")
		require.NoError(t, err)
		assert.Equal(t, "서울", got.Name)
	})
}
