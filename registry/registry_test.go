package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/molprep/datasets"
)

func staticFactory(source string, calls *atomic.Int32) Factory {
	return func() (*datasets.Dataset, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &datasets.Dataset{Source: source}, nil
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := New()
	var calls atomic.Int32
	require.NoError(t, reg.Register("BBB_Martins", staticFactory("gonum", &calls)))

	require.True(t, reg.Has("BBB_Martins"))
	require.Equal(t, int32(0), calls.Load(), "factory must not run at registration")

	ds, err := reg.Get("BBB_Martins")
	require.NoError(t, err)
	require.Equal(t, "gonum", ds.Source)

	again, err := reg.Get("BBB_Martins")
	require.NoError(t, err)
	require.Same(t, ds, again)
	require.Equal(t, int32(1), calls.Load())
}

func TestRegister_DuplicateKeepsFirst(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("BBB_Martins", staticFactory("first", nil)))

	err := reg.Register("BBB_Martins", staticFactory("second", nil))
	require.ErrorIs(t, err, ErrDuplicateRegistration)

	ds, err := reg.Get("BBB_Martins")
	require.NoError(t, err)
	require.Equal(t, "first", ds.Source)
	require.Equal(t, []string{"BBB_Martins"}, reg.Keys())
}

func TestRegister_Invalid(t *testing.T) {
	reg := New()
	require.ErrorIs(t, reg.Register("", staticFactory("x", nil)), ErrInvalidRegistration)
	require.ErrorIs(t, reg.Register("x", nil), ErrInvalidRegistration)
	require.Empty(t, reg.Keys())
}

func TestGet_NotFound(t *testing.T) {
	_, err := New().Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_FactoryErrorNotMemoized(t *testing.T) {
	reg := New()
	boom := errors.New("boom")
	fail := true
	require.NoError(t, reg.Register("flaky", func() (*datasets.Dataset, error) {
		if fail {
			return nil, boom
		}
		return &datasets.Dataset{Source: "ok"}, nil
	}))

	_, err := reg.Get("flaky")
	require.ErrorIs(t, err, boom)

	fail = false
	ds, err := reg.Get("flaky")
	require.NoError(t, err)
	require.Equal(t, "ok", ds.Source)
}

func TestGet_NilDataset(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("nil", func() (*datasets.Dataset, error) { return nil, nil }))
	_, err := reg.Get("nil")
	require.Error(t, err)
}

func TestKeysSorted(t *testing.T) {
	reg := New()
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, reg.Register(k, staticFactory(k, nil)))
	}
	require.Equal(t, []string{"a", "b", "c"}, reg.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	reg := New()
	var calls atomic.Int32
	var dupes atomic.Int32

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Register("shared", staticFactory("gonum", &calls)); errors.Is(err, ErrDuplicateRegistration) {
				dupes.Add(1)
			}
			_, _ = reg.Get("shared")
		}()
	}
	wg.Wait()

	require.Equal(t, int32(15), dupes.Load())
	require.Equal(t, int32(1), calls.Load())
}
