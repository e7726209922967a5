package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Compiled("home", time.Millisecond, nil)
		r.Rendered("home", time.Millisecond, errors.New("x"))
		r.Lookup("memory")
	})
	assert.Nil(t, New(nil))
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.Compiled("home", time.Millisecond, nil)
	r.Compiled("home", time.Millisecond, errors.New("bad"))
	r.Rendered("home", time.Millisecond, nil)
	r.Lookup("memory")
	r.Lookup("memory")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.compiles.WithLabelValues("home", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.compiles.WithLabelValues("home", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.renders.WithLabelValues("home", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.lookups.WithLabelValues("memory")))
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	var b *Recorder
	require.NotPanics(t, func() { b = New(reg) })
	a.Lookup("compile")
	b.Lookup("compile")
	assert.Equal(t, 2.0, testutil.ToFloat64(a.lookups.WithLabelValues("compile")))
}
