package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	a := &stubJob{name: "a"}
	b := &stubJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(nil)
	registry.Register(b)

	assert.Equal(t, []string{"a", "b"}, registry.Names())

	jobs := registry.Jobs()
	jobs[0] = nil
	assert.Same(t, a, registry.Jobs()[0].(*stubJob))
}
