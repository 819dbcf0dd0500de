package cli_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/internal/cli"
	"github.com/stretchr/testify/assert"
)

func TestSignalContext_Stop(t *testing.T) {
	sc := cli.NewSignalContext(context.Background())
	assert.NoError(t, sc.Err())

	sc.Stop()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := cli.NewSignalContext(parent)
	defer sc.Stop()

	cancel()
	<-sc.Done()
	assert.ErrorIs(t, sc.Err(), context.Canceled)
	assert.Nil(t, sc.Signal())
}
