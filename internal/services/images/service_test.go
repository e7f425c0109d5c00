package images

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeProvider struct {
	name  string
	data  []byte
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestGenerate_FirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: "primary", data: []byte("png-bytes")}
	second := &fakeProvider{name: "fallback", data: []byte("other")}
	svc := &Service{providers: []Provider{first, second}, logger: arbor.NewLogger()}

	img, err := svc.Generate(context.Background(), "sunset over tokyo")
	require.NoError(t, err)

	assert.Equal(t, "primary", img.Source)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), img.Data)
	assert.Zero(t, second.calls)
}

func TestGenerate_FallsThroughOnFailure(t *testing.T) {
	first := &fakeProvider{name: "primary", err: errors.New("quota exceeded")}
	second := &fakeProvider{name: "fallback", data: []byte("img")}
	svc := &Service{providers: []Provider{first, second}, logger: arbor.NewLogger()}

	img, err := svc.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "fallback", img.Source)
	assert.Equal(t, 1, first.calls)
}

func TestGenerate_ChainExhaustion(t *testing.T) {
	first := &fakeProvider{name: "a", err: errors.New("down")}
	second := &fakeProvider{name: "b", err: errors.New("also down")}
	svc := &Service{providers: []Provider{first, second}, logger: arbor.NewLogger()}

	_, err := svc.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "also down")
}

func TestGenerate_NoProviders(t *testing.T) {
	svc := &Service{logger: arbor.NewLogger()}

	_, err := svc.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
