package publisher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "sjsage522/bonoworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "bono.json")
	p := NewFilePublisher(path)
	defer p.Close()

	require.NoError(t, p.Publish("run-1", []byte(`{"meta":{"totalComercios":1},"categorias":["Otros"]}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"meta\": {\n    \"totalComercios\": 1\n  },\n  \"categorias\": [\n    \"Otros\"\n  ]\n}\n", string(data))

	// Replaces the previous document
	require.NoError(t, p.Publish("run-1", []byte(`{}`)))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestFilePublisherInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bono.json")
	p := NewFilePublisher(path)

	err := p.Publish("run-1", []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePublisher))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

type failingPublisher struct {
	published int
	err       error
}

func (f *failingPublisher) Publish(key string, message []byte) error {
	f.published++
	return f.err
}

func (f *failingPublisher) Close() error { return nil }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	first := &failingPublisher{err: boom}
	second := &failingPublisher{}

	m := Multi{first, second}
	err := m.Publish("run-1", []byte(`{}`))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.published)
	assert.Equal(t, 1, second.published, "later publishers still run")
	assert.NoError(t, m.Close())
}
