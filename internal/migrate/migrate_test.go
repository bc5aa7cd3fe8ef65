package migrate

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/leca/loqed-births/internal/database"
	"github.com/leca/loqed-births/internal/gateway"
	"github.com/leca/loqed-births/internal/model"
	"github.com/leca/loqed-births/internal/registry"
	"github.com/leca/loqed-births/internal/storage"
	"github.com/leca/loqed-births/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noAnswers struct{}

func (noAnswers) Answer(context.Context, string, []model.Person, []model.Person) (string, error) {
	return "", nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 50, 30))
	for y := range 30 {
		for x := range 50 {
			img.Set(x, y, color.RGBA{R: 10, G: uint8(x * 4), B: uint8(y * 6), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewSQLiteDB("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := token.New("migrate-secret", token.ImageNamespace)
	require.NoError(t, err)
	cache := storage.NewFileSystem(t.TempDir())
	gw := gateway.New(db.Blobs(), cache, tokens, gateway.Config{BaseURL: "http://test", TokenValidity: time.Minute})
	reg := registry.New(db, gw, noAnswers{})

	ok, err := reg.Create(ctx, registry.CreateInput{Name: "Lia", BirthDate: "1992-02-02", Image: registry.Upload{Data: testPNG(t)}})
	require.NoError(t, err)
	broken, err := reg.Create(ctx, registry.CreateInput{Name: "Rui", BirthDate: "1980-08-08", Image: registry.Upload{Data: testPNG(t)}})
	require.NoError(t, err)

	// Lose Rui's image everywhere.
	require.NoError(t, gw.Remove(ctx, broken.ImageID))

	res, err := New(db, gw, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Failed: 1}, res)

	migrated, err := reg.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.NotEqual(t, ok.ImageID, migrated.ImageID)

	_, _, err = db.Blobs().Get(ctx, ok.ImageID)
	assert.Error(t, err, "old blob removed")

	data, contentType, err := gw.Load(ctx, migrated.ImageID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 400), img.Bounds())

	unchanged, err := reg.Get(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, broken.ImageID, unchanged.ImageID)

	n, err := db.Blobs().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunCancelled(t *testing.T) {
	db, err := database.NewSQLiteDB("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Now().UTC()
	require.NoError(t, db.CreatePerson(context.Background(), &model.Person{
		ID: "p1", Name: "Ana", BirthDate: "1990-01-01", ImageID: "x", CreatedAt: now, UpdatedAt: now,
	}))

	tokens, err := token.New("s", token.ImageNamespace)
	require.NoError(t, err)
	gw := gateway.New(db.Blobs(), storage.NewFileSystem(t.TempDir()), tokens, gateway.Config{TokenValidity: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(db, gw, nil).Run(ctx)
	assert.Error(t, err)
}
