package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.uber.org/zap"
)

func TestBoxesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		boxes string
	}{
		{"boxes with attributes", `[{"x":10,"y":20.5,"w":30,"h":40,"class":"car","attributes":{"color":"red"}},{"class":"bike"}]`},
		{"empty", `[]`},
		{"dollar keys stay literal", `[{"x":1,"meta":{"$numberLong":"7"}},{"$oid":"abc"}]`},
		{"integers wider than int64", `[18446744073709551616,-9223372036854775809]`},
		{"formatting kept", "[ {\"x\": 1.50,  \"note\": \"caf\u00e9\"} ]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := boxesToDoc(json.RawMessage(tt.boxes))
			require.NoError(t, err)

			out, err := boxesFromDoc(stored)
			require.NoError(t, err)
			assert.Equal(t, tt.boxes, string(out))
		})
	}

	for _, bad := range []string{`[1,`, `{"boxes":[]}`, ``} {
		_, err := boxesToDoc(json.RawMessage(bad))
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), bad)
	}

	_, err := boxesFromDoc("not json")
	assert.Error(t, err)
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongodb container in short mode")
	}

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Skipf("MongoDB container unavailable: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Connect(ctx, uri, "labelmv_"+uuid.NewString()[:8], zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })
	return store
}

func TestStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		user := models.NewUser("alice", "hash")
		require.NoError(t, store.CreateUser(ctx, user))

		err := store.CreateUser(ctx, models.NewUser("alice", "other"))
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		got, err := store.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = store.GetUserByID(ctx, "missing")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("projects and annotations", func(t *testing.T) {
		owner := models.NewUser("owner", "hash")
		require.NoError(t, store.CreateUser(ctx, owner))

		project := models.NewProject(owner.ID, models.ProjectInput{
			VideoDirectory: "/videos",
			SelectedVideos: []string{"a.mp4", "b.mp4"},
			FPS:            3,
			Classes:        []string{"car"},
		})
		require.NoError(t, store.CreateProject(ctx, project))

		_, err := store.GetProject(ctx, "someone-else", project.ID)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		project.Apply(models.ProjectInput{
			Name:           "renamed",
			VideoDirectory: "/videos",
			SelectedVideos: []string{"b.mp4"},
			FPS:            1,
		})
		require.NoError(t, store.UpdateProject(ctx, project))

		got, err := store.GetProject(ctx, owner.ID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, []string{"b.mp4"}, got.SelectedVideos)
		assert.Empty(t, got.Classes)

		list, err := store.ListProjects(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		key := models.AnnotationKey{UserID: owner.ID, ProjectID: project.ID, VideoIndex: 0, SampleIndex: 4}
		_, err = store.GetAnnotation(ctx, key)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		set, err := models.NewAnnotationSet(key, json.RawMessage(`[{"class":"car","x":1}]`))
		require.NoError(t, err)
		require.NoError(t, store.UpsertAnnotation(ctx, set))

		set, err = models.NewAnnotationSet(key, json.RawMessage(`[{"class":"car","x":2}]`))
		require.NoError(t, err)
		require.NoError(t, store.UpsertAnnotation(ctx, set))

		saved, err := store.GetAnnotation(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"class":"car","x":2}]`, string(saved.Boxes))

		literal := `[{"meta":{"$numberLong":"7"},"id":18446744073709551616}]`
		set, err = models.NewAnnotationSet(key, json.RawMessage(literal))
		require.NoError(t, err)
		require.NoError(t, store.UpsertAnnotation(ctx, set))
		saved, err = store.GetAnnotation(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, literal, string(saved.Boxes))

		require.NoError(t, store.DeleteProject(ctx, owner.ID, project.ID))
		_, err = store.GetAnnotation(ctx, key)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		err = store.DeleteProject(ctx, owner.ID, project.ID)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}
