package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/api"
	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/BaamPark/WebLabelMV/internal/database"
	"github.com/BaamPark/WebLabelMV/internal/frames"
	"github.com/BaamPark/WebLabelMV/internal/storage"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"go.uber.org/zap"
)

type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Token  string
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if fixtureDir == "" {
		t.Skip("ffmpeg fixtures unavailable")
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	localStorage, err := storage.NewLocalStorage(fixtureDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	logger := zap.NewNop()
	ff := video.NewFFmpeg(video.Config{DecodeTimeout: 30 * time.Second}, logger)

	app := &api.App{
		Users:       database.NewUserRepository(db),
		Projects:    database.NewProjectRepository(db),
		Annotations: database.NewAnnotationRepository(db),
		Storage:     localStorage,
		Frames:      frames.NewService(localStorage, ff, ff, logger),
		Tokens:      auth.NewIssuer("integration-secret", time.Hour),
		Logger:      logger,
	}

	ts := &TestServer{
		Server: httptest.NewServer(api.NewRouter(app)),
		DB:     db,
	}
	t.Cleanup(ts.Cleanup)

	ts.Token = ts.signup(t, "annotator", "correct horse")
	return ts
}

func (ts *TestServer) Cleanup() {
	ts.Server.Close()
	ts.DB.Close()
}

func (ts *TestServer) request(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp, data
}

func (ts *TestServer) signup(t *testing.T, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}

	resp, body := ts.request(t, http.MethodPost, "/api/auth/signup", creds)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Signup failed: %d %s", resp.StatusCode, body)
	}

	resp, body = ts.request(t, http.MethodPost, "/api/auth/signin", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Signin failed: %d %s", resp.StatusCode, body)
	}

	var token struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		t.Fatalf("Failed to decode token: %v", err)
	}
	return token.Token
}

func (ts *TestServer) createProject(t *testing.T, fps int, videos ...string) string {
	t.Helper()

	resp, body := ts.request(t, http.MethodPost, "/api/projects", map[string]any{
		"name":            "integration",
		"video_directory": fixtureDir,
		"selected_videos": videos,
		"fps":             fps,
		"classes":         []string{"pattern"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create project failed: %d %s", resp.StatusCode, body)
	}

	var project struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	return project.ID
}
