package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/hockey-live/models"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failDel bool
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	m.types[key] = contentType
	return &UploadResult{Key: key, Location: m.GetPublicURL(key)}, nil
}

func (m *memoryUploader) Delete(_ context.Context, key string) error {
	if m.failDel {
		return errors.New("delete failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryUploader) GetPublicURL(key string) string {
	return joinPublicURL("https://cdn.example.test/", key)
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "matches/m1/final.json", ArchiveKey("m1"))
	assert.Equal(t, "matches/a%2Fb/final.json", ArchiveKey("a/b"))
}

func TestMatchArchiveStoreAndRemove(t *testing.T) {
	up := newMemoryUploader()
	archive := NewMatchArchive(up)
	ctx := context.Background()

	m := &models.LiveMatch{MatchID: "m1", Team1Name: "Alpha", Team2Name: "Beta", Team1Score: 3, Status: models.MatchStatusFinished}
	res, err := archive.Store(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "matches/m1/final.json", res.Key)
	assert.Equal(t, "https://cdn.example.test/matches/m1/final.json", res.Location)
	assert.Equal(t, "application/json", up.types[res.Key])

	var stored models.LiveMatch
	require.NoError(t, json.Unmarshal(up.objects[res.Key], &stored))
	assert.Equal(t, 3, stored.Team1Score)
	assert.Equal(t, models.MatchStatusFinished, stored.Status)

	assert.Equal(t, res.Location, archive.URL("m1"))

	require.NoError(t, archive.Remove(ctx, "m1"))
	assert.Empty(t, up.objects)
}

func TestJoinPublicURL(t *testing.T) {
	assert.Equal(t, "https://pub.r2.dev/matches/x", joinPublicURL("https://pub.r2.dev", "matches/x"))
	assert.Equal(t, "https://pub.r2.dev/matches/x", joinPublicURL("https://pub.r2.dev/", "/matches/x"))
	assert.Empty(t, joinPublicURL("", "matches/x"))
	assert.Empty(t, joinPublicURL("https://pub.r2.dev", ""))
}

func TestNewCloudflareR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2Config{AccountID: "acc", BucketName: "b"})
	assert.Error(t, err)
}
