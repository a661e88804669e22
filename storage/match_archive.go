package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Dosada05/hockey-live/models"
)

// MatchArchive сохраняет финальный снимок матча в объектное хранилище.
type MatchArchive struct {
	uploader FileUploader
}

func NewMatchArchive(uploader FileUploader) *MatchArchive {
	return &MatchArchive{uploader: uploader}
}

// ArchiveKey возвращает ключ объекта со снимком матча.
func ArchiveKey(matchID string) string {
	return "matches/" + url.PathEscape(matchID) + "/final.json"
}

func (a *MatchArchive) Store(ctx context.Context, match *models.LiveMatch) (*UploadResult, error) {
	body, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match %s snapshot: %w", match.MatchID, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(match.MatchID), "application/json", bytes.NewReader(body))
}

func (a *MatchArchive) Remove(ctx context.Context, matchID string) error {
	return a.uploader.Delete(ctx, ArchiveKey(matchID))
}

func (a *MatchArchive) URL(matchID string) string {
	return a.uploader.GetPublicURL(ArchiveKey(matchID))
}
