// YouTube Data API v3 [MediaService] implementation
//
// Endpoint shapes based on https://developers.google.com/youtube/v3/docs and the
// resumable upload protocol https://developers.google.com/youtube/v3/guides/using_resumable_upload_protocol
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/mossridge/ytup/internal/models"
)

const (
	youtubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	youtubeUploadURL = "https://www.googleapis.com/upload/youtube/v3"
)

// YouTubeService implements MediaService against the YouTube Data API.
// The http.Client is expected to inject OAuth credentials (see internal/auth).
type YouTubeService struct {
	baseURL    string
	uploadURL  string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube service instance. baseURL overrides
// the production endpoint when non-empty (used by tests).
func NewYouTubeService(client *http.Client, baseURL string) *YouTubeService {
	if client == nil {
		client = http.DefaultClient
	}
	svc := &YouTubeService{
		baseURL:    youtubeBaseURL,
		uploadURL:  youtubeUploadURL,
		httpClient: client,
	}
	if baseURL != "" {
		svc.baseURL = baseURL
		svc.uploadURL = baseURL
	}
	return svc
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// decodeError turns a non-2xx response into an *APIError, extracting the
// Google error envelope when present.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}

	body, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		if len(envelope.Error.Errors) > 0 {
			apiErr.Reason = envelope.Error.Errors[0].Reason
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListCollections retrieves all playlists owned by the authenticated user.
//
// Calls GET /playlists?mine=true, following nextPageToken until exhausted.
func (y *YouTubeService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var collections []models.Collection
	pageToken := ""

	for {
		endpoint := "/playlists?part=snippet&mine=true&maxResults=50"
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page struct {
			NextPageToken string `json:"nextPageToken"`
			Items         []struct {
				ID      string `json:"id"`
				Snippet struct {
					Title string `json:"title"`
				} `json:"snippet"`
			} `json:"items"`
		}

		if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			collections = append(collections, models.Collection{
				Name:     item.Snippet.Title,
				RemoteID: item.ID,
			})
		}

		if page.NextPageToken == "" {
			return collections, nil
		}
		pageToken = page.NextPageToken
	}
}

// CreateCollection creates a playlist with the given name and privacy status.
//
// Calls POST /playlists?part=snippet,status.
func (y *YouTubeService) CreateCollection(ctx context.Context, name, description, privacy string) (*models.Collection, error) {
	body := map[string]any{
		"snippet": map[string]string{
			"title":       name,
			"description": description,
		},
		"status": map[string]string{
			"privacyStatus": privacy,
		},
	}

	var created struct {
		ID string `json:"id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/playlists?part=snippet,status", body, &created); err != nil {
		return nil, err
	}

	return &models.Collection{Name: name, RemoteID: created.ID}, nil
}

// ListCollectionEntries retrieves all members of a playlist.
//
// Calls GET /playlistItems, following nextPageToken until exhausted. The entry
// key is the item title; the remote item ID is the underlying video ID.
func (y *YouTubeService) ListCollectionEntries(ctx context.Context, collectionID string) ([]models.RemoteEntry, error) {
	var entries []models.RemoteEntry
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/playlistItems?part=snippet&playlistId=%s&maxResults=50", url.QueryEscape(collectionID))
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page struct {
			NextPageToken string `json:"nextPageToken"`
			Items         []struct {
				Snippet struct {
					Title      string `json:"title"`
					ResourceID struct {
						VideoID string `json:"videoId"`
					} `json:"resourceId"`
				} `json:"snippet"`
			} `json:"items"`
		}

		if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			entries = append(entries, models.RemoteEntry{
				Key:          item.Snippet.Title,
				RemoteItemID: item.Snippet.ResourceID.VideoID,
			})
		}

		if page.NextPageToken == "" {
			return entries, nil
		}
		pageToken = page.NextPageToken
	}
}

// OpenResumableUpload starts a resumable video upload session.
//
// Calls POST /videos?uploadType=resumable with the item metadata; the session
// URI is returned by the server in the Location header.
func (y *YouTubeService) OpenResumableUpload(ctx context.Context, meta UploadMetadata, sizeBytes int64) (UploadSession, error) {
	body := map[string]any{
		"snippet": map[string]string{
			"title":       meta.Title,
			"description": meta.Description,
			"categoryId":  meta.CategoryID,
		},
		"status": map[string]string{
			"privacyStatus": meta.Privacy,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal upload metadata: %w", err)
	}

	endpoint := y.uploadURL + "/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", sizeBytes))
	req.Header.Set("X-Upload-Content-Type", "video/*")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}

	session := resp.Header.Get("Location")
	if session == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "resumable session opened without Location header"}
	}

	return UploadSession(session), nil
}

// UploadChunk sends one byte range of a resumable session.
//
// A 308 response means the server stored the range and expects more; 200/201
// means the upload committed and the response carries the new video ID.
func (y *YouTubeService) UploadChunk(ctx context.Context, session UploadSession, offset int64, chunk []byte, totalBytes int64) (*ChunkResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, string(session), bytes.NewReader(chunk))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	last := offset + int64(len(chunk)) - 1
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, last, totalBytes))
	req.ContentLength = int64(len(chunk))

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPermanentRedirect: // 308 Resume Incomplete
		received := offset + int64(len(chunk))
		if r := resp.Header.Get("Range"); r != "" {
			received = parseRangeEnd(r, received)
		}
		return &ChunkResult{BytesReceived: received}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var committed struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&committed); err != nil {
			return nil, fmt.Errorf("failed to decode commit response: %w", err)
		}
		if committed.ID == "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "upload committed without item ID"}
		}
		return &ChunkResult{Committed: true, RemoteItemID: committed.ID, BytesReceived: totalBytes}, nil

	default:
		return nil, decodeError(resp)
	}
}

// parseRangeEnd extracts the acknowledged byte count from a "bytes=0-N" header,
// falling back when the header is unparseable.
func parseRangeEnd(header string, fallback int64) int64 {
	idx := strings.LastIndex(header, "-")
	if idx < 0 {
		return fallback
	}
	var end int64
	if _, err := fmt.Sscanf(header[idx+1:], "%d", &end); err != nil {
		return fallback
	}
	return end + 1
}

// AttachCaption uploads a caption track for a committed video.
//
// Calls POST /captions?uploadType=multipart with a multipart/related body:
// the snippet JSON part followed by the caption bytes.
func (y *YouTubeService) AttachCaption(ctx context.Context, remoteItemID string, caption []byte, languageTag string) error {
	snippet := map[string]any{
		"snippet": map[string]string{
			"videoId":  remoteItemID,
			"language": languageTag,
			"name":     "Subtitles",
		},
	}
	meta, err := json.Marshal(snippet)
	if err != nil {
		return fmt.Errorf("failed to marshal caption metadata: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := mw.CreatePart(metaHeader)
	if err != nil {
		return fmt.Errorf("failed to create metadata part: %w", err)
	}
	if _, err := part.Write(meta); err != nil {
		return fmt.Errorf("failed to write metadata part: %w", err)
	}

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "application/octet-stream")
	part, err = mw.CreatePart(bodyHeader)
	if err != nil {
		return fmt.Errorf("failed to create caption part: %w", err)
	}
	if _, err := part.Write(caption); err != nil {
		return fmt.Errorf("failed to write caption part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := y.uploadURL + "/captions?uploadType=multipart&part=snippet"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	return nil
}

// AddEntryToCollection inserts a committed video into a playlist.
//
// Calls POST /playlistItems?part=snippet.
func (y *YouTubeService) AddEntryToCollection(ctx context.Context, collectionID, remoteItemID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": collectionID,
			"resourceId": map[string]string{
				"kind":    "youtube#video",
				"videoId": remoteItemID,
			},
		},
	}

	return y.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", body, nil)
}

// DeleteItem removes a video. Used only to clean up orphaned uploads that were
// committed but never reached any collection.
func (y *YouTubeService) DeleteItem(ctx context.Context, remoteItemID string) error {
	return y.doRequest(ctx, http.MethodDelete, "/videos?id="+url.QueryEscape(remoteItemID), nil, nil)
}
