package videouploader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"golang.org/x/net/context"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/drivecast/drivecast/utils/restclient"
)

const (
	resumable_start_url = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	watch_url_prefix    = "https://www.youtube.com/watch?v="
)

// Channel is a YouTube channel account backed by an OAuth token file created
// with the token-generator command.
type Channel struct {
	name     string
	source   oauth2.TokenSource
	client   restclient.HTTPClient
	startURL string
}

// NewChannel loads the channel's client secret and saved token and returns a
// Destination for it. The token is refreshed lazily on first use.
func NewChannel(ctx context.Context, name, clientSecretFile, tokenFile string) (*Channel, error) {
	byteData, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", name, err)
	}
	config, err := google.ConfigFromJSON(byteData, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", name, err)
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", name, err)
	}
	source := config.TokenSource(ctx, token)
	return &Channel{
		name:     name,
		source:   source,
		client:   oauth2.NewClient(ctx, source),
		startURL: resumable_start_url,
	}, nil
}

func tokenFromFile(tokenFilePath string) (*oauth2.Token, error) {
	file, err := os.Open(tokenFilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (c *Channel) Id() string { return c.name }

func (c *Channel) WatchURL(videoId string) string { return watch_url_prefix + videoId }

// NewSession verifies the credentials are still usable and opens a resumable
// transfer. An unusable token surfaces as AuthError before any bytes move.
func (c *Channel) NewSession(ctx context.Context) (Session, error) {
	token, err := c.source.Token()
	if err != nil {
		return nil, &AuthError{Channel: c.name, Err: err}
	}
	if !token.Valid() {
		return nil, &AuthError{Channel: c.name, Err: errors.New("token expired")}
	}
	return &resumableSession{client: c.client, startURL: c.startURL}, nil
}

// SetThumbnail attaches a custom thumbnail with one non-resumable request.
func (c *Channel) SetThumbnail(ctx context.Context, videoId string, thumb io.Reader) error {
	service, err := youtube.NewService(ctx, option.WithTokenSource(c.source))
	if err != nil {
		return err
	}
	_, err = service.Thumbnails.Set(videoId).Media(thumb).Context(ctx).Do()
	return err
}

// resumableSession speaks the resumable upload protocol: one start request
// that yields a session URI, then one PUT per chunk with a Content-Range
// header. Status 308 means more chunks remain; 2xx carries the video id.
type resumableSession struct {
	client   restclient.HTTPClient
	startURL string
	location string
}

func (s *resumableSession) Begin(ctx context.Context, meta Metadata, size int64) error {
	body := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryId,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: meta.Privacy},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.startURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/*")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := googleapi.CheckResponse(res); err != nil {
		return err
	}
	location := res.Header.Get("Location")
	if location == "" {
		return errors.New("upload session: missing Location header")
	}
	s.location = location
	return nil
}

func (s *resumableSession) SendChunk(ctx context.Context, offset int64, chunk []byte, total int64) (ChunkResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.location, bytes.NewReader(chunk))
	if err != nil {
		return ChunkResult{}, err
	}
	end := offset + int64(len(chunk)) - 1
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end, total))
	req.ContentLength = int64(len(chunk))

	res, err := s.client.Do(req)
	if err != nil {
		return ChunkResult{}, err
	}
	defer res.Body.Close()

	// 308 Resume Incomplete: the chunk was accepted, more remain.
	if res.StatusCode == http.StatusPermanentRedirect {
		io.Copy(io.Discard, res.Body)
		return ChunkResult{}, nil
	}
	if err := googleapi.CheckResponse(res); err != nil {
		return ChunkResult{}, err
	}

	var video youtube.Video
	if err := json.NewDecoder(res.Body).Decode(&video); err != nil {
		return ChunkResult{}, err
	}
	if video.Id == "" {
		return ChunkResult{}, errors.New("upload response missing video id")
	}
	return ChunkResult{Done: true, VideoId: video.Id}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
